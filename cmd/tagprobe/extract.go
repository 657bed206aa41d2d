package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/On-Jun9/TagProbe/internal/config"
	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Source = args[0]

	if err := applyFilterFlags(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	x, err := exif.NewExtractor(cfg.Invoker()).Extract(cfg.Source, policy)
	if err != nil {
		return err
	}

	return writeAttributes(os.Stdout, format, x.Attributes)
}

// writeAttributes prints attrs in tag order as text, or as a JSON/YAML map.
func writeAttributes(w io.Writer, format string, attrs types.Attributes) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(attrs)
	case "yaml":
		data, err := yaml.Marshal(attrs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		for _, tag := range attrs.Tags() {
			if _, err := fmt.Fprintf(w, "%s: %s\n", tag, attrs[tag]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
