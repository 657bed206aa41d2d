package main

import (
	"fmt"
	"os"

	"github.com/On-Jun9/TagProbe/internal/config"
	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/internal/pipeline"
	"github.com/On-Jun9/TagProbe/pkg/types"
	"github.com/spf13/cobra"
)

var (
	appVersion  = "0.1.0"
	cfgFile     string
	source      string
	tool        string
	backend     string
	mode        string
	tags        []string
	preset      string
	includeExt  []string
	jobs        int
	stateFile   string
	logFile     string
	logJSON     bool
	output      string
	ignoreState bool
	format      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tagprobe",
	Short: "Extract filtered EXIF tags from media files",
	Long: `TagProbe runs exiftool (or a built-in EXIF decoder) against media files
and collects their tags, optionally narrowed by a whitelist or blacklist.`,
	SilenceUsage: true,
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract tags from a single file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract tags from every matching file under a directory",
	RunE:  runPipeline,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the extraction tool is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		name := tool
		if name == "" {
			name = exif.DefaultTool
		}
		if !exif.Available(name) {
			return fmt.Errorf("%s not found in PATH", name)
		}
		fmt.Printf("%s: ok\n", name)
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List saved and built-in filter presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := config.NewPresetManager()
		if err != nil {
			return err
		}
		presets, err := pm.ListPresets()
		if err != nil {
			return err
		}
		for _, p := range presets {
			origin := "saved"
			if p.BuiltIn {
				origin = "built-in"
			}
			fmt.Printf("%-12s %-10s %-9s %d tags  %s\n", p.Name, p.Mode, origin, len(p.Tags), p.Description)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&tool, "tool", "", "extraction tool executable (default exiftool)")

	for _, c := range []*cobra.Command{extractCmd, runCmd} {
		c.Flags().StringVar(&backend, "backend", "", "report source: exiftool, native")
		c.Flags().StringVarP(&mode, "mode", "m", "", "filter mode: all, whitelist, blacklist")
		c.Flags().StringSliceVarP(&tags, "tags", "t", nil, "tag names for whitelist/blacklist")
		c.Flags().StringVarP(&preset, "preset", "p", "", "filter preset name")
	}

	extractCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")

	runCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	runCmd.Flags().StringVarP(&source, "source", "s", "", "source file or directory")
	runCmd.Flags().StringSliceVarP(&includeExt, "include-ext", "e", nil, "file extensions to include")
	runCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of concurrent workers (0=auto)")
	runCmd.Flags().StringVar(&stateFile, "state-file", "", "state database for resume")
	runCmd.Flags().StringVar(&logFile, "log-file", "", "log file path")
	runCmd.Flags().BoolVar(&logJSON, "log-json", false, "output JSON logs")
	runCmd.Flags().StringVarP(&output, "output", "o", "", "write results to a .json or .yaml file")
	runCmd.Flags().BoolVar(&ignoreState, "ignore-state", false, "re-extract files already recorded")
}

// applyFilterFlags overlays the filter flags shared by extract and run.
func applyFilterFlags(cfg *config.Config) error {
	if tool != "" {
		cfg.Tool = tool
	}
	if backend != "" {
		cfg.Backend = types.Backend(backend)
	}
	if mode != "" {
		cfg.Mode = types.FilterMode(mode)
	}
	if len(tags) > 0 {
		cfg.Tags = tags
	}
	if preset != "" {
		cfg.Preset = preset
	}

	if cfg.Preset == "" {
		return nil
	}
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}
	p, err := pm.LoadPreset(cfg.Preset)
	if err != nil {
		return err
	}
	config.ApplyPreset(cfg, p)
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if source != "" {
		cfg.Source = source
	}
	if len(includeExt) > 0 {
		cfg.IncludeExtensions = includeExt
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if stateFile != "" {
		cfg.StateFile = stateFile
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}
	if output != "" {
		cfg.Output = output
	}
	if ignoreState {
		cfg.IgnoreState = true
	}

	if err := applyFilterFlags(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	_, err = p.Run()
	return err
}
