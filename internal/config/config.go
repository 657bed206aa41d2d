package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/pkg/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source            string           `yaml:"source" json:"source"`
	Tool              string           `yaml:"tool" json:"tool"`
	Backend           types.Backend    `yaml:"backend" json:"backend"`
	Mode              types.FilterMode `yaml:"mode" json:"mode"`
	Tags              []string         `yaml:"tags" json:"tags"`
	Preset            string           `yaml:"preset" json:"preset"`
	IncludeExtensions []string         `yaml:"include_extensions" json:"include_extensions"`
	Jobs              int              `yaml:"jobs" json:"jobs"`
	StateFile         string           `yaml:"state_file" json:"state_file"`
	LogFile           string           `yaml:"log_file" json:"log_file"`
	LogJSON           bool             `yaml:"log_json" json:"log_json"`
	Output            string           `yaml:"output" json:"output"`
	IgnoreState       bool             `yaml:"ignore_state" json:"ignore_state"`
}

func stateDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tagprobe")
}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	dir := stateDir()

	return &Config{
		Tool:    exif.DefaultTool,
		Backend: types.BackendExifTool,
		Mode:    types.FilterModeAll,
		IncludeExtensions: []string{
			"jpg", "jpeg", "heic", "heif", "png", "tif", "tiff", "raw", "arw", "cr2", "nef", "dng",
			"mp4", "mov",
		},
		Jobs:      jobs,
		StateFile: filepath.Join(dir, "state.db"),
		LogFile:   filepath.Join(dir, "tagprobe.log"),
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and fills defaults for empty ones.
// A preset, when set, is resolved by the caller before Validate.
func (c *Config) Validate() error {
	if c.Source == "" {
		return &ValidationError{Field: "source", Message: "source path is required"}
	}

	mode, err := exif.ParseMode(string(c.Mode))
	if err != nil {
		return &ValidationError{Field: "mode", Message: err.Error()}
	}
	c.Mode = mode
	if mode != types.FilterModeAll && len(c.Tags) == 0 {
		return &ValidationError{Field: "tags", Message: string(mode) + " mode requires at least one tag"}
	}

	switch c.Backend {
	case "":
		c.Backend = types.BackendExifTool
	case types.BackendExifTool, types.BackendNative:
	default:
		return &ValidationError{Field: "backend", Message: "unknown backend " + string(c.Backend)}
	}

	if c.Jobs < 1 {
		c.Jobs = 1
	}
	if c.Tool == "" {
		c.Tool = exif.DefaultTool
	}

	dir := stateDir()

	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "tagprobe.log")
	}
	if c.StateFile == "" {
		c.StateFile = filepath.Join(dir, "state.db")
	}

	return nil
}

// Policy builds the filter policy described by Mode and Tags.
func (c *Config) Policy() (exif.Policy, error) {
	mode, err := exif.ParseMode(string(c.Mode))
	if err != nil {
		return exif.Policy{}, err
	}
	return exif.NewPolicy(mode, c.Tags)
}

// Invoker returns the report source selected by Backend.
func (c *Config) Invoker() exif.Invoker {
	if c.Backend == types.BackendNative {
		return exif.NewNativeInvoker()
	}
	return exif.NewCommandInvoker(c.Tool)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
