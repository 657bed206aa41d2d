package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

var builtinPresets = map[string]types.FilterPreset{
	"geo": {
		Name:        "geo",
		Description: "GPS position, image size and camera geometry for map placement",
		Mode:        types.FilterModeWhitelist,
		Tags: []string{
			"GPSLatitude",
			"GPSLongitude",
			"GPSAltitude",
			"ExifImageWidth",
			"ExifImageHeight",
			"FlightYawDegree",
			"AbsoluteAltitude",
			"RelativeAltitude",
			"FieldOfView",
			"FocalLength",
		},
		BuiltIn: true,
	},
	"private": {
		Name:        "private",
		Description: "Everything except device identifiers and user comments",
		Mode:        types.FilterModeBlacklist,
		Tags: []string{
			"SerialNumber",
			"FileModificationDate/Time",
			"DigitalZoomRatio",
			"XPComment",
			"XPKeywords",
		},
		BuiltIn: true,
	},
}

// PresetManager manages filter presets. Files in presetsDir override
// built-in presets of the same name.
type PresetManager struct {
	presetsDir string
}

// NewPresetManager creates a new preset manager.
func NewPresetManager() (*PresetManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	presetsDir := filepath.Join(homeDir, ".tagprobe", "presets")
	if err := os.MkdirAll(presetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}

	return &PresetManager{presetsDir: presetsDir}, nil
}

// ErrInvalidPresetName is returned for names that are empty or would
// resolve outside the presets directory.
var ErrInvalidPresetName = errors.New("invalid preset name")

func (pm *PresetManager) presetPath(name string) (string, error) {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPresetName, name)
	}
	return filepath.Join(pm.presetsDir, name+".json"), nil
}

// ConfigToPreset captures the filter settings of cfg as a preset.
func ConfigToPreset(cfg *Config, name, description string) *types.FilterPreset {
	return &types.FilterPreset{
		Name:        name,
		Description: description,
		Mode:        cfg.Mode,
		Tags:        append([]string(nil), cfg.Tags...),
		CreatedAt:   time.Now(),
	}
}

// ApplyPreset copies the preset's filter onto cfg.
func ApplyPreset(cfg *Config, preset *types.FilterPreset) {
	cfg.Mode = preset.Mode
	cfg.Tags = append([]string(nil), preset.Tags...)
	cfg.Preset = preset.Name
}

// SavePreset saves a preset to disk.
func (pm *PresetManager) SavePreset(preset *types.FilterPreset) error {
	filename, err := pm.presetPath(preset.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	return nil
}

// LoadPreset loads a preset from disk, falling back to built-ins.
func (pm *PresetManager) LoadPreset(name string) (*types.FilterPreset, error) {
	filename, err := pm.presetPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		if p, ok := builtinPresets[name]; ok {
			return &p, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset types.FilterPreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	return &preset, nil
}

// DeletePreset deletes a preset from disk. Built-ins cannot be deleted.
func (pm *PresetManager) DeletePreset(name string) error {
	filename, err := pm.presetPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil {
		if _, ok := builtinPresets[name]; ok && errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("preset %q is built in", name)
		}
		return fmt.Errorf("failed to delete preset file: %w", err)
	}
	return nil
}

// ListPresets lists saved and built-in presets by name.
func (pm *PresetManager) ListPresets() ([]types.FilterPreset, error) {
	entries, err := os.ReadDir(pm.presetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	byName := make(map[string]types.FilterPreset, len(builtinPresets))
	for name, p := range builtinPresets {
		byName[name] = p
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := entry.Name()[:len(entry.Name())-5] // Remove ".json"
		preset, err := pm.LoadPreset(name)
		if err != nil {
			continue // Skip invalid presets
		}
		byName[name] = *preset
	}

	presets := make([]types.FilterPreset, 0, len(byName))
	for _, p := range byName {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })

	return presets, nil
}
