// Package types defines core data structures used across TagProbe modules.
package types

import (
	"sort"
	"time"
)

// FileEntry represents a scanned file queued for extraction.
type FileEntry struct {
	// Path is the path to the source file as passed to the metadata tool.
	Path string
	// Name is the base filename.
	Name string
	// Size is the file size in bytes.
	Size int64
}

// Attributes maps a normalized tag name to its trimmed value.
// One Attributes value is created per extraction call and never shared.
type Attributes map[string]string

// Get returns the value stored for tag.
func (a Attributes) Get(tag string) (string, bool) {
	v, ok := a[tag]
	return v, ok
}

// Len returns the number of stored tags.
func (a Attributes) Len() int {
	return len(a)
}

// Tags returns the tag names in sorted order.
func (a Attributes) Tags() []string {
	tags := make([]string, 0, len(a))
	for tag := range a {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// FilterMode names a filter policy variant in configuration and presets.
type FilterMode string

const (
	FilterModeAll       FilterMode = "all"
	FilterModeWhitelist FilterMode = "whitelist"
	FilterModeBlacklist FilterMode = "blacklist"
)

// Backend selects how raw metadata reports are produced.
type Backend string

const (
	// BackendExifTool runs the external tool as a subprocess.
	BackendExifTool Backend = "exiftool"
	// BackendNative renders embedded EXIF in-process in the same report format.
	BackendNative Backend = "native"
)

// ResultStatus represents the outcome of one file's extraction.
type ResultStatus string

const (
	ResultStatusExtracted ResultStatus = "extracted"
	ResultStatusSkipped   ResultStatus = "skipped"
	ResultStatusNotFound  ResultStatus = "not_found"
	ResultStatusFailed    ResultStatus = "failed"
)

// ExtractResult is the outcome of extracting one file.
type ExtractResult struct {
	Path       string        `json:"path" yaml:"path"`
	Status     ResultStatus  `json:"status" yaml:"status"`
	Attributes Attributes    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// RunSummary contains statistics for a completed batch run.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	ScannedFiles int           `json:"scanned_files"`
	TotalFiles   int           `json:"total_files"`
	Extracted    int           `json:"extracted"`
	Skipped      int           `json:"skipped"`
	NotFound     int           `json:"not_found"`
	Failed       int           `json:"failed"`
	Tags         int           `json:"tags"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
}

// FilterPreset represents a saved, named filter policy.
type FilterPreset struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Mode        FilterMode `json:"mode"`
	Tags        []string   `json:"tags"`
	BuiltIn     bool       `json:"built_in,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
