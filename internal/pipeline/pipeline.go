package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/On-Jun9/TagProbe/internal/batch"
	"github.com/On-Jun9/TagProbe/internal/config"
	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/internal/log"
	"github.com/On-Jun9/TagProbe/internal/scanner"
	"github.com/On-Jun9/TagProbe/internal/state"
	"github.com/On-Jun9/TagProbe/pkg/types"
)

type Pipeline struct {
	cfg              *config.Config
	scanner          *scanner.Scanner
	runner           *batch.Runner
	policy           string
	state            *state.State
	logger           *log.Logger
	progressCallback ProgressCallback
}

// New wires a pipeline from a validated config. A preset named in cfg
// must already have been applied.
func New(cfg *config.Config) (*Pipeline, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	logger, err := log.New(cfg.LogFile, cfg.LogJSON, true)
	if err != nil {
		return nil, err
	}

	st, err := state.Open(cfg.StateFile)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		scanner: scanner.New(cfg.IncludeExtensions),
		runner:  batch.New(cfg.Jobs, exif.NewExtractor(cfg.Invoker()), policy),
		policy:  policy.String(),
		state:   st,
		logger:  logger,
	}, nil
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

func (p *Pipeline) notify(update ProgressUpdate) {
	if p.progressCallback != nil {
		p.progressCallback(update)
	}
}

func (p *Pipeline) Run() (*types.RunSummary, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	p.logger.Info("Starting scan: '" + p.cfg.Source + "' (run " + runID + ")")
	p.notify(ProgressUpdate{Type: "status", Message: "Scanning " + p.cfg.Source})

	entries, err := p.scanner.Scan(p.cfg.Source)
	if err != nil {
		p.logger.Error("Scan failed", err)
		return nil, err
	}

	p.logger.Info("Found " + strconv.Itoa(len(entries)) + " files")

	summary := &types.RunSummary{
		RunID:        runID,
		ScannedFiles: len(entries),
		StartTime:    startTime,
	}

	var pending []types.FileEntry
	results := make([]types.ExtractResult, 0, len(entries))
	for _, entry := range entries {
		if !p.cfg.IgnoreState && p.state.IsProcessed(entry.Path, entry.Size, p.policy) {
			attrs, err := p.state.Attributes(entry.Path)
			if err != nil {
				p.logger.Error("Failed to load stored attributes for "+entry.Path, err)
				pending = append(pending, entry)
				continue
			}
			summary.Skipped++
			skipped := types.ExtractResult{
				Path:       entry.Path,
				Status:     types.ResultStatusSkipped,
				Attributes: attrs,
			}
			p.logger.LogResult(skipped)
			results = append(results, skipped)
			continue
		}
		pending = append(pending, entry)
	}
	summary.TotalFiles = len(pending)

	p.notify(ProgressUpdate{
		Type:    "status",
		Message: "Extracting metadata",
		Total:   len(pending),
	})

	resultChan := make(chan batch.Result, len(pending))
	go p.runner.ExtractAll(pending, resultChan)

	processed := 0
	for result := range resultChan {
		processed++
		p.logger.Progress(processed, len(pending), result.Entry.Name)

		p.notify(ProgressUpdate{
			Type:     "progress",
			Current:  processed,
			Total:    len(pending),
			Filename: result.Entry.Name,
			Status:   result.Result.Status,
		})

		switch result.Result.Status {
		case types.ResultStatusExtracted:
			summary.Extracted++
			summary.Tags += len(result.Result.Attributes)
			if err := p.state.Record(runID, p.policy, result.Entry, result.Result.Attributes); err != nil {
				p.logger.Error("Failed to record "+result.Entry.Path, err)
			}
		case types.ResultStatusNotFound:
			summary.NotFound++
		default:
			summary.Failed++
		}

		p.logger.LogResult(result.Result)
		results = append(results, result.Result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if p.cfg.Output != "" {
		if err := WriteResults(p.cfg.Output, results); err != nil {
			p.logger.Error("Failed to write output", err)
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(startTime)

	p.logger.Summary(*summary)
	p.notify(ProgressUpdate{Type: "complete", Summary: summary})

	return summary, nil
}

func (p *Pipeline) Close() error {
	stateErr := p.state.Close()
	if err := p.logger.Close(); err != nil {
		return err
	}
	return stateErr
}

// WriteResults writes results as YAML when path ends in .yaml or .yml,
// otherwise as indented JSON.
func WriteResults(path string, results []types.ExtractResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(results)
	default:
		data, err = json.MarshalIndent(results, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
