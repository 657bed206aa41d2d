package batch

import (
	"errors"
	"sync"
	"time"

	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/pkg/types"
)

// Runner extracts many files with a fixed number of workers. Each worker
// makes one blocking extraction call at a time; the policy is shared.
type Runner struct {
	workers   int
	extractor *exif.Extractor
	policy    exif.Policy
}

func New(workers int, extractor *exif.Extractor, policy exif.Policy) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workers:   workers,
		extractor: extractor,
		policy:    policy,
	}
}

type Result struct {
	Entry  types.FileEntry
	Result types.ExtractResult
	Error  error
}

// ExtractAll sends one Result per entry and closes resultChan when done.
func (r *Runner) ExtractAll(entries []types.FileEntry, resultChan chan<- Result) {
	entryChan := make(chan types.FileEntry, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entryChan {
				resultChan <- r.extractOne(entry)
			}
		}()
	}

	for _, entry := range entries {
		entryChan <- entry
	}
	close(entryChan)

	wg.Wait()
	close(resultChan)
}

func (r *Runner) extractOne(entry types.FileEntry) Result {
	start := time.Now()
	x, err := r.extractor.Extract(entry.Path, r.policy)

	res := types.ExtractResult{
		Path:     entry.Path,
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		res.Status = types.ResultStatusExtracted
		res.Attributes = x.Attributes
	case errors.Is(err, exif.ErrFileNotFound):
		res.Status = types.ResultStatusNotFound
		res.Error = err.Error()
	default:
		res.Status = types.ResultStatusFailed
		res.Error = err.Error()
	}

	return Result{Entry: entry, Result: res, Error: err}
}
