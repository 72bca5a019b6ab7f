package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vectorprep/core"
)

// Result is the outcome of one pipeline run by RunAll.
type Result struct {
	Directory string
	Count     int
	Err       error
}

type runOptions struct {
	poolSize int
	logger   *slog.Logger
}

// RunOption configures RunAll.
type RunOption func(*runOptions)

// WithPoolSize limits how many pipelines build at once.
// Default is one worker per pipeline.
func WithPoolSize(size int) RunOption {
	return func(o *runOptions) {
		o.poolSize = size
	}
}

// WithRunLogger sets the logger used by RunAll.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// RunAll builds every pipeline concurrently and returns one Result per
// pipeline in input order. Each finished index is closed after counting. The
// returned error joins every failure. Pipelines that share a persist
// directory are refused before anything runs.
func RunAll(ctx context.Context, pipelines []*Pipeline, opts ...RunOption) ([]Result, error) {
	if len(pipelines) == 0 {
		return nil, nil
	}

	o := &runOptions{
		poolSize: len(pipelines),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.poolSize < 1 {
		o.poolSize = 1
	}

	seen := make(map[string]int, len(pipelines))
	for i, p := range pipelines {
		dir := filepath.Clean(p.Directory())
		if j, ok := seen[dir]; ok {
			return nil, core.NewConfigurationError(fmt.Errorf(
				"%w: pipelines %d and %d both write %s", ErrSharedDirectory, j, i, dir))
		}
		seen[dir] = i
	}

	pool, err := ants.NewPool(o.poolSize)
	if err != nil {
		return nil, core.NewConfigurationError(err)
	}
	defer pool.Release()

	results := make([]Result, len(pipelines))
	var wg sync.WaitGroup
	for i, p := range pipelines {
		results[i].Directory = p.Directory()
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i].Count, results[i].Err = build(ctx, p)
		})
		if submitErr != nil {
			wg.Done()
			results[i].Err = core.NewConfigurationError(submitErr)
		}
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			o.logger.Error("pipeline failed", "dir", r.Directory, "err", r.Err)
			errs = append(errs, r.Err)
			continue
		}
		o.logger.Info("pipeline finished", "dir", r.Directory, "entries", r.Count)
	}
	return results, errors.Join(errs...)
}

// build runs one pipeline to completion and reports the entry count.
func build(ctx context.Context, p *Pipeline) (int, error) {
	store, err := p.BuildAndPersist(ctx)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Count(ctx)
}
