// Package parallel provides a generic bounded worker pool used to fan
// out per-tree work across the forest.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PoolConfig configures fan-out concurrency.
type PoolConfig struct {
	// MaxWorkers bounds the number of goroutines running concurrently.
	// Default: min(runtime.NumCPU(), 16).
	MaxWorkers int
}

// DefaultPoolConfig caps concurrency at up to 16 workers: trees share
// no mutable state, so a bounded pool is adequate rather than one
// goroutine per tree.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 1 {
		workers = 1
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a copy of c with MaxWorkers set to n.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WorkerPool runs a fixed number of independent jobs under a bounded
// concurrency cap; each job writes its own result into a caller-owned
// slot. The first job error cancels the context passed to the jobs and
// is returned by Run; jobs not yet started are still run, and stop
// early only if they check that context. errgroup is used over a raw sync.WaitGroup because forest
// insert/split jobs can legitimately fail (a tree's internal invariant
// violation) and the caller must learn about it.
type WorkerPool struct {
	config PoolConfig
}

// New creates a worker pool with the given configuration. A zero-value
// MaxWorkers falls back to DefaultPoolConfig.
func New(config PoolConfig) *WorkerPool {
	if config.MaxWorkers <= 0 {
		config = DefaultPoolConfig()
	}
	return &WorkerPool{config: config}
}

// Run executes fn(i) for i in [0, n) with bounded concurrency and
// returns the first error encountered, if any. Results must be written
// by fn into a caller-owned slice at index i; this keeps the pool
// allocation-free for the common case where the job already knows where
// to put its result (the forest writes directly into per-tree slices).
func (p *WorkerPool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	workers := p.config.MaxWorkers
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
