package learncache

import (
	"context"
	"sync"
	"time"

	"github.com/mbeoliero/learncache/cacher"
	"golang.org/x/sync/errgroup"
)

// WarmupProvider pre-populates part of the cache at process start.
type WarmupProvider interface {
	Name() string
	Warmup(ctx context.Context) error
}

type WarmupResult struct {
	Provider string
	Duration time.Duration
	Err      error
}

type WarmupResults struct {
	Results   []WarmupResult
	TotalTime time.Duration
	Errors    int
}

func (wr *WarmupResults) HasErrors() bool {
	return wr.Errors > 0
}

// Warmer runs every registered provider concurrently under one timeout.
// A failing provider never stops the others.
type Warmer struct {
	providers []WarmupProvider
	timeout   time.Duration
	logger    cacher.Logger
}

func NewWarmer(timeout time.Duration, logger cacher.Logger) *Warmer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Warmer{timeout: timeout, logger: cacher.OrNop(logger)}
}

func (w *Warmer) Register(providers ...WarmupProvider) *Warmer {
	w.providers = append(w.providers, providers...)
	return w
}

func (w *Warmer) Run(ctx context.Context) *WarmupResults {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var mu sync.Mutex
	results := &WarmupResults{Results: make([]WarmupResult, 0, len(w.providers))}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range w.providers {
		g.Go(func() error {
			began := time.Now()
			err := p.Warmup(gctx)
			res := WarmupResult{Provider: p.Name(), Duration: time.Since(began), Err: err}
			if err != nil {
				w.logger.CtxError(ctx, "[learncache] warmup failed. provider=%s took=%s err=%v", res.Provider, res.Duration, err)
			}

			mu.Lock()
			results.Results = append(results.Results, res)
			if err != nil {
				results.Errors++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	results.TotalTime = time.Since(start)
	w.logger.CtxInfo(ctx, "[learncache] warmup finished. providers=%d errors=%d took=%s", len(w.providers), results.Errors, results.TotalTime)
	return results
}

type categoryWarmup[V any] struct {
	m        *Manager[V]
	category string
	load     func(ctx context.Context) ([]Item[V], error)
}

// CategoryWarmup loads a known-hot dataset and hands it to Manager.Warmup.
func CategoryWarmup[V any](m *Manager[V], category string, load func(ctx context.Context) ([]Item[V], error)) WarmupProvider {
	return &categoryWarmup[V]{m: m, category: category, load: load}
}

func (c *categoryWarmup[V]) Name() string {
	return c.m.Name() + "/" + c.category
}

func (c *categoryWarmup[V]) Warmup(ctx context.Context) error {
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	_, err = c.m.Warmup(ctx, c.category, items)
	return err
}
