// Package orchestrator fans a batch of images out to the AI model with a
// bounded number of calls in flight and per-image retries.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/ai"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxAttempts    = 3
	DefaultConcurrency    = 3
	DefaultInitialBackoff = time.Second
)

type Options struct {
	MaxAttempts    int
	Concurrency    int
	InitialBackoff time.Duration
}

var DefaultOptions = Options{
	MaxAttempts:    DefaultMaxAttempts,
	Concurrency:    DefaultConcurrency,
	InitialBackoff: DefaultInitialBackoff,
}

// ResultCache short-circuits model calls for images already described with
// the same options. Implementations should treat errors as misses.
type ResultCache interface {
	GetResult(ctx context.Context, sha256 string, opts models.GenerationOptions) (*models.Result, bool)
	SetResult(ctx context.Context, sha256 string, opts models.GenerationOptions, result *models.Result)
}

// Outcome is the result of one image: exactly one of Result and Err is set.
type Outcome struct {
	Item   models.ImagePayload
	Result *models.Result
	Err    error
}

type Orchestrator struct {
	describer ai.Describer
	cache     ResultCache
	logger    *zap.Logger
	opts      Options
}

func New(describer ai.Describer, cache ResultCache, logger *zap.Logger, opts Options) (*Orchestrator, error) {
	if describer == nil {
		return nil, errors.New("describer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}

	return &Orchestrator{
		describer: describer,
		cache:     cache,
		logger:    logger,
		opts:      opts,
	}, nil
}

// Run describes every item and returns one Outcome per item in completion
// order. Callers correlate outcomes by fingerprint. A failing item never
// cancels the others.
func (o *Orchestrator) Run(ctx context.Context, items []models.ImagePayload, opts models.GenerationOptions) []Outcome {
	outcomes := make([]Outcome, 0, len(items))
	if len(items) == 0 {
		return outcomes
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(o.opts.Concurrency))
	)

	record := func(out Outcome) {
		mu.Lock()
		outcomes = append(outcomes, out)
		mu.Unlock()
	}

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(Outcome{Item: item, Err: err})
			continue
		}

		wg.Add(1)
		go func(item models.ImagePayload) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := o.process(ctx, item, opts)
			record(Outcome{Item: item, Result: result, Err: err})
		}(item)
	}

	wg.Wait()

	o.logger.Info("Batch finished",
		zap.Int("items", len(items)),
		zap.Int("failed", countFailed(outcomes)),
		zap.String("lang", string(opts.Lang)))

	return outcomes
}

func (o *Orchestrator) process(ctx context.Context, item models.ImagePayload, opts models.GenerationOptions) (*models.Result, error) {
	if o.cache != nil {
		if cached, ok := o.cache.GetResult(ctx, item.SHA256, opts); ok {
			o.logger.Debug("Result served from cache", zap.String("sha256", item.SHA256))
			return cached, nil
		}
	}

	result, err := o.describeWithRetry(ctx, item, opts)
	if err != nil {
		o.logger.Error("Image processing failed",
			zap.String("filename", item.Filename),
			zap.String("sha256", item.SHA256),
			zap.Error(err))
		return nil, err
	}

	if o.cache != nil {
		o.cache.SetResult(ctx, item.SHA256, opts, result)
	}
	return result, nil
}

func countFailed(outcomes []Outcome) int {
	n := 0
	for _, out := range outcomes {
		if out.Err != nil {
			n++
		}
	}
	return n
}
