package orchestrator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/ai"
	"go.uber.org/zap"
)

// newBackOff doubles the delay after every failed attempt, without jitter,
// and stops after MaxAttempts-1 retries.
func (o *Orchestrator) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.opts.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = o.opts.InitialBackoff << uint(o.opts.MaxAttempts)
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.opts.MaxAttempts-1)), ctx)
}

// describeWithRetry calls the describer until it succeeds or attempts run
// out. Only the final attempt is sent in strict mode.
func (o *Orchestrator) describeWithRetry(ctx context.Context, item models.ImagePayload, opts models.GenerationOptions) (*models.Result, error) {
	var (
		result  *models.Result
		attempt int
	)

	operation := func() error {
		attempt++
		res, err := o.describer.Describe(ctx, ai.Request{
			DataURL:  item.DataURL,
			Filename: item.Filename,
			Options:  opts,
			Strict:   attempt == o.opts.MaxAttempts,
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	notify := func(err error, next time.Duration) {
		o.logger.Warn("Retrying image",
			zap.String("filename", item.Filename),
			zap.String("sha256", item.SHA256),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, o.newBackOff(ctx), notify); err != nil {
		return nil, err
	}
	return result, nil
}
