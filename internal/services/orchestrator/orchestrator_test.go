package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockDescriber struct {
	DescribeFunc func(ctx context.Context, req ai.Request) (*models.Result, error)

	mu       sync.Mutex
	requests []ai.Request
}

func (m *mockDescriber) Describe(ctx context.Context, req ai.Request) (*models.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.DescribeFunc(ctx, req)
}

func (m *mockDescriber) requestsFor(filename string) []ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ai.Request
	for _, r := range m.requests {
		if r.Filename == filename {
			out = append(out, r)
		}
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]*models.Result
}

func (c *mapCache) key(sha string, opts models.GenerationOptions) string {
	return sha + "|" + string(opts.Lang)
}

func (c *mapCache) GetResult(ctx context.Context, sha string, opts models.GenerationOptions) (*models.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[c.key(sha, opts)]
	return r, ok
}

func (c *mapCache) SetResult(ctx context.Context, sha string, opts models.GenerationOptions, r *models.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[c.key(sha, opts)] = r
}

var testOptions = Options{MaxAttempts: 3, Concurrency: 3, InitialBackoff: time.Millisecond}

func makeItems(n int) []models.ImagePayload {
	items := make([]models.ImagePayload, n)
	for i := range items {
		items[i] = models.ImagePayload{
			DataURL:  "data:image/png;base64,AAAA",
			Filename: fmt.Sprintf("img-%d.png", i),
			SHA256:   fmt.Sprintf("sha-%d", i),
		}
	}
	return items
}

func okResult(alt string) *models.Result {
	return &models.Result{Alt: alt, KeywordsUsed: []string{}, Tags: []string{"t"}, PlacementHint: models.PlacementHero}
}

func bySHA(outcomes []Outcome) map[string]Outcome {
	m := make(map[string]Outcome, len(outcomes))
	for _, o := range outcomes {
		m[o.Item.SHA256] = o
	}
	return m
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil, zap.NewNop(), testOptions)
	assert.Error(t, err)

	o, err := New(&mockDescriber{}, nil, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions, o.opts)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return okResult(req.Filename), nil
		},
	}
	o, err := New(d, nil, zap.NewNop(), testOptions)
	require.NoError(t, err)

	outcomes := o.Run(context.Background(), makeItems(10), models.GenerationOptions{Lang: models.LanguageEN})

	require.Len(t, outcomes, 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	for sha, out := range bySHA(outcomes) {
		require.NoError(t, out.Err, sha)
		assert.Equal(t, out.Item.Filename, out.Result.Alt)
	}
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return nil, &ai.ParseError{Err: errors.New("not json")}
			}
			return okResult("third time"), nil
		},
	}
	o, err := New(d, nil, zap.NewNop(), testOptions)
	require.NoError(t, err)

	outcomes := o.Run(context.Background(), makeItems(1), models.GenerationOptions{Lang: models.LanguageEN})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, "third time", outcomes[0].Result.Alt)

	reqs := d.requestsFor("img-0.png")
	require.Len(t, reqs, 3)
	assert.False(t, reqs[0].Strict)
	assert.False(t, reqs[1].Strict)
	assert.True(t, reqs[2].Strict)
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	var attempt int32
	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			if req.Filename == "img-1.png" {
				n := atomic.AddInt32(&attempt, 1)
				return nil, &ai.TransportError{Err: fmt.Errorf("attempt %d failed", n)}
			}
			return okResult(req.Filename), nil
		},
	}
	o, err := New(d, nil, zap.NewNop(), testOptions)
	require.NoError(t, err)

	outcomes := bySHA(o.Run(context.Background(), makeItems(4), models.GenerationOptions{Lang: models.LanguageEN}))

	require.Len(t, outcomes, 4)
	failed := outcomes["sha-1"]
	require.Error(t, failed.Err)
	assert.Nil(t, failed.Result)
	assert.Contains(t, failed.Err.Error(), "attempt 3 failed")
	assert.Len(t, d.requestsFor("img-1.png"), 3)

	for _, sha := range []string{"sha-0", "sha-2", "sha-3"} {
		assert.NoError(t, outcomes[sha].Err)
		assert.NotNil(t, outcomes[sha].Result)
	}
}

func TestRun_BackoffDoubles(t *testing.T) {
	var stamps []time.Time
	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			stamps = append(stamps, time.Now())
			return nil, errors.New("fail")
		},
	}
	opts := Options{MaxAttempts: 3, Concurrency: 1, InitialBackoff: 20 * time.Millisecond}
	o, err := New(d, nil, zap.NewNop(), opts)
	require.NoError(t, err)

	o.Run(context.Background(), makeItems(1), models.GenerationOptions{Lang: models.LanguageEN})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestRun_UsesCache(t *testing.T) {
	cache := &mapCache{data: map[string]*models.Result{}}
	opts := models.GenerationOptions{Lang: models.LanguageEN}
	cache.SetResult(context.Background(), "sha-0", opts, okResult("cached"))

	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			return okResult("fresh"), nil
		},
	}
	o, err := New(d, cache, zap.NewNop(), testOptions)
	require.NoError(t, err)

	outcomes := bySHA(o.Run(context.Background(), makeItems(2), opts))

	assert.Equal(t, "cached", outcomes["sha-0"].Result.Alt)
	assert.Equal(t, "fresh", outcomes["sha-1"].Result.Alt)
	assert.Empty(t, d.requestsFor("img-0.png"))

	stored, ok := cache.GetResult(context.Background(), "sha-1", opts)
	require.True(t, ok)
	assert.Equal(t, "fresh", stored.Alt)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &mockDescriber{
		DescribeFunc: func(ctx context.Context, req ai.Request) (*models.Result, error) {
			return nil, ctx.Err()
		},
	}
	o, err := New(d, nil, zap.NewNop(), testOptions)
	require.NoError(t, err)

	outcomes := o.Run(ctx, makeItems(2), models.GenerationOptions{Lang: models.LanguageEN})

	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.ErrorIs(t, out.Err, context.Canceled)
	}
}

func TestRun_Empty(t *testing.T) {
	o, err := New(&mockDescriber{}, nil, zap.NewNop(), testOptions)
	require.NoError(t, err)

	assert.Empty(t, o.Run(context.Background(), nil, models.GenerationOptions{Lang: models.LanguageEN}))
}
