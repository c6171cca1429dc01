package storage

import (
	"context"
	"testing"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUnreachableStorage(t *testing.T) *StorageService {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	return &StorageService{
		redisClient:   client,
		cacheDuration: time.Minute,
		logger:        zap.NewNop(),
	}
}

func TestGenerateCacheKey(t *testing.T) {
	base := models.GenerationOptions{Lang: models.LanguageEN, Tone: models.ToneNeutral, Keywords: []string{"a", "b"}}

	key := GenerateCacheKey("abc", base)
	assert.Regexp(t, `^alt_cache:[0-9a-f]{64}$`, key)
	assert.Equal(t, key, GenerateCacheKey("abc", base))

	variants := []models.GenerationOptions{
		{Lang: models.LanguageJA, Tone: models.ToneNeutral, Keywords: []string{"a", "b"}},
		{Lang: models.LanguageEN, Tone: models.ToneFriendly, Keywords: []string{"a", "b"}},
		{Lang: models.LanguageEN, Tone: models.ToneNeutral, Keywords: []string{"b", "a"}},
		{Lang: models.LanguageEN, Tone: models.ToneNeutral, Keywords: []string{"ab"}},
	}
	for _, v := range variants {
		assert.NotEqual(t, key, GenerateCacheKey("abc", v), "%+v", v)
	}
	assert.NotEqual(t, key, GenerateCacheKey("abd", base))
}

func TestUnreachableRedisIsACacheMiss(t *testing.T) {
	s := newUnreachableStorage(t)
	opts := models.GenerationOptions{Lang: models.LanguageEN}

	_, ok := s.GetResult(context.Background(), "abc", opts)
	assert.False(t, ok)

	// must not panic or block
	s.SetResult(context.Background(), "abc", opts, &models.Result{Alt: "x"})

	_, err := s.GetJob(context.Background(), "missing")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrJobNotFound)

	status := s.HealthCheck(context.Background())
	assert.Contains(t, status["redis"], "unhealthy")
	assert.Equal(t, "disabled", status["supabase"])
}

func TestUploadsDisabled(t *testing.T) {
	s := newUnreachableStorage(t)

	assert.False(t, s.UploadsEnabled())

	_, err := s.UploadExport(context.Background(), models.ExportFile{Filename: "a.csv"})
	assert.ErrorIs(t, err, ErrUploadsDisabled)

	_, err = s.UploadExports(context.Background(), []models.ExportFile{{Filename: "a.csv"}})
	assert.ErrorIs(t, err, ErrUploadsDisabled)

	urls, err := s.UploadExports(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
