package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resultCachePrefix = "alt_cache:"

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// GenerateCacheKey derives the cache key for an image fingerprint described
// with the given options. Keyword order matters since it shapes the prompt.
func GenerateCacheKey(sha string, opts models.GenerationOptions) string {
	hash := sha256.New()
	hash.Write([]byte(sha))
	hash.Write([]byte("|lang_" + string(opts.Lang)))
	hash.Write([]byte("|tone_" + string(opts.Tone)))
	hash.Write([]byte("|keywords_" + strings.Join(opts.Keywords, "\x1f")))

	return fmt.Sprintf("%s%x", resultCachePrefix, hash.Sum(nil))
}

func (s *StorageService) GetResult(ctx context.Context, sha string, opts models.GenerationOptions) (*models.Result, bool) {
	data, err := s.GetFromCache(ctx, GenerateCacheKey(sha, opts))
	if err != nil {
		s.logger.Warn("Failed to read result cache", zap.String("sha256", sha), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("Failed to unmarshal cached result", zap.String("sha256", sha), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (s *StorageService) SetResult(ctx context.Context, sha string, opts models.GenerationOptions, result *models.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("Failed to marshal result", zap.String("sha256", sha), zap.Error(err))
		return
	}
	if err := s.SetCache(ctx, GenerateCacheKey(sha, opts), data); err != nil {
		s.logger.Warn("Failed to cache result", zap.String("sha256", sha), zap.Error(err))
	}
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	var cached int64
	iter := s.redisClient.Scan(ctx, 0, resultCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		cached++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys":        dbSize,
		"cached_results": cached,
	}

	return stats, nil
}
