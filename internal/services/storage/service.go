package storage

import (
	"errors"
	"time"

	"github.com/phambaophuc/visionprep/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

var ErrUploadsDisabled = errors.New("export storage is not configured")

type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
	logger        *zap.Logger
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.Supabase.Enabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: cfg.Redis.CacheDuration,
		logger:        logger,
	}, nil
}

func (s *StorageService) UploadsEnabled() bool {
	return s.sbClient != nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
