package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"attendance-analyzer-go/config"
	"attendance-analyzer-go/models"
)

const (
	datasetsKey      = "datasets"        // Sorted set: dataset IDs scored by creation time (unix ms)
	datasetPrefix    = "dataset:"        // String prefix: dataset:{id} -> dataset JSON
	latestDatasetKey = "datasets:latest" // String: ID of the last saved dataset
)

// clearLatest drops the latest pointer only if it still names the deleted dataset.
var clearLatest = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisService stores datasets in Redis
type RedisService struct {
	Client *redis.Client
	TTL    time.Duration // 0 keeps datasets until deleted
	logger *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{
		Client: client,
		TTL:    ttl,
		logger: logger,
	}
}

// Helper to generate dataset key
func getDatasetKey(id string) string {
	return datasetPrefix + id
}

// SaveDataset writes the dataset, indexes it and marks it latest in one transaction
func (s *RedisService) SaveDataset(ctx context.Context, ds *models.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset ID cannot be empty")
	}
	if ds.Summary == nil {
		return fmt.Errorf("dataset %s has no summary", ds.ID)
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset %s: %w", ds.ID, err)
	}

	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, getDatasetKey(ds.ID), data, s.TTL)
	pipe.ZAdd(ctx, datasetsKey, &redis.Z{Score: float64(ds.CreatedAt.UnixMilli()), Member: ds.ID})
	pipe.Set(ctx, latestDatasetKey, ds.ID, s.TTL)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to save dataset", zap.String("dataset_id", ds.ID), zap.Error(err))
		return fmt.Errorf("failed to save dataset to Redis: %w", err)
	}
	s.logger.Info("saved dataset",
		zap.String("dataset_id", ds.ID),
		zap.Int("students", ds.Summary.TotalStudents))
	return nil
}

// GetDataset retrieves a dataset by its ID
func (s *RedisService) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	data, err := s.Client.Get(ctx, getDatasetKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to get dataset %s from Redis: %w", id, err)
	}

	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", id, err)
	}
	return &ds, nil
}

// LatestDataset retrieves the most recently saved dataset
func (s *RedisService) LatestDataset(ctx context.Context) (*models.Dataset, error) {
	id, err := s.Client.Get(ctx, latestDatasetKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDataset
		}
		return nil, fmt.Errorf("failed to get latest dataset ID from Redis: %w", err)
	}

	ds, err := s.GetDataset(ctx, id)
	if errors.Is(err, ErrDatasetNotFound) {
		return nil, ErrNoDataset
	}
	return ds, err
}

// ListDatasetIDs returns the stored dataset IDs, newest first.
// Index entries older than the TTL are pruned first.
func (s *RedisService) ListDatasetIDs(ctx context.Context) ([]string, error) {
	if s.TTL > 0 {
		cutoff := time.Now().Add(-s.TTL).UnixMilli()
		if err := s.Client.ZRemRangeByScore(ctx, datasetsKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			s.logger.Warn("failed to prune expired dataset IDs", zap.Error(err))
		}
	}

	ids, err := s.Client.ZRevRange(ctx, datasetsKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list dataset IDs from Redis: %w", err)
	}
	return ids, nil
}

// DeleteDataset removes a dataset and its index entry
func (s *RedisService) DeleteDataset(ctx context.Context, id string) error {
	pipe := s.Client.TxPipeline()
	del := pipe.Del(ctx, getDatasetKey(id))
	pipe.ZRem(ctx, datasetsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete dataset %s from Redis: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrDatasetNotFound
	}

	if err := clearLatest.Run(ctx, s.Client, []string{latestDatasetKey}, id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to clear latest dataset pointer: %w", err)
	}
	s.logger.Info("deleted dataset", zap.String("dataset_id", id))
	return nil
}

// Ping checks the Redis connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
