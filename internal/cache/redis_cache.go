package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tokomaju/backend/internal/domain"
)

type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(addr string, password string, db int) *RedisReportStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisReportStore) Close() error {
	return s.client.Close()
}

func (s *RedisReportStore) Get(ctx context.Context, id string) (*domain.GeneratedReport, bool, error) {
	val, err := s.client.Get(ctx, reportKey(id)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report domain.GeneratedReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (s *RedisReportStore) Set(ctx context.Context, report *domain.GeneratedReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, reportKey(report.ID), payload, ttl).Err()
}

func reportKey(id string) string {
	return "report:" + id
}
