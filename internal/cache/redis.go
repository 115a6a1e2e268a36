package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardiwinata/futsal-booking/config"
	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	fieldsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, fieldsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		fieldsTTL: fieldsTTL,
	}
}

func (c *RedisCache) GetFields(ctx context.Context) ([]domain.Field, error) {
	data, err := c.client.Get(ctx, fieldsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var fields []domain.Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (c *RedisCache) SetFields(ctx context.Context, fields []domain.Field) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fieldsKey(), payload, c.fieldsTTL).Err()
}

// AcquireSlotLock holds a field time slot while a reservation request is in
// flight, so two customers cannot race the same slot.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, fieldID int64, date, startTime string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(fieldID, date, startTime), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, fieldID int64, date, startTime string) error {
	return c.client.Del(ctx, slotLockKey(fieldID, date, startTime)).Err()
}

func fieldsKey() string {
	return "cache:fields"
}

func slotLockKey(fieldID int64, date, startTime string) string {
	return fmt.Sprintf("lock:field:%d:%s:%s", fieldID, date, startTime)
}
