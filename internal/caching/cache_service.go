package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Tour caching
	GetTour(ctx context.Context, tourID uuid.UUID) (*models.Tour, error)
	SetTour(ctx context.Context, tour *models.Tour, ttl time.Duration) error
	DeleteTour(ctx context.Context, tourID uuid.UUID) error
	InvalidateTours(ctx context.Context) error

	// Generic string operations. Also back the webhook dedup markers.
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
		parsedAddr = hostPort
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", err, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func tourKey(tourID uuid.UUID) string {
	return fmt.Sprintf("tourbase:tour:%s", tourID.String())
}

func (r *redisCacheService) GetTour(ctx context.Context, tourID uuid.UUID) (*models.Tour, error) {
	data, err := r.client.Get(ctx, tourKey(tourID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tour models.Tour
	if err := json.Unmarshal(data, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *redisCacheService) SetTour(ctx context.Context, tour *models.Tour, ttl time.Duration) error {
	data, err := json.Marshal(tour)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tourKey(tour.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteTour(ctx context.Context, tourID uuid.UUID) error {
	return r.client.Del(ctx, tourKey(tourID)).Err()
}

func (r *redisCacheService) InvalidateTours(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "tourbase:tour:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// IsRateLimited implements a fixed-window counter per key.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rateKey := fmt.Sprintf("tourbase:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, rateKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count > int64(limit), nil
}
