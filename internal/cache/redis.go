package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minhduc28/airticket/config"
	"github.com/minhduc28/airticket/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// HoldSeats takes short-lived SetNX holds on the requested seats. It is only
// a fast-fail filter in front of the booking transaction; the database unique
// index is the authority. Returns the seat ids already held elsewhere; when
// any are contested, holds taken by this call are released again.
func (c *RedisCache) HoldSeats(ctx context.Context, seatIDs []int64, ttl time.Duration) ([]int64, error) {
	var acquired, contested []int64
	for _, id := range seatIDs {
		ok, err := c.client.SetNX(ctx, seatHoldKey(id), "held", ttl).Result()
		if err != nil {
			_ = c.ReleaseSeats(ctx, acquired)
			return nil, err
		}
		if !ok {
			contested = append(contested, id)
			continue
		}
		acquired = append(acquired, id)
	}
	if len(contested) > 0 {
		_ = c.ReleaseSeats(ctx, acquired)
	}
	return contested, nil
}

func (c *RedisCache) ReleaseSeats(ctx context.Context, seatIDs []int64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		keys = append(keys, seatHoldKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func seatHoldKey(seatID int64) string {
	return fmt.Sprintf("hold:seat:%d", seatID)
}
