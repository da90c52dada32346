package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultLatestTTL bounds how long a cached latest reading is served.
const DefaultLatestTTL = 10 * time.Minute

// NewRedisClient connects and pings Redis.
func NewRedisClient(addr, password string, db int, logger *zap.SugaredLogger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Infof("Connected to Redis: %s", addr)
	return rdb, nil
}

// CachedStore fronts a Store with a Redis read-through cache of the latest
// reading per equipment. Cache failures fall back to the underlying store.
type CachedStore struct {
	Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultLatestTTL
	}
	return &CachedStore{Store: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func latestKey(equipmentID string) string {
	return fmt.Sprintf("millguard:latest:%s", equipmentID)
}

func (c *CachedStore) GetLatest(ctx context.Context, equipmentID string) (models.SensorReading, bool, error) {
	data, err := c.rdb.Get(ctx, latestKey(equipmentID)).Bytes()
	if err == nil {
		var r models.SensorReading
		if err := json.Unmarshal(data, &r); err == nil {
			return r, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warnf("Redis latest lookup failed for %s: %v", equipmentID, err)
	}

	r, ok, err := c.Store.GetLatest(ctx, equipmentID)
	if err != nil || !ok {
		return r, ok, err
	}
	c.remember(ctx, r)
	return r, true, nil
}

// InsertReadings writes through, then refreshes the cached latest reading of
// every equipment in the batch from the store, since a batch may be older than
// what is already stored.
func (c *CachedStore) InsertReadings(ctx context.Context, readings []models.SensorReading) error {
	if err := c.Store.InsertReadings(ctx, readings); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, r := range readings {
		if seen[r.EquipmentID] {
			continue
		}
		seen[r.EquipmentID] = true

		latest, ok, err := c.Store.GetLatest(ctx, r.EquipmentID)
		if err != nil {
			c.logger.Warnf("Latest reading lookup failed for %s: %v", r.EquipmentID, err)
			c.forget(ctx, r.EquipmentID)
			continue
		}
		if ok {
			c.remember(ctx, latest)
		}
	}
	return nil
}

func (c *CachedStore) Reset(ctx context.Context) error {
	if err := c.Store.Reset(ctx); err != nil {
		return err
	}

	keys, err := c.rdb.Keys(ctx, latestKey("*")).Result()
	if err != nil {
		return fmt.Errorf("list cached readings: %w", err)
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("clear cached readings: %w", err)
		}
	}
	return nil
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return c.Store.Ping(ctx)
}

func (c *CachedStore) Close() error {
	redisErr := c.rdb.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return redisErr
}

// maxCacheAttempts bounds retries of a contended cache update.
const maxCacheAttempts = 3

// remember caches r unless a reading at least as recent is already cached.
// The comparison and the write run as one WATCH transaction, so a slow reader
// can never overwrite a newer entry with the reading it fetched earlier.
func (c *CachedStore) remember(ctx context.Context, r models.SensorReading) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	key := latestKey(r.EquipmentID)

	update := func(tx *redis.Tx) error {
		cached, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var current models.SensorReading
			if json.Unmarshal(cached, &current) == nil && !current.Timestamp.Before(r.Timestamp) {
				return nil
			}
		case !errors.Is(err, redis.Nil):
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}

	for range maxCacheAttempts {
		if err = c.rdb.Watch(ctx, update, key); !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		c.logger.Warnf("Redis cache write failed for %s: %v", r.EquipmentID, err)
		c.forget(ctx, r.EquipmentID)
	}
}

// forget drops the cached entry so the next lookup goes to the store.
func (c *CachedStore) forget(ctx context.Context, equipmentID string) {
	if err := c.rdb.Del(ctx, latestKey(equipmentID)).Err(); err != nil {
		c.logger.Warnf("Redis invalidate failed for %s: %v", equipmentID, err)
	}
}
