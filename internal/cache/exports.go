package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultExportTTL = 24 * time.Hour
	keyPrefix        = "tmdb:export:"
)

// ExportCache keeps parsed export id sets in Redis so a prune pass scheduled
// right after a missing-ids pass does not download the same file twice.
// Cache failures degrade to a re-download; they never fail a job.
type ExportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis per the cache configuration. Returns an error when
// the server is unreachable so the caller can decide to run uncached.
func New(cfg config.CacheConfig) (*ExportCache, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.ExportTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = defaultExportTTL
	}

	return &ExportCache{client: client, ttl: ttl}, nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// GetIDs returns the cached id set for an export file name.
func (c *ExportCache) GetIDs(ctx context.Context, name string) ([]int64, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("export", name).Msg("redis get failed")
		return nil, false
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Warn().Err(err).Str("export", name).Msg("corrupt cached export id set")
		return nil, false
	}
	return ids, true
}

// PutIDs stores the id set for an export file name with the configured TTL.
func (c *ExportCache) PutIDs(ctx context.Context, name string, ids []int64) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+name, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("export", name).Msg("redis set failed")
	}
}

// Close releases the Redis connection.
func (c *ExportCache) Close() error {
	return c.client.Close()
}
