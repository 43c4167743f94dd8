package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/beehiiv-forecast/internal/config"
	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

// ErrCacheMiss is returned when no snapshot has been cached yet
var ErrCacheMiss = errors.New("snapshot cache miss")

// CachedSnapshot is the last successful run plus when it was fetched
type CachedSnapshot struct {
	Snapshot   *forecast.Snapshot `json:"snapshot"`
	Report     string             `json:"report"`
	FetchedAt  time.Time          `json:"fetched_at"`
	DurationMs int64              `json:"duration_ms"`
}

// Age returns how long ago the snapshot was fetched
func (c *CachedSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(c.FetchedAt)
}

// SnapshotCache stores the most recent snapshot
type SnapshotCache interface {
	Load(ctx context.Context) (*CachedSnapshot, error)
	Store(ctx context.Context, entry *CachedSnapshot) error
}

// NewCache creates the cache selected by cfg.Type. A redis cache needs rdb.
func NewCache(cfg config.CacheConfig, rdb *redis.Client) (SnapshotCache, error) {
	switch cfg.Type {
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis cache requires a redis client")
		}
		return NewRedisCache(rdb, cfg.Key), nil
	case "file", "":
		return NewFileCache(cfg.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// FileCache keeps the snapshot in a JSON file
type FileCache struct {
	path string
}

// NewFileCache creates a cache backed by the file at path
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Load reads the cached snapshot, or returns ErrCacheMiss when the file does not exist
func (c *FileCache) Load(ctx context.Context) (*CachedSnapshot, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var entry CachedSnapshot
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache file: %w", err)
	}
	return &entry, nil
}

// Store writes to a temp file and renames it over the cache so readers never
// see a partial file.
func (c *FileCache) Store(ctx context.Context, entry *CachedSnapshot) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// RedisCache keeps the snapshot under a single redis key so every server
// replica shares it
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache creates a cache stored under key
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

// Load reads the cached snapshot, or returns ErrCacheMiss when the key is unset
func (c *RedisCache) Load(ctx context.Context) (*CachedSnapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache key %s: %w", c.key, err)
	}

	var entry CachedSnapshot
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache key %s: %w", c.key, err)
	}
	return &entry, nil
}

// Store writes entry under the key with no expiry
func (c *RedisCache) Store(ctx context.Context, entry *CachedSnapshot) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", c.key, err)
	}
	return nil
}
