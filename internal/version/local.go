package version

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
)

// LocalStore is a key-value store of strings.
type LocalStore interface {
	// Get returns the value and false when the key is missing.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete succeeds when the key is missing.
	Delete(ctx context.Context, key string) error
}

// NewLocalStoreFromConfig creates the local store declared in the configuration.
func NewLocalStoreFromConfig(cfg *config.Config) (LocalStore, error) {
	versions := cfg.ConfigFile.Versions
	switch versions.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		dir := versions.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.RootDirectory, config.ConfigDir, dir)
		}
		return NewFileStore(dir)
	case "redis":
		return NewRedisStore(versions.RedisAddr)
	}
	return nil, fmt.Errorf("unknown versions store %q", versions.Store)
}

/*
 * Memory
 */

// MemoryStore keeps values in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

/*
 * File
 */

// FileStore saves every key in its own JSON file.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create versions directory %q: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.Dir, url.PathEscape(key)+".json")
}

func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	// Write then rename to never leave a truncated file
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(key))
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

/*
 * Redis
 */

// RedisStore saves values as Redis strings.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore connects to the Redis server at the given address.
func NewRedisStore(addr string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("missing versions.redis_addr")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(client), nil
}

func NewRedisStoreFromClient(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Close closes the connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
