// Package credentials provides read-only lookup of per-service API keys.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ProxyModeSentinel is the stored value meaning "always use the shared proxy"
const ProxyModeSentinel = "DEFAULT_PROXY_MODE"

// Storage key names, one per service
const (
	KeyEtherscan  = "ETHERSCAN_API_KEY"
	KeyCoingecko  = "COINGECKO_API_KEY"
	KeySafe       = "SAFE_API_KEY"
	KeyBasescan   = "BASESCAN_API_KEY"
	KeyGnosisscan = "GNOSIS_API_KEY"
	KeyFirefly    = "FIRE_FLY_API_KEY"
	KeyNeynar     = "NEYNAR_API_KEY"
	KeyDefillama  = "DEFILLAMA_API_KEY"
	KeyDuneSim    = "DUNE_SIM_API_KEY"
	KeyGnosisPay  = "GNOSIS_PAY_ACCESS"
)

// Store is a read-only key to string lookup
type Store interface {
	// Get returns the stored value and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)
}

// MapStore is an in-memory Store
type MapStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapStore creates a MapStore seeded with values
func NewMapStore(values map[string]string) *MapStore {
	m := &MapStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get implements Store
func (m *MapStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set stores a value; used when seeding from a CLI flag or in tests
func (m *MapStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// EnvStore reads credentials from environment variables, optionally prefixed
type EnvStore struct {
	Prefix string
}

// Get implements Store
func (e EnvStore) Get(_ context.Context, key string) (string, bool, error) {
	v := strings.TrimSpace(os.Getenv(e.Prefix + key))
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// RedisStore reads credentials from a Redis hash or plain keys under a prefix
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a Redis client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential %s: %w", key, err)
	}
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Chain tries stores in order and returns the first hit
type Chain []Store

// Get implements Store
func (c Chain) Get(ctx context.Context, key string) (string, bool, error) {
	for _, s := range c {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}
