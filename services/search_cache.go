package services

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/plumekit/plume/utils"
)

// ResultCache stores the identifier list computed for a normalized search
// signature. Entries are advisory: a stale hit returns slightly outdated
// identifiers bounded by the TTL, which callers tolerate. Any post mutation
// clears the whole cache; the key scheme cannot cheaply target the affected
// result sets.
type ResultCache interface {
	Get(key string) ([]uint, bool)
	Put(key string, ids []uint)
	Clear()
}

type cacheEntry struct {
	ids       []uint
	expiresAt time.Time
}

// LRUResultCache is the in-process backend: a bounded LRU with lazy per-entry
// expiry. Safe for concurrent use.
type LRUResultCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
}

// NewLRUResultCache builds a cache holding at most capacity entries, each
// valid for ttl after insertion.
func NewLRUResultCache(capacity int, ttl time.Duration) (*LRUResultCache, error) {
	entries, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUResultCache{entries: entries, ttl: ttl}, nil
}

// Get returns the cached identifier list, treating expired entries as absent.
func (c *LRUResultCache) Get(key string) ([]uint, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.ids, true
}

// Put stores ids under key. An empty list is a valid cached result.
func (c *LRUResultCache) Put(key string, ids []uint) {
	c.entries.Add(key, cacheEntry{ids: ids, expiresAt: time.Now().Add(c.ttl)})
}

// Clear drops every entry.
func (c *LRUResultCache) Clear() {
	c.entries.Purge()
}

// RedisResultCache is the external backend, sharing cached identifier lists
// between processes. All operations are best-effort: a Redis failure degrades
// to a cache miss, never to a request failure.
type RedisResultCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisResultCache builds a Redis-backed cache. Keys live under prefix so
// Clear can target them without touching unrelated data.
func NewRedisResultCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisResultCache) Get(key string) ([]uint, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []uint
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *RedisResultCache) Put(key string, ids []uint) {
	b, err := json.Marshal(ids)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.rdb.Set(ctx, c.prefix+key, b, c.ttl).Err(); err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("search cache set failed key=%s err=%v", key, err)
	}
}

// Clear deletes every key under the cache prefix using SCAN, batching deletes
// through a pipeline.
func (c *RedisResultCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bound rounds so a huge keyspace cannot stall the write path
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+"*", 1000).Result()
		if err != nil {
			return
		}
		cursor = next
		if len(keys) > 0 {
			pipe := c.rdb.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
