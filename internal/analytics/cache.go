package analytics

import (
	"encoding/json"
	"time"

	"health-concierge/backend/pkg/cache"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/shared/redis"
)

// StatsCache caches computed specialist stats between requests
type StatsCache interface {
	GetStats(key string) ([]SpecialistStat, bool)
	SetStats(key string, stats []SpecialistStat)
	Invalidate(key string)
}

type nopStatsCache struct{}

func (nopStatsCache) GetStats(string) ([]SpecialistStat, bool) { return nil, false }
func (nopStatsCache) SetStats(string, []SpecialistStat)        {}
func (nopStatsCache) Invalidate(string)                        {}

// MemoryStatsCache backs StatsCache with the in-process TTL cache
type MemoryStatsCache struct {
	cache *cache.Cache
}

// NewMemoryStatsCache creates an in-memory stats cache
func NewMemoryStatsCache(c *cache.Cache) *MemoryStatsCache {
	return &MemoryStatsCache{cache: c}
}

func (m *MemoryStatsCache) GetStats(key string) ([]SpecialistStat, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	stats, ok := v.([]SpecialistStat)
	return stats, ok
}

func (m *MemoryStatsCache) SetStats(key string, stats []SpecialistStat) {
	m.cache.Set(key, stats)
}

func (m *MemoryStatsCache) Invalidate(key string) {
	m.cache.Delete(key)
}

// RedisStatsCache backs StatsCache with redis so multiple instances share
// the computed stats.
type RedisStatsCache struct {
	client *redis.RedisClient
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStatsCache creates a redis-backed stats cache
func NewRedisStatsCache(client *redis.RedisClient, ttl time.Duration, log *logger.Logger) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl, log: log}
}

func (r *RedisStatsCache) GetStats(key string) ([]SpecialistStat, bool) {
	raw, err := r.client.Get(key)
	if err != nil {
		return nil, false
	}

	var stats []SpecialistStat
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		r.log.Warn("Dropping corrupt cached stats", "key", key, "error", err.Error())
		_ = r.client.Del(key)
		return nil, false
	}
	return stats, true
}

func (r *RedisStatsCache) SetStats(key string, stats []SpecialistStat) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := r.client.Set(key, string(raw), r.ttl); err != nil {
		r.log.Warn("Failed to cache stats in redis", "key", key, "error", err.Error())
	}
}

func (r *RedisStatsCache) Invalidate(key string) {
	_ = r.client.Del(key)
}
