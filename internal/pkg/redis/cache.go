package redis

import (
	"Pulseboard/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// AggCache 聚合结果缓存。键带有代数，写入后递增代数即可整体失效
type AggCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAggCache(rdb *redis.Client, ttl time.Duration) *AggCache {
	return &AggCache{rdb: rdb, ttl: ttl}
}

// CacheKey 生成带代数的缓存键
func CacheKey(generation int64, query string) string {
	return fmt.Sprintf("%sv%d:%s", consts.AggCacheKey, generation, query)
}

func (s *AggCache) generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, consts.AggGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get 返回读取时的代数，命中时解码到 dest 并返回 true。
// 未命中时调用方应把同一代数传给 Set
func (s *AggCache) Get(ctx context.Context, query string, dest any) (int64, bool, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	raw, err := s.rdb.Get(ctx, CacheKey(gen, query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gen, false, nil
		}
		return gen, false, err
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// Set 写入 gen 代的键。聚合期间若已失效，结果落在旧代数下不会再被读到
func (s *AggCache) Set(ctx context.Context, gen int64, query string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, CacheKey(gen, query), raw, s.ttl).Err()
}

// Invalidate 递增代数，旧键随 TTL 过期
func (s *AggCache) Invalidate(ctx context.Context) error {
	return s.rdb.Incr(ctx, consts.AggGenerationKey).Err()
}
