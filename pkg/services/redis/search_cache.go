package redisservice

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SearchCacheKey = Prefix + "search_cache:%s"
)

// CacheSearchResult stores a raw search response payload keyed by query.
// The iTunes API rate limits aggressively, so repeated lookups are served
// from here instead.
func (s *RedisService) CacheSearchResult(ctx context.Context, query string, payload []byte, ttl time.Duration) error {
	key := fmt.Sprintf(SearchCacheKey, hashQuery(query))
	return s.rc.Set(ctx, key, payload, ttl).Err()
}

// GetCachedSearchResult returns the cached payload for a query, or nil when absent.
func (s *RedisService) GetCachedSearchResult(ctx context.Context, query string) ([]byte, error) {
	key := fmt.Sprintf(SearchCacheKey, hashQuery(query))
	result, err := s.rc.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return result, nil
}

func hashQuery(query string) string {
	h := md5.Sum([]byte(query))
	return hex.EncodeToString(h[:])
}
