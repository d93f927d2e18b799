package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-stock-ledger/internal/model"
)

// CachedGateway wraps a Gateway with a redis read-through cache so repeated
// purchase lines for the same resource do not hammer the catalog API.
type CachedGateway struct {
	next  Gateway
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedGateway(next Gateway, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedGateway {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedGateway{next: next, redis: rdb, ttl: ttl, log: log}
}

func cacheKey(source, resourceID string) string {
	return fmt.Sprintf("catalog:%s:%s", source, resourceID)
}

func (g *CachedGateway) FetchSnapshot(ctx context.Context, resourceID, source string) (*model.CatalogSnapshot, error) {
	key := cacheKey(source, resourceID)

	raw, err := g.redis.Get(ctx, key).Result()
	if err == nil {
		var snapshot model.CatalogSnapshot
		if err := json.Unmarshal([]byte(raw), &snapshot); err == nil {
			return &snapshot, nil
		}
		g.log.Warn("discarding corrupt catalog cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		g.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	snapshot, err := g.next.FetchSnapshot(ctx, resourceID, source)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := g.redis.Set(ctx, key, data, g.ttl).Err(); err != nil {
			g.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snapshot, nil
}
