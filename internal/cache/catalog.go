package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fadebook/fadebook/internal/domain/catalog"
	"github.com/fadebook/fadebook/internal/observability"
)

const servicesKey = "catalog:services"

// Catalog is a best-effort read cache for the public services list. Redis
// being down never fails a request; every error path is just a miss.
type Catalog struct {
	rdb  *redis.Client
	ttl  time.Duration
	prom *observability.Prom
}

func NewCatalog(rdb *redis.Client, ttl time.Duration, prom *observability.Prom) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Catalog{rdb: rdb, ttl: ttl, prom: prom}
}

func (c *Catalog) GetServices(ctx context.Context) ([]catalog.Service, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, servicesKey).Bytes()

	if err != nil {
		c.miss()
		return nil, false
	}

	var items []catalog.Service

	if err := json.Unmarshal(raw, &items); err != nil {
		// stale or corrupt payload; drop it
		c.rdb.Del(ctx, servicesKey)
		c.miss()
		return nil, false
	}

	c.hit()
	return items, true
}

func (c *Catalog) SetServices(ctx context.Context, items []catalog.Service) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(items)

	if err != nil {
		return
	}

	c.rdb.Set(ctx, servicesKey, raw, c.ttl)
}

// Invalidate drops the cached list; called after any catalog write.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}

	c.rdb.Del(ctx, servicesKey)
}

func (c *Catalog) hit() {
	if c.prom != nil {
		c.prom.CacheHits.Inc()
	}
}

func (c *Catalog) miss() {
	if c.prom != nil {
		c.prom.CacheMisses.Inc()
	}
}
