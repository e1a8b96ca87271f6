// Package cache implements the process wide sitemap cache on top of ttlcache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

type (
	// Cache keyed values with absolute or sliding expiration. Entries can be
	// tagged with other keys and are evicted together with them.
	Cache struct {
		l        *zap.Logger
		items    *ttlcache.Cache[string, entry]
		tags     map[string]map[string]struct{}
		tagsLock sync.Mutex
		capacity uint64
	}
	Option func(*Cache)
	entry  struct {
		value   any
		sliding bool
		tags    []string
	}
)

// ensure interface
var _ sitemap.Cache = (*Cache)(nil)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) *Cache {
	inst := &Cache{
		l:    l.Named("cache"),
		tags: map[string]map[string]struct{}{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	ttlOpts := []ttlcache.Option[string, entry]{
		ttlcache.WithDisableTouchOnHit[string, entry](),
	}
	if inst.capacity > 0 {
		ttlOpts = append(ttlOpts, ttlcache.WithCapacity[string, entry](inst.capacity))
	}
	inst.items = ttlcache.New[string, entry](ttlOpts...)
	inst.items.OnEviction(inst.onEviction)

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithCapacity limits the number of entries, least recently used ones are evicted first
func WithCapacity(v uint64) Option {
	return func(o *Cache) {
		o.capacity = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Start runs the expiration loop until the context is done
func (c *Cache) Start(ctx context.Context) error {
	go c.items.Start()
	<-ctx.Done()
	c.items.Stop()
	return nil
}

func (c *Cache) Get(key string) (any, bool) {
	item := c.items.Get(key)
	if item == nil {
		metrics.CacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheCounter.WithLabelValues("hit").Inc()
	if item.Value().sliding {
		c.items.Touch(key)
	}
	return item.Value().value, true
}

// Insert stores value under key, entries without a TTL never expire
func (c *Cache) Insert(key string, value any, policy sitemap.Policy) {
	ttl := policy.TTL
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.Set(key, entry{value: value, sliding: policy.Sliding, tags: policy.Tags}, ttl)

	c.tagsLock.Lock()
	defer c.tagsLock.Unlock()
	for _, tag := range policy.Tags {
		if _, ok := c.tags[tag]; !ok {
			c.tags[tag] = map[string]struct{}{}
		}
		c.tags[tag][key] = struct{}{}
	}
}

// Remove deletes key and every entry tagged with it
func (c *Cache) Remove(key string) {
	c.items.Delete(key)

	c.tagsLock.Lock()
	dependents := c.tags[key]
	delete(c.tags, key)
	c.tagsLock.Unlock()

	for dependent := range dependents {
		c.items.Delete(dependent)
	}
	if len(dependents) > 0 {
		c.l.Debug("evicted tagged entries", zap.String("tag", key), zap.Int("count", len(dependents)))
	}
}

// TTL remaining lifetime of an entry, zero if it never expires
func (c *Cache) TTL(key string) (time.Duration, bool) {
	item := c.items.Get(key, ttlcache.WithDisableTouchOnHit[string, entry]())
	if item == nil {
		return 0, false
	}
	if item.ExpiresAt().IsZero() {
		return 0, true
	}
	return time.Until(item.ExpiresAt()), true
}

func (c *Cache) Len() int {
	return c.items.Len()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Cache) onEviction(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, entry]) {
	// reinserted in the meantime
	if c.items.Has(item.Key()) {
		return
	}
	c.tagsLock.Lock()
	defer c.tagsLock.Unlock()
	for _, tag := range item.Value().tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, item.Key())
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}
