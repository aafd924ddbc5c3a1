// Package schema provides the textual description of the analytical store
// that grounds SQL generation. The description is expensive to build, so it
// is cached and refreshed on a TTL.
package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/consulta/consulta/internal/observability"
)

type Provider interface {
	Describe(ctx context.Context) (string, error)
}

// Cache serves a schema description with single-writer refresh semantics.
// Readers never block on a refresh: while one is in flight they keep getting
// the previous value, and a failed refresh leaves the old value untouched.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	value     string
	fetchedAt time.Time
}

func NewCache(provider Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Description returns the cached schema text, refreshing it when expired.
// The first call fetches synchronously; later calls past the TTL refresh in
// the background and return the stale value immediately.
func (c *Cache) Description(ctx context.Context) (string, error) {
	if c.provider == nil {
		return "", fmt.Errorf("schema provider is required")
	}

	c.mu.RLock()
	value := c.value
	fetchedAt := c.fetchedAt
	c.mu.RUnlock()

	if fetchedAt.IsZero() {
		result, err, _ := c.group.Do("schema", func() (any, error) {
			return c.refresh(ctx)
		})
		if err != nil {
			return "", err
		}
		return result.(string), nil
	}

	if c.now().Sub(fetchedAt) >= c.ttl {
		go func() {
			_, _, _ = c.group.Do("schema", func() (any, error) {
				refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return c.refresh(refreshCtx)
			})
		}()
	}
	return value, nil
}

// Invalidate drops the cached value so the next read fetches fresh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.value = ""
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	description, err := c.provider.Describe(ctx)
	if err != nil {
		observability.ObserveSchemaRefresh("error")
		return "", fmt.Errorf("describe schema: %w", err)
	}
	c.mu.Lock()
	c.value = description
	c.fetchedAt = c.now()
	c.mu.Unlock()
	observability.ObserveSchemaRefresh("ok")
	return description, nil
}
