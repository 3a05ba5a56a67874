// Package autosave persists in-progress form input so a reopened booking
// dialog can restore it. Entries are scoped by form session and expire.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("autosave: nothing saved")

// KV is the storage the cache writes through to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Cache[T any] struct {
	kv        KV
	namespace string
	ttl       time.Duration
}

func New[T any](kv KV, namespace string, ttl time.Duration) *Cache[T] {
	if kv == nil {
		panic("autosave: kv required")
	}
	return &Cache[T]{kv: kv, namespace: namespace, ttl: ttl}
}

func (c *Cache[T]) key(scope string) string {
	return fmt.Sprintf("autosave:%s:%s", c.namespace, scope)
}

// Save overwrites whatever was stored for scope and refreshes its TTL.
func (c *Cache[T]) Save(ctx context.Context, scope string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("autosave: encode: %w", err)
	}
	return c.kv.Set(ctx, c.key(scope), payload, c.ttl)
}

func (c *Cache[T]) Restore(ctx context.Context, scope string) (T, error) {
	var out T
	payload, ok, err := c.kv.Get(ctx, c.key(scope))
	if err != nil {
		return out, err
	}
	if !ok {
		return out, ErrNotFound
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("autosave: decode: %w", err)
	}
	return out, nil
}

func (c *Cache[T]) Discard(ctx context.Context, scope string) error {
	return c.kv.Delete(ctx, c.key(scope))
}
