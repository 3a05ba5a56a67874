package memory

import (
	"context"
	"sync"
	"time"

	"elaview/internal/app/autosave"
)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// KV is a TTL-aware byte store used for auto-saved form progress.
type KV struct {
	mu    sync.Mutex
	items map[string]kvEntry
	now   func() time.Time
}

func NewKV(now func() time.Time) *KV {
	if now == nil {
		now = time.Now
	}
	return &KV{items: make(map[string]kvEntry), now: now}
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.items[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !k.now().Before(e.expiresAt) {
		delete(k.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores value; a non-positive ttl keeps it until deleted.
func (k *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = k.now().Add(ttl)
	}
	k.items[key] = e
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
	return nil
}

var _ autosave.KV = (*KV)(nil)
