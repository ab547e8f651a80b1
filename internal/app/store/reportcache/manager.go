// internal/app/store/reportcache/manager.go
package reportcache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// RefreshFunc repopulates the cache; the Manager invokes it on a miss.
type RefreshFunc func(ctx context.Context) error

// Manager wraps a Store with lazy refresh-on-miss: a read of a key that has
// no blob triggers one refresh and retries the read.
type Manager struct {
	store   Store
	refresh RefreshFunc
	log     *zap.Logger
}

// NewManager wires a store to its refresh callback.
func NewManager(store Store, refresh RefreshFunc, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, refresh: refresh, log: logger}
}

// Store exposes the wrapped store for writers (the refresh pipeline).
func (m *Manager) Store() Store { return m.store }

// Get returns the blob for key, refreshing once on a miss. A miss that
// survives the refresh returns found=false with no error.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := m.store.Get(ctx, key)
	if err != nil || found {
		return data, found, err
	}
	if m.refresh == nil {
		return nil, false, nil
	}

	m.log.Info("report cache miss, refreshing", zap.String("key", key))
	if err := m.refresh(ctx); err != nil {
		return nil, false, fmt.Errorf("refresh for %q: %w", key, err)
	}
	return m.store.Get(ctx, key)
}

// GetJSON decodes the blob for key into out, refreshing on a miss.
func (m *Manager) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	data, found, err := m.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return store.Put(ctx, key, data)
}
