// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package settings persists the remembered display configuration of a grid:
// column order, visibility, widths, page size, compact mode. The engine only
// talks through the Store contract and never assumes a storage medium; the
// in-memory implementation here serves tests and single-process embeddings.
package settings

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/tools/safejson"
)

// Store is the opaque key-value contract the engine persists through.
type Store interface {
	// Get returns the stored value for key. found is false for a missing
	// key; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a thread-safe in-memory Store. Values are copied on every
// read and write so callers cannot mutate stored state through the slice.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// DisplaySettings is the remembered configuration of one grid identity.
type DisplaySettings struct {
	ColumnOrder    []string       `json:"columnOrder,omitempty"`
	VisibleColumns []string       `json:"visibleColumns,omitempty"`
	ColumnWidths   map[string]int `json:"columnWidths,omitempty"`
	PageSize       int            `json:"pageSize,omitempty"`
	CompactMode    bool           `json:"compactMode,omitempty"`
}

// Manager reads and writes typed DisplaySettings through a Store, one key
// per grid identity.
type Manager struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewManager creates a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: logger.For(logger.ComponentSettings),
	}
}

// Load returns the remembered settings for a grid identity. A missing or
// unparsable entry yields defaults; stale garbage in the store must never
// keep a grid from loading.
func (m *Manager) Load(ctx context.Context, gridID string) (DisplaySettings, error) {
	defaults := DisplaySettings{PageSize: constants.DefaultPageSize}

	raw, found, err := m.store.Get(ctx, gridID)
	if err != nil {
		return defaults, err
	}
	if !found {
		return defaults, nil
	}

	var stored DisplaySettings
	if err := safejson.Unmarshal(raw, &stored); err != nil {
		m.logger.Warnf("Discarding unparsable settings for %q: %v", gridID, err)
		return defaults, nil
	}
	if stored.PageSize <= 0 {
		stored.PageSize = constants.DefaultPageSize
	}
	return stored, nil
}

// Save persists the settings for a grid identity.
func (m *Manager) Save(ctx context.Context, gridID string, s DisplaySettings) error {
	raw, err := safejson.Marshal(s)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, gridID, raw)
}

// Reset drops the remembered settings for a grid identity.
func (m *Manager) Reset(ctx context.Context, gridID string) error {
	return m.store.Delete(ctx, gridID)
}
