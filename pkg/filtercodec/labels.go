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

package filtercodec

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// LabelResolver looks up the display label of a record id. Backed by the API
// client in production.
type LabelResolver interface {
	ResolveLabel(ctx context.Context, typeID, recordID string) (string, error)
}

// LabelCache fills ResolvedLabel on identifier-valued conditions. Labels are
// display sugar: a lookup failure leaves the raw "@<id>" visible and the
// filter fully functional, so failures are logged and swallowed here.
type LabelCache struct {
	resolver LabelResolver
	cache    *expiremap.ExpireMap[uint64, string]
	logger   *zap.SugaredLogger
}

// NewLabelCache creates a LabelCache with the default TTL.
func NewLabelCache(resolver LabelResolver) *LabelCache {
	return &LabelCache{
		resolver: resolver,
		cache:    expiremap.NewEx[uint64, string](constants.DefaultLabelCacheTTL, constants.DefaultLabelCacheTTL),
		logger:   logger.For(logger.ComponentFilterCodec),
	}
}

// cacheKey hashes the column id and raw value together; the column matters
// because the same numeric id can reference different types on different
// columns.
func cacheKey(columnID, rawValue string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(columnID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(rawValue)
	return h.Sum64()
}

// ResolveAll fills ResolvedLabel for every active identifier condition that
// does not have one yet, running the lookups concurrently. It mutates state
// in place and never re-enters decoding: resolution is strictly a
// display-side effect.
func (lc *LabelCache) ResolveAll(ctx context.Context, state FilterState, columns []models.ColumnDescriptor) error {
	g, ctx := errgroup.WithContext(ctx)

	type result struct {
		columnID string
		label    string
	}
	results := make(chan result, len(state))

	for _, col := range columns {
		cond, ok := state[col.ID]
		if !ok || !cond.Active() || cond.ResolvedLabel != "" {
			continue
		}
		recordID, isIdent := cond.IdentifierID()
		if !isIdent {
			continue
		}

		columnID := col.ID
		typeID := col.ReferencedTypeID
		key := cacheKey(columnID, cond.RawValue)

		if cached, hit := lc.cache.Load(key); hit {
			results <- result{columnID: columnID, label: *cached}
			continue
		}

		g.Go(func() error {
			label, err := lc.resolver.ResolveLabel(ctx, typeID, recordID)
			if err != nil {
				lc.logger.Warnf("Label lookup for column %s id %s failed: %v", columnID, recordID, err)
				return nil
			}
			lc.cache.Set(key, label)
			results <- result{columnID: columnID, label: label}
			return nil
		})
	}

	err := g.Wait()
	close(results)

	for r := range results {
		cond := state[r.columnID]
		// The user may have edited the filter while the lookup ran; a label
		// only sticks when the condition is still identifier-valued.
		if _, stillIdent := cond.IdentifierID(); stillIdent {
			cond.ResolvedLabel = r.label
			state[r.columnID] = cond
		}
	}

	return err
}
