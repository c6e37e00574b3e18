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

// Package grid is the engine's controller: it owns the accumulated page,
// the filter, sort and group state, pagination, remembered settings and the
// live edit session, and exposes the callback surface the view layer drives.
package grid

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/client"
	"github.com/united-manufacturing-hub/recordgrid/pkg/config"
	"github.com/united-manufacturing-hub/recordgrid/pkg/editsession"
	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/grouping"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/metrics"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/pagination"
	"github.com/united-manufacturing-hub/recordgrid/pkg/reconcile"
	"github.com/united-manufacturing-hub/recordgrid/pkg/resolve"
	"github.com/united-manufacturing-hub/recordgrid/pkg/settings"
	"github.com/united-manufacturing-hub/recordgrid/pkg/sharetoken"
)

// Grid is one embedded data grid over one record type.
//
// Methods are event-driven and expected to be serialized by the embedding
// view loop, per the engine's concurrency contract. The only internal
// concurrency is the filter debounce timer and whatever goroutines the
// embedder uses to overlap loads; a generation counter discards the results
// of superseded loads on arrival.
type Grid struct {
	cfg    config.Config
	gridID string
	logger *zap.SugaredLogger

	client      *client.Client
	normalizer  *reconcile.Normalizer
	resolver    *resolve.Resolver
	labelCache  *filtercodec.LabelCache
	sessions    *editsession.Manager
	settingsMgr *settings.Manager

	typeID   string
	parentID string

	mu           sync.Mutex
	page         *models.NormalizedPage
	filters      filtercodec.FilterState
	sort         models.SortSpec
	groupColumns []string
	groupPlan    grouping.Result
	display      settings.DisplaySettings

	// expectTagged is set once a load for this type came back with record
	// ids, so an empty-array refetch (a filter matching nothing) classifies
	// as an empty tagged page instead of failing as ambiguous.
	expectTagged bool

	pager      *pagination.Controller
	generation atomic.Uint64

	// snapshot is a deep copy of the page taken before an edit goes live,
	// so a cancel restores the display exactly.
	snapshot *models.NormalizedPage

	// suppressSettings is set when the view state came in through a share
	// token; the remembered settings stay untouched for this page load.
	suppressSettings bool

	debounceTimer *time.Timer

	// OnRefresh, when set, fires after the display state changed and the
	// view should re-render.
	OnRefresh func()
}

// NewGrid wires a Grid over one backend client and one settings store.
// schema may be nil when the embedding never shows report pages.
func NewGrid(cfg config.Config, gridID string, c *client.Client, store settings.Store, schema resolve.Schema) *Grid {
	g := &Grid{
		cfg:         cfg,
		gridID:      gridID,
		logger:      logger.For(logger.ComponentGrid),
		client:      c,
		normalizer:  reconcile.NewNormalizer(c, c),
		resolver:    resolve.NewResolver(schema),
		labelCache:  filtercodec.NewLabelCache(c),
		settingsMgr: settings.NewManager(store),
		filters:     filtercodec.FilterState{},
		pager:       pagination.NewController(cfg.PageSize),
	}
	g.sessions = editsession.NewManager(c, g.resolver, editsession.Hooks{
		OnApplied:  g.applyEdit,
		OnRestored: g.restoreEdit,
	})
	return g
}

// Init prepares the grid for a record type and performs the first load.
// rawQuery is the embedding page's query string: a share token in it wins
// over remembered settings and suppresses settings writes for this load;
// FR_/TO_ parameters restore filter state either way.
func (g *Grid) Init(ctx context.Context, typeID, parentID string, rawQuery url.Values) error {
	g.typeID = typeID
	g.parentID = parentID
	g.expectTagged = false

	if token := rawQuery.Get(sharetoken.Param); token != "" {
		state, err := sharetoken.Decode(token)
		if err != nil {
			return err
		}
		g.filters = state.Filters
		if g.filters == nil {
			g.filters = filtercodec.FilterState{}
		}
		g.groupColumns = state.GroupColumns
		g.sort = state.Sort
		g.display.ColumnOrder = state.ColumnOrder
		g.display.VisibleColumns = state.VisibleColumns
		if g.display.PageSize <= 0 {
			g.display.PageSize = g.cfg.PageSize
		}
		g.suppressSettings = true
	} else {
		display, err := g.settingsMgr.Load(ctx, g.gridID)
		if err != nil {
			return err
		}
		g.display = display
		for columnID, cond := range filtercodec.Decode(rawQuery) {
			g.filters[columnID] = cond
		}
	}

	g.pager = pagination.NewController(g.display.PageSize)
	return g.LoadFromStart(ctx)
}

// LoadFromStart drops the accumulated rows and fetches the first window.
// It supersedes any load still in flight.
func (g *Grid) LoadFromStart(ctx context.Context) error {
	generation := g.generation.Add(1)
	g.pager.Reset()

	page, err := g.fetch(ctx)
	if err != nil {
		metrics.IncErrorCount(metrics.ComponentGrid, g.gridID)
		return err
	}
	if g.generation.Load() != generation {
		g.logger.Debugf("Discarding superseded load for %s", g.typeID)
		return nil
	}

	g.mu.Lock()
	if page.RawItems == nil {
		// A column report is computed server-side as one whole; the window
		// does not apply to it.
		g.pager.SetComplete(len(page.Rows))
	} else {
		kept, keptRaw := g.pager.Merge(page, true)
		page.Rows = kept
		page.RawItems = keptRaw
	}
	g.page = page
	g.replanLocked()
	g.mu.Unlock()

	g.resolveFilterLabels(ctx)
	g.refresh()
	return nil
}

// LoadMore appends the next window. Appends are strictly sequential; a
// second LoadMore while one is in flight fails fast instead of racing the
// offset.
func (g *Grid) LoadMore(ctx context.Context) error {
	if err := g.pager.BeginAppend(); err != nil {
		return err
	}
	generation := g.generation.Load()

	page, err := g.fetch(ctx)
	if err != nil {
		g.pager.AbortAppend()
		metrics.IncErrorCount(metrics.ComponentGrid, g.gridID)
		return err
	}
	if g.generation.Load() != generation {
		g.pager.AbortAppend()
		g.logger.Debugf("Discarding superseded append for %s", g.typeID)
		return nil
	}

	g.mu.Lock()
	kept, keptRaw := g.pager.Merge(page, false)
	if g.page == nil {
		g.page = page
		g.page.Rows = kept
		g.page.RawItems = keptRaw
	} else {
		g.page.Rows = append(g.page.Rows, kept...)
		if keptRaw != nil {
			g.page.RawItems = append(g.page.RawItems, keptRaw...)
		}
	}
	g.replanLocked()
	g.mu.Unlock()

	g.refresh()
	return nil
}

// fetch performs one page read and normalizes the result. The filter, sort
// and display state are snapshotted under the lock first: a debounced reload
// runs on the timer's goroutine and must not race a concurrent filter edit.
func (g *Grid) fetch(ctx context.Context) (*models.NormalizedPage, error) {
	g.mu.Lock()
	filters := filtercodec.Encode(g.filters, g.encodeOrderLocked())
	sortSpec := g.sort
	expectTagged := g.parentID != "" || g.expectTagged
	g.mu.Unlock()

	var sortArg *models.SortSpec
	if sortSpec.ColumnID != "" {
		sortArg = &sortSpec
	}

	raw, err := g.client.ReadPage(ctx, client.PageQuery{
		TypeID:   g.typeID,
		ParentID: g.parentID,
		Filters:  filters,
		Sort:     sortArg,
		Limit:    g.pager.RequestCount(),
		Offset:   g.pager.NextOffset(),
	})
	if err != nil {
		return nil, err
	}

	page, err := g.normalizer.Normalize(ctx, raw, reconcile.RequestContext{
		TypeID:       g.typeID,
		ParentID:     g.parentID,
		ExpectTagged: expectTagged,
	})
	if err != nil {
		return nil, err
	}

	// Once a load established that this type answers with record-tagged
	// items, remember it; an empty follow-up page must not regress the hint.
	if page.RawItems != nil {
		g.mu.Lock()
		g.expectTagged = true
		g.mu.Unlock()
	}
	return page, nil
}

// encodeOrderLocked is the column order filter encoding iterates in: the
// user's explicit order first, then any remaining filtered columns in a
// stable order. Without the fallback a grid whose columns were never
// reordered would encode no filters at all. Callers hold g.mu.
func (g *Grid) encodeOrderLocked() []string {
	order := append([]string(nil), g.display.ColumnOrder...)
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	var rest []string
	for id := range g.filters {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// FilterChanged records a filter edit. Text input debounces the re-query;
// everything else reloads immediately. Manual edits drop any resolved label,
// the raw value is the filter's truth.
func (g *Grid) FilterChanged(ctx context.Context, columnID string, op filtercodec.Operator, value string) error {
	g.mu.Lock()
	g.filters.Set(columnID, op, value)
	debounce := op == filtercodec.OpContains || op == filtercodec.OpStartsWith ||
		op == filtercodec.OpEndsWith || op == filtercodec.OpEquals
	g.mu.Unlock()

	if !debounce || g.cfg.FilterDebounce == 0 {
		return g.LoadFromStart(ctx)
	}

	g.mu.Lock()
	if g.debounceTimer != nil {
		g.debounceTimer.Stop()
	}
	g.debounceTimer = time.AfterFunc(g.cfg.FilterDebounce, func() {
		if err := g.LoadFromStart(context.Background()); err != nil {
			g.logger.Warnf("Debounced reload failed: %v", err)
		}
	})
	g.mu.Unlock()
	return nil
}

// SortToggled cycles the column through ascending, descending, unsorted and
// reloads from the start.
func (g *Grid) SortToggled(ctx context.Context, columnID string) error {
	g.mu.Lock()
	g.sort = g.sort.Toggle(columnID)
	g.mu.Unlock()
	return g.LoadFromStart(ctx)
}

// GroupColumnsChanged replaces the group plan. Grouping is a display
// reorder over the rows already fetched; no refetch happens.
func (g *Grid) GroupColumnsChanged(orderedColumnIDs []string) {
	g.mu.Lock()
	g.groupColumns = orderedColumnIDs
	g.replanLocked()
	g.mu.Unlock()
	g.refresh()
}

// CellEditIntent starts an edit session for a cell. The page is snapshotted
// first so a later cancel restores the display exactly.
func (g *Grid) CellEditIntent(ctx context.Context, columnID string, rowIndex int) (*editsession.Session, error) {
	g.mu.Lock()
	page := g.page
	g.mu.Unlock()
	if page == nil {
		return nil, &noPageError{}
	}

	var snapshot models.NormalizedPage
	if err := deepcopy.Copy(&snapshot, page); err != nil {
		return nil, err
	}
	g.snapshot = &snapshot

	return g.sessions.Begin(ctx, page, editsession.Target{ColumnID: columnID, RowIndex: rowIndex})
}

// CommitEdit commits the live edit session.
func (g *Grid) CommitEdit(ctx context.Context) error {
	return g.sessions.Commit(ctx)
}

// CancelEdit cancels the live edit session.
func (g *Grid) CancelEdit(ctx context.Context) error {
	return g.sessions.Cancel(ctx)
}

// NavigateEdit moves the live edit to the nearest editable cell in the
// given direction, committing the current one first.
func (g *Grid) NavigateEdit(ctx context.Context, dir editsession.Direction) (bool, error) {
	return g.sessions.Navigate(ctx, dir)
}

// Sessions exposes the session manager, for deferred-dismissal wiring.
func (g *Grid) Sessions() *editsession.Manager { return g.sessions }

// applyEdit folds a committed value into the row set, in memory. No refetch:
// the backend accepted exactly this value.
func (g *Grid) applyEdit(t editsession.Target, value string) {
	g.mu.Lock()
	if g.page != nil {
		g.page.SetCell(t.RowIndex, t.ColumnID, value)
		g.replanLocked()
	}
	g.snapshot = nil
	g.mu.Unlock()
	g.refresh()
}

// restoreEdit puts the pre-edit cell back from the snapshot, including any
// formatting the display layer had applied to it.
func (g *Grid) restoreEdit(t editsession.Target, value string) {
	g.mu.Lock()
	if g.page != nil {
		if g.snapshot != nil {
			if cell, ok := g.snapshot.Cell(t.RowIndex, t.ColumnID); ok {
				value = cell
			}
		}
		g.page.SetCell(t.RowIndex, t.ColumnID, value)
	}
	g.snapshot = nil
	g.mu.Unlock()
	g.refresh()
}

// ShareToken encodes the full current view state into one URL parameter.
func (g *Grid) ShareToken() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sharetoken.Encode(sharetoken.State{
		Filters:        g.filters.Clone(),
		GroupColumns:   g.groupColumns,
		Sort:           g.sort,
		ColumnOrder:    g.display.ColumnOrder,
		VisibleColumns: g.display.VisibleColumns,
	})
}

// UpdateDisplaySettings replaces the remembered display configuration and
// persists it, unless this page load arrived with a share token.
func (g *Grid) UpdateDisplaySettings(ctx context.Context, display settings.DisplaySettings) error {
	g.mu.Lock()
	g.display = display
	g.mu.Unlock()
	if g.suppressSettings {
		g.logger.Debugf("Share token active, not persisting settings for %s", g.gridID)
		return nil
	}
	return g.settingsMgr.Save(ctx, g.gridID, display)
}

// FetchTotal asks the count endpoint for the exact total under the current
// filters.
func (g *Grid) FetchTotal(ctx context.Context) (int, error) {
	g.mu.Lock()
	filters := filtercodec.Encode(g.filters, g.encodeOrderLocked())
	g.mu.Unlock()

	total, err := g.client.Count(ctx, client.PageQuery{
		TypeID:   g.typeID,
		ParentID: g.parentID,
		Filters:  filters,
	})
	if err != nil {
		return 0, err
	}
	g.pager.SetTotal(total)
	return total, nil
}

// resolveFilterLabels kicks off label resolution for identifier-valued
// filters. Failures degrade to showing the raw "@<id>".
func (g *Grid) resolveFilterLabels(ctx context.Context) {
	g.mu.Lock()
	page := g.page
	state := g.filters
	g.mu.Unlock()
	if page == nil {
		return
	}
	if err := g.labelCache.ResolveAll(ctx, state, page.Columns); err != nil {
		g.logger.Warnf("Label resolution failed: %v", err)
	}
}

// replanLocked recomputes the group plan. Callers hold g.mu.
func (g *Grid) replanLocked() {
	if g.page == nil {
		g.groupPlan = grouping.Result{}
		return
	}
	g.groupPlan = grouping.Plan(g.page, g.groupColumns)
}

func (g *Grid) refresh() {
	if g.OnRefresh != nil {
		g.OnRefresh()
	}
}

// Page returns the accumulated normalized page, nil before the first load.
func (g *Grid) Page() *models.NormalizedPage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.page
}

// GroupPlan returns the current display order and span entries.
func (g *Grid) GroupPlan() grouping.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.groupPlan
}

// Filters returns the live filter state.
func (g *Grid) Filters() filtercodec.FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filters
}

// Sort returns the current sort.
func (g *Grid) Sort() models.SortSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sort
}

// Display returns the current display settings.
func (g *Grid) Display() settings.DisplaySettings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.display
}

// HasMore reports whether another window can be appended.
func (g *Grid) HasMore() bool { return g.pager.HasMore() }

// Total returns the known total row count.
func (g *Grid) Total() (int, bool) { return g.pager.Total() }

type noPageError struct{}

func (*noPageError) Error() string { return "no page loaded" }
