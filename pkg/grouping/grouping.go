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

// Package grouping reorders a normalized page for display under an ordered
// list of group-by columns and computes the span (repeat-count) information
// a renderer needs to draw merged group cells.
package grouping

import (
	"sort"

	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// SpanEntry marks the start of a group run at one grouping level.
type SpanEntry struct {
	ColumnID     string
	DisplayValue string
	// SpanCount is how many consecutive display rows the run covers,
	// including this one. Continuation rows carry no entry; the span
	// absorbs them.
	SpanCount int
}

// RowGroups are the span entries of one display row. Empty for rows that
// continue every group they are part of.
type RowGroups []SpanEntry

// Result is a grouped display order over the original row set. Order[i] is
// the storage index of display row i, so the caller can keep rows and
// RawItems aligned without copying them.
type Result struct {
	Order  []int
	Groups []RowGroups
}

// Plan sorts the page's rows by the group columns (stable, type-aware,
// ascending) and computes span entries per group boundary. Unknown column
// ids are skipped. An empty plan returns the identity order with no groups.
func Plan(page *models.NormalizedPage, groupColumns []string) Result {
	order := make([]int, len(page.Rows))
	for i := range order {
		order[i] = i
	}

	// Resolve the plan to storage indices once.
	var cols []groupCol
	for _, id := range groupColumns {
		if ci := page.ColumnIndex(id); ci >= 0 {
			cols = append(cols, groupCol{col: page.Columns[ci], idx: ci})
		}
	}

	groups := make([]RowGroups, len(page.Rows))
	if len(cols) == 0 || len(page.Rows) == 0 {
		return Result{Order: order, Groups: groups}
	}

	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := page.Rows[order[a]], page.Rows[order[b]]
		for _, gc := range cols {
			if c := Compare(ra[gc.idx], rb[gc.idx], gc.col); c != 0 {
				return c < 0
			}
		}
		return false
	})

	// A row starts a run at level L when any value at level <= L differs
	// from the previous display row's.
	for display := 0; display < len(order); display++ {
		level := startLevel(page, order, cols, display)
		if level < 0 {
			continue
		}
		entries := make(RowGroups, 0, len(cols)-level)
		for l := level; l < len(cols); l++ {
			gc := cols[l]
			value := page.Rows[order[display]][gc.idx]
			entries = append(entries, SpanEntry{
				ColumnID:     gc.col.ID,
				DisplayValue: DisplayValue(value, gc.col),
				SpanCount:    runLength(page, order, cols, display, l),
			})
		}
		groups[display] = entries
	}

	return Result{Order: order, Groups: groups}
}

// groupCol is a plan column resolved to its storage index.
type groupCol struct {
	col models.ColumnDescriptor
	idx int
}

// startLevel returns the shallowest level at which row `display` starts a
// new run, or -1 when it continues every level.
func startLevel(page *models.NormalizedPage, order []int, cols []groupCol, display int) int {
	if display == 0 {
		return 0
	}
	prev, cur := page.Rows[order[display-1]], page.Rows[order[display]]
	for l, gc := range cols {
		if Compare(prev[gc.idx], cur[gc.idx], gc.col) != 0 {
			return l
		}
	}
	return -1
}

// runLength counts how many display rows from `display` onward share the
// values of all levels up to and including `level`.
func runLength(page *models.NormalizedPage, order []int, cols []groupCol, display, level int) int {
	base := page.Rows[order[display]]
	count := 1
	for next := display + 1; next < len(order); next++ {
		row := page.Rows[order[next]]
		for l := 0; l <= level; l++ {
			gc := cols[l]
			if Compare(base[gc.idx], row[gc.idx], gc.col) != 0 {
				return count
			}
		}
		count++
	}
	return count
}

// SortRows produces a display order for a plain (ungrouped) sort. Stable,
// so equal keys keep server order.
func SortRows(page *models.NormalizedPage, spec models.SortSpec) []int {
	order := make([]int, len(page.Rows))
	for i := range order {
		order[i] = i
	}
	ci := page.ColumnIndex(spec.ColumnID)
	if ci < 0 {
		return order
	}
	col := page.Columns[ci]

	sort.SliceStable(order, func(a, b int) bool {
		c := Compare(page.Rows[order[a]][ci], page.Rows[order[b]][ci], col)
		if spec.Descending {
			return c > 0
		}
		return c < 0
	})
	return order
}
