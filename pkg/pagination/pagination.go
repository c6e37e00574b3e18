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

// Package pagination owns the offset/window bookkeeping of the grid.
//
// Loads always request pageSize+1 rows and keep pageSize: an overflow row
// proves more data exists without a separate count call. A short page both
// ends the stream and, when no count was fetched earlier, fixes the total.
package pagination

import (
	"fmt"

	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// Controller tracks the fetched window. Appends are strictly sequential;
// the caller serializes them by checking BeginAppend before issuing a
// request.
type Controller struct {
	pageSize int

	offset     int
	hasMore    bool
	total      int
	totalKnown bool

	appendInFlight bool
}

// NewController creates a Controller for the given page size.
func NewController(pageSize int) *Controller {
	return &Controller{pageSize: pageSize}
}

// PageSize returns the configured window size.
func (c *Controller) PageSize() int { return c.pageSize }

// RequestCount is how many rows to ask the backend for: one more than the
// window, so the overflow row can signal more-data-available.
func (c *Controller) RequestCount() int { return c.pageSize + 1 }

// NextOffset is the offset the next load must request.
func (c *Controller) NextOffset() int { return c.offset }

// HasMore reports whether another window exists after the fetched ones.
func (c *Controller) HasMore() bool { return c.hasMore }

// Total returns the known total row count. known is false until either a
// short page arrived or SetTotal was called.
func (c *Controller) Total() (total int, known bool) {
	return c.total, c.totalKnown
}

// SetTotal records a count obtained out of band (the count endpoint).
func (c *Controller) SetTotal(total int) {
	c.total = total
	c.totalKnown = true
}

// SetComplete records an unpaginated result: the whole row set arrived in
// one response, so the stream ends and the total is exact. Column reports
// are served this way.
func (c *Controller) SetComplete(total int) {
	c.appendInFlight = false
	c.offset = total
	c.hasMore = false
	c.total = total
	c.totalKnown = true
}

// Reset returns the controller to the load-from-start state.
func (c *Controller) Reset() {
	c.offset = 0
	c.hasMore = false
	c.total = 0
	c.totalKnown = false
	c.appendInFlight = false
}

// BeginAppend marks an append as in flight. It fails when one already is:
// concurrent appends would race for the same offset, so the caller must
// disable further appends until Complete.
func (c *Controller) BeginAppend() error {
	if c.appendInFlight {
		return fmt.Errorf("append already in flight at offset %d", c.offset)
	}
	if !c.hasMore && c.offset != 0 {
		return fmt.Errorf("no more rows after offset %d", c.offset)
	}
	c.appendInFlight = true
	return nil
}

// AbortAppend clears the in-flight flag after a failed or superseded load.
func (c *Controller) AbortAppend() {
	c.appendInFlight = false
}

// Merge folds a fetched page into the accumulated rows. When replace is
// true the fetched window replaces everything (load-from-start); otherwise
// it appends. The returned slices are the kept window of the fetched page.
func (c *Controller) Merge(page *models.NormalizedPage, replace bool) (kept []models.Row, keptRaw []models.RawItem) {
	c.appendInFlight = false
	if replace {
		c.offset = 0
	}

	got := len(page.Rows)
	c.hasMore = got > c.pageSize

	keep := got
	if c.hasMore {
		keep = c.pageSize
	}

	kept = page.Rows[:keep]
	if page.RawItems != nil {
		keptRaw = page.RawItems[:keep]
	}

	c.offset += keep

	// A short page pins the total when nothing else has.
	if !c.hasMore && !c.totalKnown {
		c.total = c.offset
		c.totalKnown = true
	}

	return kept, keptRaw
}
