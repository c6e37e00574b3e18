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

package grid_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/internal/demobackend"
	"github.com/united-manufacturing-hub/recordgrid/pkg/client"
	"github.com/united-manufacturing-hub/recordgrid/pkg/config"
	"github.com/united-manufacturing-hub/recordgrid/pkg/editsession"
	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/grid"
	"github.com/united-manufacturing-hub/recordgrid/pkg/settings"
	"github.com/united-manufacturing-hub/recordgrid/pkg/sharetoken"
)

// The suite runs the engine end to end against the in-memory demo backend
// mounted on httptest, covering all three read shapes and the write paths.
var _ = Describe("Grid", Ordered, Serial, func() {
	var (
		ctx    context.Context
		server *httptest.Server
		store  *settings.MemoryStore
		g      *grid.Grid
	)

	const gridID = "test-orders"

	newGrid := func() *grid.Grid {
		cfg := config.Default()
		cfg.BackendURL = server.URL
		cfg.PageSize = 2
		cfg.FilterDebounce = 0
		return grid.NewGrid(cfg, gridID, client.NewClient(server.URL), store, demobackend.Schema())
	}

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(demobackend.New().Router())
		store = settings.NewMemoryStore()

		// Remembered settings drive the window size; two rows per window
		// makes the demo's three orders span two loads.
		Expect(settings.NewManager(store).Save(ctx, gridID, settings.DisplaySettings{PageSize: 2})).To(Succeed())
		g = newGrid()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("loading", func() {
		It("loads the first window of a tagged-array type", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			page := g.Page()
			Expect(page.TypeID).To(Equal(demobackend.TypeOrder))
			Expect(page.Columns).To(HaveLen(4))
			Expect(page.Rows).To(HaveLen(2))
			Expect(page.RawItems).To(HaveLen(2))
			Expect(g.HasMore()).To(BeTrue())
		})

		It("appends the next window and pins the total on the short page", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())
			Expect(g.LoadMore(ctx)).To(Succeed())

			Expect(g.Page().Rows).To(HaveLen(3))
			Expect(g.HasMore()).To(BeFalse())
			total, known := g.Total()
			Expect(known).To(BeTrue())
			Expect(total).To(Equal(3))
		})

		It("scopes the load by parent", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "c2", url.Values{})).To(Succeed())

			page := g.Page()
			Expect(page.Rows).To(HaveLen(1))
			Expect(page.Rows[0][0]).To(Equal("Housing print"))
		})

		It("loads an object-metadata type through the two-call shape", func() {
			Expect(g.Init(ctx, demobackend.TypeMaterial, "", url.Values{})).To(Succeed())

			page := g.Page()
			Expect(page.TypeID).To(Equal(demobackend.TypeMaterial))
			Expect(page.Columns).To(HaveLen(3))
			Expect(page.Rows).To(HaveLen(2))
			Expect(page.RawItems).ToNot(BeNil())
		})

		It("loads a column report whole, ignoring the window", func() {
			Expect(g.Init(ctx, demobackend.TypeTaskReport, "", url.Values{})).To(Succeed())

			// Reports arrive computed as one response; the two-row window
			// configured above must not truncate them.
			page := g.Page()
			Expect(page.Columns).To(HaveLen(4))
			Expect(page.Rows).To(HaveLen(3))
			Expect(page.RawItems).To(BeNil())
			Expect(g.HasMore()).To(BeFalse())
			total, known := g.Total()
			Expect(known).To(BeTrue())
			Expect(total).To(Equal(3))
		})

		It("fetches the exact total on request", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			total, err := g.FetchTotal(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(3))
		})
	})

	Describe("filtering and sorting", func() {
		It("reloads from the start with the encoded filter", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			Expect(g.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "ing")).To(Succeed())

			page := g.Page()
			Expect(page.Rows).To(HaveLen(2))
			Expect(page.Rows[0][0]).To(Equal("Bracket milling"))
			Expect(page.Rows[1][0]).To(Equal("Housing print"))
			Expect(g.HasMore()).To(BeFalse())
		})

		It("renders an empty page when the filter matches nothing", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			Expect(g.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "zzz")).To(Succeed())

			Expect(g.Page().Rows).To(BeEmpty())
			Expect(g.HasMore()).To(BeFalse())
			total, known := g.Total()
			Expect(known).To(BeTrue())
			Expect(total).To(BeZero())
		})

		It("counts under the active filter", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())
			Expect(g.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "ing")).To(Succeed())

			total, err := g.FetchTotal(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(2))
		})

		It("applies a debounced text filter after the quiet period", func() {
			cfg := config.Default()
			cfg.BackendURL = server.URL
			cfg.PageSize = 2
			cfg.FilterDebounce = 10 * time.Millisecond
			debounced := grid.NewGrid(cfg, gridID, client.NewClient(server.URL), store, demobackend.Schema())
			Expect(debounced.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			// The reload runs on the timer's goroutine; the call itself
			// returns before any fetch happens.
			Expect(debounced.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "ing")).To(Succeed())

			Eventually(func() int {
				return len(debounced.Page().Rows)
			}).Should(Equal(2))
			Expect(debounced.Page().Rows[0][0]).To(Equal("Bracket milling"))
		})

		It("restores filters from the embedding page's query string", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{"FR_order": {"%ing%"}})).To(Succeed())

			Expect(g.Page().Rows).To(HaveLen(2))
			Expect(g.Filters()["order"].Operator).To(Equal(filtercodec.OpContains))
			Expect(g.Filters()["order"].RawValue).To(Equal("ing"))
		})

		It("cycles sort through ascending, descending, unsorted", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			Expect(g.SortToggled(ctx, "order")).To(Succeed())
			Expect(g.Sort().Descending).To(BeFalse())
			Expect(g.Page().Rows[0][0]).To(Equal("Bracket milling"))

			Expect(g.SortToggled(ctx, "order")).To(Succeed())
			Expect(g.Sort().Descending).To(BeTrue())
			Expect(g.Page().Rows[0][0]).To(Equal("Widget assembly"))

			Expect(g.SortToggled(ctx, "order")).To(Succeed())
			Expect(g.Sort().ColumnID).To(BeEmpty())
		})

		It("resolves the label of an identifier filter for display", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{"FR_customer": {"@c2"}})).To(Succeed())

			Expect(g.Page().Rows).To(HaveLen(1))
			Expect(g.Filters()["customer"].ResolvedLabel).To(Equal("Mustermann AG"))
		})
	})

	Describe("grouping", func() {
		It("replans the display without refetching", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())
			Expect(g.LoadMore(ctx)).To(Succeed())

			refreshes := 0
			g.OnRefresh = func() { refreshes++ }
			g.GroupColumnsChanged([]string{"customer"})

			Expect(refreshes).To(Equal(1))
			plan := g.GroupPlan()
			Expect(plan.Order).To(HaveLen(3))
			Expect(plan.Groups[0]).To(HaveLen(1))
			Expect(plan.Groups[0][0].ColumnID).To(Equal("customer"))
			Expect(plan.Groups[0][0].DisplayValue).To(Equal("ACME GmbH"))
			Expect(plan.Groups[0][0].SpanCount).To(Equal(2))
		})
	})

	Describe("editing", func() {
		It("commits a cell edit and folds the value into the page", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			session, err := g.CellEditIntent(ctx, "qty", 0)
			Expect(err).ToNot(HaveOccurred())
			session.SetDraft("7")
			Expect(g.CommitEdit(ctx)).To(Succeed())

			cell, _ := g.Page().Cell(0, "qty")
			Expect(cell).To(Equal("7"))

			// The backend accepted the write; a clean reload agrees.
			Expect(g.LoadFromStart(ctx)).To(Succeed())
			cell, _ = g.Page().Cell(0, "qty")
			Expect(cell).To(Equal("7"))
		})

		It("restores the cell exactly on cancel", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			session, err := g.CellEditIntent(ctx, "qty", 0)
			Expect(err).ToNot(HaveOccurred())
			session.SetDraft("999")
			Expect(g.CancelEdit(ctx)).To(Succeed())

			cell, _ := g.Page().Cell(0, "qty")
			Expect(cell).To(Equal("5"))
		})

		It("keeps the form open on a primary-value conflict warning", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			session, err := g.CellEditIntent(ctx, demobackend.TypeOrder, 0)
			Expect(err).ToNot(HaveOccurred())
			session.SetDraft("Bracket milling")
			Expect(g.CommitEdit(ctx)).To(Succeed())

			Expect(session.Is(editsession.StateActive)).To(BeTrue())
			Expect(session.Warning()).ToNot(BeNil())
			Expect(session.Warning().ConflictRecordID).To(Equal("o2"))
			Expect(session.Draft()).To(Equal("Bracket milling"))
		})

		It("navigates to the next editable cell through commit", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())

			session, err := g.CellEditIntent(ctx, "qty", 0)
			Expect(err).ToNot(HaveOccurred())
			session.SetDraft("7")

			moved, err := g.NavigateEdit(ctx, editsession.DirDown)
			Expect(err).ToNot(HaveOccurred())
			Expect(moved).To(BeTrue())

			cell, _ := g.Page().Cell(0, "qty")
			Expect(cell).To(Equal("7"))
			next := g.Sessions().Active()
			Expect(next.Target()).To(Equal(editsession.Target{ColumnID: "qty", RowIndex: 1}))
		})
	})

	Describe("share tokens", func() {
		It("restores the full view state from a token", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())
			Expect(g.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "ing")).To(Succeed())
			Expect(g.SortToggled(ctx, "qty")).To(Succeed())
			g.GroupColumnsChanged([]string{"customer"})

			token, err := g.ShareToken()
			Expect(err).ToNot(HaveOccurred())

			restored := newGrid()
			Expect(restored.Init(ctx, demobackend.TypeOrder, "", url.Values{sharetoken.Param: {token}})).To(Succeed())

			Expect(restored.Filters()["order"].RawValue).To(Equal("ing"))
			Expect(restored.Sort().ColumnID).To(Equal("qty"))
			Expect(restored.Page().Rows).To(HaveLen(2))
			Expect(restored.GroupPlan().Groups[0]).ToNot(BeEmpty())
		})

		It("suppresses settings writes for a token-driven load", func() {
			Expect(g.Init(ctx, demobackend.TypeOrder, "", url.Values{})).To(Succeed())
			token, err := g.ShareToken()
			Expect(err).ToNot(HaveOccurred())

			shared := newGrid()
			Expect(shared.Init(ctx, demobackend.TypeOrder, "", url.Values{sharetoken.Param: {token}})).To(Succeed())
			Expect(shared.UpdateDisplaySettings(ctx, settings.DisplaySettings{PageSize: 99})).To(Succeed())

			// The remembered settings still carry the pre-token page size.
			loaded, err := settings.NewManager(store).Load(ctx, gridID)
			Expect(err).ToNot(HaveOccurred())
			Expect(loaded.PageSize).To(Equal(2))
		})

		It("rejects a corrupted token at Init", func() {
			err := g.Init(ctx, demobackend.TypeOrder, "", url.Values{sharetoken.Param: {"%%%bad%%%"}})
			Expect(err).To(HaveOccurred())
		})
	})
})
