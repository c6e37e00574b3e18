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

package grouping_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/grouping"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

func textPage(columns []string, rows []models.Row) *models.NormalizedPage {
	page := &models.NormalizedPage{Rows: rows}
	for _, id := range columns {
		page.Columns = append(page.Columns, models.ColumnDescriptor{
			ID: id, Name: id, BaseType: models.BaseTypeShortText,
		})
	}
	return page
}

var _ = Describe("Plan", func() {
	It("returns identity order for an empty plan", func() {
		page := textPage([]string{"a"}, []models.Row{{"x"}, {"y"}})
		result := grouping.Plan(page, nil)
		Expect(result.Order).To(Equal([]int{0, 1}))
		for _, g := range result.Groups {
			Expect(g).To(BeEmpty())
		}
	})

	It("computes nested spans over two group levels", func() {
		page := textPage([]string{"a", "b", "rest"}, []models.Row{
			{"x", "p", "r1"},
			{"x", "p", "r2"},
			{"y", "q", "r3"},
		})
		result := grouping.Plan(page, []string{"a", "b"})

		// Row 0 opens both runs, row 1 continues them, row 2 opens new ones.
		Expect(result.Groups[0]).To(Equal(grouping.RowGroups{
			{ColumnID: "a", DisplayValue: "x", SpanCount: 2},
			{ColumnID: "b", DisplayValue: "p", SpanCount: 2},
		}))
		Expect(result.Groups[1]).To(BeEmpty())
		Expect(result.Groups[2]).To(Equal(grouping.RowGroups{
			{ColumnID: "a", DisplayValue: "y", SpanCount: 1},
			{ColumnID: "b", DisplayValue: "q", SpanCount: 1},
		}))
	})

	It("restarts an inner run inside a continuing outer run", func() {
		page := textPage([]string{"a", "b"}, []models.Row{
			{"x", "p"},
			{"x", "q"},
			{"x", "q"},
		})
		result := grouping.Plan(page, []string{"a", "b"})

		Expect(result.Groups[0]).To(Equal(grouping.RowGroups{
			{ColumnID: "a", DisplayValue: "x", SpanCount: 3},
			{ColumnID: "b", DisplayValue: "p", SpanCount: 1},
		}))
		// Only the inner level restarts here.
		Expect(result.Groups[1]).To(Equal(grouping.RowGroups{
			{ColumnID: "b", DisplayValue: "q", SpanCount: 2},
		}))
		Expect(result.Groups[2]).To(BeEmpty())
	})

	It("sorts rows by group values before spanning", func() {
		page := textPage([]string{"a"}, []models.Row{
			{"beta"},
			{"alpha"},
			{"beta"},
		})
		result := grouping.Plan(page, []string{"a"})
		Expect(result.Order).To(Equal([]int{1, 0, 2}))
		Expect(result.Groups[1][0].SpanCount).To(Equal(2))
	})

	It("skips unknown group columns", func() {
		page := textPage([]string{"a"}, []models.Row{{"x"}, {"y"}})
		result := grouping.Plan(page, []string{"nope"})
		Expect(result.Order).To(Equal([]int{0, 1}))
		Expect(result.Groups[0]).To(BeEmpty())
	})

	It("shows the label part of references in group headers", func() {
		page := &models.NormalizedPage{
			Columns: []models.ColumnDescriptor{
				{ID: "customer", Name: "Customer", BaseType: models.BaseTypeReference, IsReference: true},
			},
			Rows: []models.Row{{"c2:Mustermann AG"}, {"c1:ACME GmbH"}},
		}
		result := grouping.Plan(page, []string{"customer"})
		Expect(result.Order).To(Equal([]int{1, 0}))
		Expect(result.Groups[0][0].DisplayValue).To(Equal("ACME GmbH"))
	})
})

var _ = Describe("Compare", func() {
	textCol := models.ColumnDescriptor{BaseType: models.BaseTypeShortText}
	numCol := models.ColumnDescriptor{BaseType: models.BaseTypeInteger}
	dateCol := models.ColumnDescriptor{BaseType: models.BaseTypeDate}

	It("sorts blanks first", func() {
		Expect(grouping.Compare("", "a", textCol)).To(Equal(-1))
		Expect(grouping.Compare("a", "", textCol)).To(Equal(1))
	})

	It("compares numbers numerically, not lexically", func() {
		Expect(grouping.Compare("9", "10", numCol)).To(Equal(-1))
		Expect(grouping.Compare("2.50", "2.5", numCol)).To(BeZero())
	})

	It("falls back to text when a number does not parse", func() {
		Expect(grouping.Compare("n/a", "zebra", numCol)).To(BeNumerically("<", 0))
	})

	It("compares dates chronologically across layouts", func() {
		Expect(grouping.Compare("2026-03-01", "2026-02-15", dateCol)).To(Equal(1))
		Expect(grouping.Compare("15.02.2026", "2026-03-01", dateCol)).To(Equal(-1))
	})

	It("ignores case for text", func() {
		Expect(grouping.Compare("Alpha", "alpha", textCol)).To(BeZero())
	})
})

var _ = Describe("SortRows", func() {
	It("orders by the sort column, descending on request", func() {
		page := textPage([]string{"qty"}, []models.Row{{"5"}, {"2"}, {"9"}})
		page.Columns[0].BaseType = models.BaseTypeInteger

		asc := grouping.SortRows(page, models.SortSpec{ColumnID: "qty"})
		Expect(asc).To(Equal([]int{1, 0, 2}))

		desc := grouping.SortRows(page, models.SortSpec{ColumnID: "qty", Descending: true})
		Expect(desc).To(Equal([]int{2, 0, 1}))
	})

	It("keeps server order for an unknown column", func() {
		page := textPage([]string{"a"}, []models.Row{{"z"}, {"a"}})
		Expect(grouping.SortRows(page, models.SortSpec{ColumnID: "missing"})).To(Equal([]int{0, 1}))
	})
})
