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

package resolve_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/resolve"
)

// stubSchema knows a fixed set of top-level types and requisite owners.
type stubSchema struct {
	topLevel map[string]bool
	owners   map[string]string
}

func (s stubSchema) IsTopLevelType(typeID string) bool { return s.topLevel[typeID] }

func (s stubSchema) OwnerOfRequisite(typeID string) (string, bool) {
	owner, ok := s.owners[typeID]
	return owner, ok
}

var schema = stubSchema{
	topLevel: map[string]bool{"task": true, "order": true},
	owners:   map[string]string{"task_status": "task"},
}

func expectFailure(err error) {
	GinkgoHelper()
	Expect(err).To(HaveOccurred())
	var failure *griderrors.ResolutionFailure
	Expect(errors.As(err, &failure)).To(BeTrue())
}

var _ = Describe("Resolver", func() {
	resolver := resolve.NewResolver(schema)

	Context("pages with raw items", func() {
		var page *models.NormalizedPage

		BeforeEach(func() {
			page = &models.NormalizedPage{
				TypeID: "order",
				Columns: []models.ColumnDescriptor{
					{ID: "order", Name: "Order", TypeID: "order", Editable: true},
					{ID: "qty", Name: "Quantity", TypeID: "qty", OwnerRecordTypeID: "order", Editable: true},
					{ID: "customer", Name: "Customer", TypeID: "customer", IsReference: true, ReferencedTypeID: "customer", Editable: true},
				},
				Rows: []models.Row{
					{"Widget assembly", "5", "c1:ACME GmbH"},
					{"Bracket", "2", ""},
				},
				RawItems: []models.RawItem{
					{RecordID: "o1"},
					{RecordID: "o2"},
				},
			}
		})

		It("targets the row's own primary value for the type column", func() {
			res, err := resolver.Resolve(page, "order", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindPrimary))
			Expect(res.RecordID).To(Equal("o1"))
			Expect(res.RecordTypeID).To(Equal("order"))
			Expect(res.IsFirstColumnOfRecord).To(BeTrue())
		})

		It("targets a requisite attribute for other columns", func() {
			res, err := resolver.Resolve(page, "qty", 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindRequisite))
			Expect(res.RecordID).To(Equal("o2"))
			Expect(res.RecordTypeID).To(Equal("order"))
		})

		It("targets the linking attribute for a populated reference cell", func() {
			res, err := resolver.Resolve(page, "customer", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindLink))
			Expect(res.RecordID).To(Equal("c1"))
			Expect(res.RecordTypeID).To(Equal("customer"))
			Expect(res.OwnerRecordID).To(Equal("o1"))
		})

		It("treats an empty reference cell as a plain requisite", func() {
			res, err := resolver.Resolve(page, "customer", 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindRequisite))
			Expect(res.RecordID).To(Equal("o2"))
		})

		It("fails for an item without a record id", func() {
			page.RawItems[0].RecordID = ""
			_, err := resolver.Resolve(page, "qty", 0)
			expectFailure(err)
		})
	})

	Context("report pages", func() {
		var page *models.NormalizedPage

		BeforeEach(func() {
			page = &models.NormalizedPage{
				Columns: []models.ColumnDescriptor{
					{ID: "task", Name: "Task", TypeID: "task", Editable: true},
					{ID: "task_id", Name: "TaskID", TypeID: "task"},
					{ID: "status", Name: "Status", TypeID: "task_status", Editable: true},
				},
				Rows: []models.Row{
					{"Drill housing", "t1", "open"},
					{"Deburr edges", "", "open"},
				},
			}
		})

		It("borrows the record id from the name-matched identifier sibling", func() {
			res, err := resolver.Resolve(page, "task", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindPrimary))
			Expect(res.RecordID).To(Equal("t1"))
			Expect(res.RecordTypeID).To(Equal("task"))
			Expect(res.IsFirstColumnOfRecord).To(BeTrue())
		})

		It("resolves a requisite column through any identifier of its owner type", func() {
			res, err := resolver.Resolve(page, "status", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Kind).To(Equal(resolve.KindRequisite))
			Expect(res.RecordID).To(Equal("t1"))
			Expect(res.RecordTypeID).To(Equal("task"))
		})

		It("fails when the identifier cell is blank", func() {
			_, err := resolver.Resolve(page, "task", 1)
			expectFailure(err)
		})

		It("fails when no identifier sibling exists", func() {
			page.Columns[1].Name = "SomethingElse"
			_, err := resolver.Resolve(page, "task", 0)
			expectFailure(err)
		})

		It("fails for a type the schema knows nothing about", func() {
			page.Columns[2].TypeID = "unknown"
			_, err := resolver.Resolve(page, "status", 0)
			expectFailure(err)
		})
	})

	Describe("Editable", func() {
		page := &models.NormalizedPage{
			Columns: []models.ColumnDescriptor{
				{ID: "task", Name: "Task", TypeID: "task", Editable: true},
				{ID: "task_id", Name: "TaskID", TypeID: "task"},
			},
			Rows: []models.Row{
				{"Drill housing", "t1"},
				{"Deburr edges", ""},
			},
		}

		It("requires both the metadata flag and a resolvable target", func() {
			Expect(resolver.Editable(page, "task", 0)).To(BeTrue())
			// Flag off.
			Expect(resolver.Editable(page, "task_id", 0)).To(BeFalse())
			// Flag on, but no record id in this row.
			Expect(resolver.Editable(page, "task", 1)).To(BeFalse())
		})
	})
})
