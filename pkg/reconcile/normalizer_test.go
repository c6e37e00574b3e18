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

package reconcile_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/reconcile"
)

// stubSource serves canned metadata and items.
type stubSource struct {
	desc     *reconcile.TypeDescriptor
	items    []reconcile.TaggedItem
	descErr  error
	itemsErr error

	describeCalls int
	listCalls     int
	lastParentID  string
}

func (s *stubSource) DescribeType(_ context.Context, _ string) (*reconcile.TypeDescriptor, error) {
	s.describeCalls++
	return s.desc, s.descErr
}

func (s *stubSource) ListItems(_ context.Context, _ string, parentID string) ([]reconcile.TaggedItem, error) {
	s.listCalls++
	s.lastParentID = parentID
	return s.items, s.itemsErr
}

var orderDescriptor = &reconcile.TypeDescriptor{
	ID:       "order",
	Name:     "Order",
	BaseType: 1,
	Editable: true,
	Requisites: []reconcile.RequisiteDescriptor{
		{ID: "qty", Name: "Quantity", OwnerTypeID: "order", BaseType: 4, Editable: true},
		{ID: "customer", Name: "Customer", OwnerTypeID: "order", RefTypeID: "customer", BaseType: 13},
	},
}

var _ = Describe("Classify", func() {
	It("recognizes a column report", func() {
		payload := []byte(`{"columns":[{"id":"a","name":"A","baseType":1}],"data":[["x"]]}`)
		format, err := reconcile.Classify(payload, reconcile.RequestContext{})
		Expect(err).ToNot(HaveOccurred())
		Expect(format).To(Equal(reconcile.FormatColumnReport))
	})

	It("recognizes a tagged array by its item envelope", func() {
		payload := []byte(`[{"itemId":"o1","values":["x"]}]`)
		format, err := reconcile.Classify(payload, reconcile.RequestContext{})
		Expect(err).ToNot(HaveOccurred())
		Expect(format).To(Equal(reconcile.FormatTaggedArray))
	})

	It("classifies an empty array only when the endpoint is known tagged", func() {
		format, err := reconcile.Classify([]byte(`[]`), reconcile.RequestContext{ExpectTagged: true})
		Expect(err).ToNot(HaveOccurred())
		Expect(format).To(Equal(reconcile.FormatTaggedArray))

		_, err = reconcile.Classify([]byte(`[]`), reconcile.RequestContext{})
		Expect(err).To(HaveOccurred())
	})

	It("recognizes a bare metadata object", func() {
		payload := []byte(`{"id":"material","name":"Material","baseType":1}`)
		format, err := reconcile.Classify(payload, reconcile.RequestContext{})
		Expect(err).ToNot(HaveOccurred())
		Expect(format).To(Equal(reconcile.FormatObjectMetadata))
	})

	It("rejects garbage", func() {
		_, err := reconcile.Classify([]byte(`not json`), reconcile.RequestContext{})
		Expect(err).To(HaveOccurred())
		var malformed *griderrors.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})
})

var _ = Describe("Normalizer", func() {
	var source *stubSource
	var normalizer *reconcile.Normalizer

	BeforeEach(func() {
		source = &stubSource{desc: orderDescriptor}
		normalizer = reconcile.NewNormalizer(source, source)
	})

	Context("column report", func() {
		payload := []byte(`{
			"columns":[
				{"id":"task","name":"Task","typeId":"task","baseType":1,"editable":true},
				{"id":"hours","name":"Hours","typeId":"task","baseType":5}
			],
			"data":[["Drill","Deburr"],[2.5,1]]
		}`)

		It("transposes into rows with one cell per column", func() {
			page, err := normalizer.Normalize(context.Background(), payload, reconcile.RequestContext{})
			Expect(err).ToNot(HaveOccurred())
			Expect(page.Columns).To(HaveLen(2))
			Expect(page.Rows).To(HaveLen(2))
			for _, row := range page.Rows {
				Expect(row).To(HaveLen(len(page.Columns)))
			}
			Expect(page.Rows[0]).To(Equal(models.Row{"Drill", "2.5"}))
			Expect(page.RawItems).To(BeNil())
		})

		It("rejects ragged data", func() {
			ragged := []byte(`{"columns":[{"id":"a","name":"A","baseType":1},{"id":"b","name":"B","baseType":1}],"data":[["x"],["y","z"]]}`)
			_, err := normalizer.Normalize(context.Background(), ragged, reconcile.RequestContext{})
			Expect(err).To(HaveOccurred())
		})
	})

	Context("tagged array", func() {
		payload := []byte(`[
			{"itemId":"o1","ownerId":"c1","values":["Widget","5","c1:ACME"],"ownerFlag":1},
			{"itemId":"o2","values":["Bracket"]}
		]`)

		It("joins items with fetched metadata and pads short values", func() {
			page, err := normalizer.Normalize(context.Background(), payload, reconcile.RequestContext{TypeID: "order"})
			Expect(err).ToNot(HaveOccurred())
			Expect(source.describeCalls).To(Equal(1))
			Expect(page.TypeID).To(Equal("order"))
			Expect(page.Columns).To(HaveLen(3))
			for _, row := range page.Rows {
				Expect(row).To(HaveLen(3))
			}
			Expect(page.Rows[1]).To(Equal(models.Row{"Bracket", "", ""}))
			Expect(page.RawItems[0].RecordID).To(Equal("o1"))
			Expect(page.RawItems[0].OwnerFlag).To(BeTrue())
		})

		It("fails the whole page when metadata cannot be fetched", func() {
			source.descErr = errors.New("boom")
			_, err := normalizer.Normalize(context.Background(), payload, reconcile.RequestContext{TypeID: "order"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an item carrying more values than columns", func() {
			long := []byte(`[{"itemId":"o1","values":["a","b","c","d"]}]`)
			_, err := normalizer.Normalize(context.Background(), long, reconcile.RequestContext{TypeID: "order"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an item without an id", func() {
			anonymous := []byte(`[{"values":["a"]}]`)
			_, err := normalizer.Normalize(context.Background(), anonymous, reconcile.RequestContext{TypeID: "order"})
			Expect(err).To(HaveOccurred())
		})
	})

	Context("object metadata", func() {
		payload := []byte(`{"id":"order","name":"Order","baseType":1,
			"requisites":[{"id":"qty","name":"Quantity","ownerTypeId":"order","baseType":4}]}`)

		It("fetches items in a second call scoped by parent", func() {
			source.items = []reconcile.TaggedItem{{ItemID: "o9", Values: []string{"Thing", "3"}}}
			page, err := normalizer.Normalize(context.Background(), payload, reconcile.RequestContext{ParentID: "c7"})
			Expect(err).ToNot(HaveOccurred())
			Expect(source.listCalls).To(Equal(1))
			Expect(source.lastParentID).To(Equal("c7"))
			Expect(page.Rows).To(HaveLen(1))
			Expect(page.Rows[0]).To(HaveLen(2))
		})
	})
})
