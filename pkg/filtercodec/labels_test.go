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

package filtercodec_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// countingResolver serves labels from a map and counts lookups.
type countingResolver struct {
	labels map[string]string
	calls  atomic.Int64
	err    error
}

func (r *countingResolver) ResolveLabel(_ context.Context, _ string, recordID string) (string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return "", r.err
	}
	return r.labels[recordID], nil
}

var referenceColumns = []models.ColumnDescriptor{
	{ID: "customer", Name: "Customer", BaseType: models.BaseTypeReference, IsReference: true, ReferencedTypeID: "customer"},
}

var _ = Describe("LabelCache", func() {
	var resolver *countingResolver
	var cache *filtercodec.LabelCache

	BeforeEach(func() {
		resolver = &countingResolver{labels: map[string]string{"42": "ACME GmbH"}}
		cache = filtercodec.NewLabelCache(resolver)
	})

	It("fills labels for identifier filters", func() {
		state := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpEquals, RawValue: "@42"},
		}
		Expect(cache.ResolveAll(context.Background(), state, referenceColumns)).To(Succeed())
		Expect(state["customer"].ResolvedLabel).To(Equal("ACME GmbH"))
		// The raw value stays authoritative.
		Expect(state["customer"].RawValue).To(Equal("@42"))
	})

	It("serves repeated lookups from cache", func() {
		state := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpEquals, RawValue: "@42"},
		}
		Expect(cache.ResolveAll(context.Background(), state, referenceColumns)).To(Succeed())

		fresh := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpEquals, RawValue: "@42"},
		}
		Expect(cache.ResolveAll(context.Background(), fresh, referenceColumns)).To(Succeed())
		Expect(fresh["customer"].ResolvedLabel).To(Equal("ACME GmbH"))
		Expect(resolver.calls.Load()).To(Equal(int64(1)))
	})

	It("leaves free-text filters alone", func() {
		state := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpContains, RawValue: "acme"},
		}
		Expect(cache.ResolveAll(context.Background(), state, referenceColumns)).To(Succeed())
		Expect(state["customer"].ResolvedLabel).To(BeEmpty())
		Expect(resolver.calls.Load()).To(BeZero())
	})

	It("swallows lookup failures, keeping the raw sentinel usable", func() {
		resolver.err = errors.New("backend down")
		state := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpEquals, RawValue: "@42"},
		}
		Expect(cache.ResolveAll(context.Background(), state, referenceColumns)).To(Succeed())
		Expect(state["customer"].ResolvedLabel).To(BeEmpty())
		Expect(state["customer"].RawValue).To(Equal("@42"))
	})

	It("does not refill a condition that already carries a label", func() {
		state := filtercodec.FilterState{
			"customer": {Operator: filtercodec.OpEquals, RawValue: "@42", ResolvedLabel: "cached"},
		}
		Expect(cache.ResolveAll(context.Background(), state, referenceColumns)).To(Succeed())
		Expect(state["customer"].ResolvedLabel).To(Equal("cached"))
		Expect(resolver.calls.Load()).To(BeZero())
	})
})
