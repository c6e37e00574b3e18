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

package sharetoken_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/sharetoken"
)

var _ = Describe("ShareToken", func() {
	smallState := sharetoken.State{
		Filters: filtercodec.FilterState{
			"name": {Operator: filtercodec.OpContains, RawValue: "bolt"},
		},
		GroupColumns:   []string{"customer"},
		Sort:           models.SortSpec{ColumnID: "qty", Descending: true},
		ColumnOrder:    []string{"name", "qty", "customer"},
		VisibleColumns: []string{"name", "qty"},
	}

	It("round trips a typical state", func() {
		token, err := sharetoken.Encode(smallState)
		Expect(err).ToNot(HaveOccurred())

		decoded, err := sharetoken.Decode(token)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded).To(Equal(smallState))
	})

	It("keeps small states uncompressed and URL safe", func() {
		token, err := sharetoken.Encode(smallState)
		Expect(err).ToNot(HaveOccurred())
		Expect(len(token)).To(BeNumerically("<=", constants.MaxPlainTokenLen))
		Expect(token).ToNot(ContainSubstring("+"))
		Expect(token).ToNot(ContainSubstring("/"))
		Expect(token).ToNot(ContainSubstring("="))
	})

	It("is stable under re-encoding", func() {
		token, err := sharetoken.Encode(smallState)
		Expect(err).ToNot(HaveOccurred())

		decoded, err := sharetoken.Decode(token)
		Expect(err).ToNot(HaveOccurred())

		again, err := sharetoken.Encode(decoded)
		Expect(err).ToNot(HaveOccurred())

		final, err := sharetoken.Decode(again)
		Expect(err).ToNot(HaveOccurred())
		Expect(final).To(Equal(decoded))
	})

	It("compresses oversized states transparently", func() {
		big := sharetoken.State{Filters: filtercodec.FilterState{}}
		for i := 0; i < 200; i++ {
			col := fmt.Sprintf("column_with_a_rather_long_identifier_%d", i)
			big.Filters[col] = filtercodec.Condition{
				Operator: filtercodec.OpContains,
				RawValue: fmt.Sprintf("search term number %d", i),
			}
			big.ColumnOrder = append(big.ColumnOrder, col)
		}

		token, err := sharetoken.Encode(big)
		Expect(err).ToNot(HaveOccurred())

		// The plain form would be far past the URL limit; the compressed
		// token must still decode to the same state.
		decoded, err := sharetoken.Decode(token)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Filters).To(HaveLen(200))
		Expect(decoded.ColumnOrder).To(Equal(big.ColumnOrder))
		Expect(decoded.Filters["column_with_a_rather_long_identifier_7"].RawValue).
			To(Equal("search term number 7"))
	})

	DescribeTable("rejecting malformed tokens",
		func(token string) {
			_, err := sharetoken.Decode(token)
			Expect(err).To(HaveOccurred())
		},
		Entry("not base64url", "%%%not-base64%%%"),
		Entry("empty token", ""),
		Entry("marker without payload body", "eg"), // base64url("z")
		Entry("valid base64 of non-JSON", "bm90IGpzb24"),
	)
})
