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

package settings_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/settings"
)

var _ = Describe("MemoryStore", func() {
	var store *settings.MemoryStore
	ctx := context.Background()

	BeforeEach(func() {
		store = settings.NewMemoryStore()
	})

	It("reports a missing key without an error", func() {
		_, found, err := store.Get(ctx, "nope")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("round trips a value", func() {
		Expect(store.Set(ctx, "k", []byte("v"))).To(Succeed())
		value, found, err := store.Get(ctx, "k")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal([]byte("v")))
	})

	It("isolates stored bytes from caller mutation", func() {
		buf := []byte("original")
		Expect(store.Set(ctx, "k", buf)).To(Succeed())
		buf[0] = 'X'

		value, _, err := store.Get(ctx, "k")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(value)).To(Equal("original"))
	})

	It("deletes idempotently", func() {
		Expect(store.Set(ctx, "k", []byte("v"))).To(Succeed())
		Expect(store.Delete(ctx, "k")).To(Succeed())
		Expect(store.Delete(ctx, "k")).To(Succeed())

		_, found, _ := store.Get(ctx, "k")
		Expect(found).To(BeFalse())
	})
})

var _ = Describe("Manager", func() {
	var store *settings.MemoryStore
	var manager *settings.Manager
	ctx := context.Background()

	BeforeEach(func() {
		store = settings.NewMemoryStore()
		manager = settings.NewManager(store)
	})

	It("returns defaults for an unknown grid", func() {
		loaded, err := manager.Load(ctx, "grid-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.PageSize).To(Equal(constants.DefaultPageSize))
		Expect(loaded.ColumnOrder).To(BeEmpty())
	})

	It("round trips saved settings", func() {
		saved := settings.DisplaySettings{
			ColumnOrder:    []string{"qty", "name"},
			VisibleColumns: []string{"name"},
			ColumnWidths:   map[string]int{"name": 240},
			PageSize:       50,
			CompactMode:    true,
		}
		Expect(manager.Save(ctx, "grid-1", saved)).To(Succeed())

		loaded, err := manager.Load(ctx, "grid-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded).To(Equal(saved))
	})

	It("falls back to defaults for unparsable stored bytes", func() {
		Expect(store.Set(ctx, "grid-1", []byte("not json"))).To(Succeed())

		loaded, err := manager.Load(ctx, "grid-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.PageSize).To(Equal(constants.DefaultPageSize))
	})

	It("repairs a stored non-positive page size", func() {
		Expect(store.Set(ctx, "grid-1", []byte(`{"pageSize":-3}`))).To(Succeed())

		loaded, err := manager.Load(ctx, "grid-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.PageSize).To(Equal(constants.DefaultPageSize))
	})

	It("forgets settings on Reset", func() {
		Expect(manager.Save(ctx, "grid-1", settings.DisplaySettings{PageSize: 50})).To(Succeed())
		Expect(manager.Reset(ctx, "grid-1")).To(Succeed())

		loaded, err := manager.Load(ctx, "grid-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.PageSize).To(Equal(constants.DefaultPageSize))
	})
})
