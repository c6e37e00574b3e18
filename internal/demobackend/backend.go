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

// Package demobackend is an in-memory record backend implementing the full
// API contract the engine talks to: all three read shapes, metadata
// describe, writes, create, delete, count, labels and version. The demo
// binary runs it standalone; the integration suite mounts it in httptest.
package demobackend

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/reconcile"
)

// Version is what the /v1/version endpoint reports.
const Version = "1.2.0"

// Served record types.
const (
	TypeOrder      = "order"      // tagged-array shape
	TypeMaterial   = "material"   // object-metadata shape (two calls)
	TypeTaskReport = "taskreport" // column-report shape
)

// record is one stored record: its id plus the positional values aligned
// with the type's column set.
type record struct {
	id      string
	ownerID string
	values  []string
}

// Backend is the in-memory record store plus its HTTP surface.
type Backend struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger

	types  map[string]*reconcile.TypeDescriptor
	items  map[string][]*record
	labels map[string]map[string]string

	nextID int
}

// New creates a Backend pre-filled with a small demo dataset.
func New() *Backend {
	b := &Backend{
		logger: logger.For(logger.ComponentBackend),
		types:  make(map[string]*reconcile.TypeDescriptor),
		items:  make(map[string][]*record),
		labels: make(map[string]map[string]string),
		nextID: 100,
	}
	b.seed()
	return b
}

func (b *Backend) seed() {
	b.types[TypeOrder] = &reconcile.TypeDescriptor{
		ID:       TypeOrder,
		Name:     "Order",
		BaseType: 1,
		Editable: true,
		Requisites: []reconcile.RequisiteDescriptor{
			{ID: "qty", Name: "Quantity", OwnerTypeID: TypeOrder, BaseType: 4, Editable: true},
			{ID: "due", Name: "Due", OwnerTypeID: TypeOrder, BaseType: 6, Editable: true},
			{ID: "customer", Name: "Customer", OwnerTypeID: TypeOrder, RefTypeID: "customer", BaseType: 13, Editable: true},
		},
	}
	b.items[TypeOrder] = []*record{
		{id: "o1", ownerID: "c1", values: []string{"Widget assembly", "5", "2026-03-01", "c1:ACME GmbH"}},
		{id: "o2", ownerID: "c1", values: []string{"Bracket milling", "120", "2026-02-12", "c1:ACME GmbH"}},
		{id: "o3", ownerID: "c2", values: []string{"Housing print", "12", "2026-04-20", "c2:Mustermann AG"}},
	}

	b.types[TypeMaterial] = &reconcile.TypeDescriptor{
		ID:       TypeMaterial,
		Name:     "Material",
		BaseType: 1,
		Editable: true,
		Requisites: []reconcile.RequisiteDescriptor{
			{ID: "stock", Name: "Stock", OwnerTypeID: TypeMaterial, BaseType: 5, Editable: true},
			{ID: "unit", Name: "Unit", OwnerTypeID: TypeMaterial, BaseType: 1},
		},
	}
	b.items[TypeMaterial] = []*record{
		{id: "m1", values: []string{"Aluminium 6061", "42.5", "kg"}},
		{id: "m2", values: []string{"PLA filament", "7.25", "kg"}},
	}

	b.labels["customer"] = map[string]string{
		"c1": "ACME GmbH",
		"c2": "Mustermann AG",
	}
}

// Router builds the gin engine with every route of the backend contract.
func (b *Backend) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	v1.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	})
	v1.GET("/types/:typeID", b.describeType)
	v1.GET("/labels/:typeID/:recordID", b.resolveLabel)

	v1.GET("/records/:typeID", b.readPage)
	v1.GET("/records/:typeID/items", b.listItems)
	v1.GET("/records/:typeID/count", b.count)
	v1.POST("/records/:typeID", b.create)
	v1.POST("/records/:typeID/:recordID/primary", b.writePrimary)
	v1.POST("/records/:typeID/:recordID/attributes/:columnID", b.writeSecondary)
	v1.DELETE("/records/:typeID/:recordID", b.deleteRecord)

	return router
}

func (b *Backend) describeType(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	desc, ok := b.types[c.Param("typeID")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (b *Backend) resolveLabel(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	label, ok := b.labels[c.Param("typeID")][c.Param("recordID")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label})
}

// readPage serves the type's native shape: tagged array for orders, the
// bare metadata object for materials, a column report for the task report.
func (b *Backend) readPage(c *gin.Context) {
	typeID := c.Param("typeID")

	switch typeID {
	case TypeTaskReport:
		b.mu.Lock()
		defer b.mu.Unlock()
		c.JSON(http.StatusOK, taskReport())
		return

	case TypeMaterial:
		// Object-metadata shape: the first call answers with metadata only,
		// the items come from the second call.
		b.describeType(c)
		return

	default:
		b.mu.Lock()
		defer b.mu.Unlock()
		items, ok := b.matchingItems(typeID, c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
			return
		}
		c.JSON(http.StatusOK, b.window(items, c))
	}
}

func (b *Backend) listItems(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, ok := b.matchingItems(c.Param("typeID"), c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
		return
	}
	c.JSON(http.StatusOK, b.window(items, c))
}

func (b *Backend) count(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, ok := b.matchingItems(c.Param("typeID"), c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items)})
}

// matchingItems applies the parentId and FR_ filter parameters. The demo
// supports the equality and wrapping-% conventions, enough to drive the
// engine's filter round trip.
func (b *Backend) matchingItems(typeID string, c *gin.Context) ([]*record, bool) {
	desc, ok := b.types[typeID]
	if !ok {
		return nil, false
	}
	all := b.items[typeID]

	parentID := c.Query("parentId")
	var filtered []*record
	for _, item := range all {
		if parentID != "" && item.ownerID != parentID {
			continue
		}
		if b.matchesFilters(desc, item, c) {
			filtered = append(filtered, item)
		}
	}

	if sortBy := c.Query("sortBy"); sortBy != "" {
		idx := b.columnIndex(desc, sortBy)
		if idx >= 0 {
			descending := c.Query("sortDir") == "desc"
			sort.SliceStable(filtered, func(i, j int) bool {
				less := filtered[i].values[idx] < filtered[j].values[idx]
				if descending {
					return !less
				}
				return less
			})
		}
	}
	return filtered, true
}

func (b *Backend) matchesFilters(desc *reconcile.TypeDescriptor, item *record, c *gin.Context) bool {
	for key, vals := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "FR_") || len(vals) == 0 || vals[0] == "" {
			continue
		}
		idx := b.columnIndex(desc, strings.TrimPrefix(key, "FR_"))
		if idx < 0 {
			continue
		}
		want := vals[0]
		have := item.values[idx]

		switch {
		case strings.HasPrefix(want, "%") && strings.HasSuffix(want, "%") && len(want) > 1:
			if !strings.Contains(strings.ToLower(have), strings.ToLower(strings.Trim(want, "%"))) {
				return false
			}
		case strings.HasPrefix(want, "@"):
			// Identifier filter: match the id component of a reference cell.
			id, _, _ := strings.Cut(have, ":")
			if id != strings.TrimPrefix(want, "@") {
				return false
			}
		default:
			if !strings.EqualFold(have, want) {
				return false
			}
		}
	}
	return true
}

// columnIndex maps a column id to its positional value index: 0 for the
// type's own value, 1+n for requisite n.
func (b *Backend) columnIndex(desc *reconcile.TypeDescriptor, columnID string) int {
	if columnID == desc.ID {
		return 0
	}
	for i, r := range desc.Requisites {
		if r.ID == columnID {
			return i + 1
		}
	}
	return -1
}

// window applies limit/offset and converts to wire items.
func (b *Backend) window(items []*record, c *gin.Context) []reconcile.TaggedItem {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	out := make([]reconcile.TaggedItem, 0, len(items))
	for _, item := range items {
		ownerFlag := 0
		if item.ownerID != "" {
			ownerFlag = 1
		}
		out = append(out, reconcile.TaggedItem{
			ItemID:    item.id,
			OwnerID:   item.ownerID,
			Values:    item.values,
			OwnerFlag: ownerFlag,
		})
	}
	return out
}

// writeBody is the body of every single-value write.
type writeBody struct {
	Value string `json:"value"`
}

func (b *Backend) writePrimary(c *gin.Context) {
	b.writeValue(c, true)
}

func (b *Backend) writeSecondary(c *gin.Context) {
	b.writeValue(c, false)
}

func (b *Backend) writeValue(c *gin.Context, primary bool) {
	var body writeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad write body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	typeID := c.Param("typeID")
	desc, ok := b.types[typeID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
		return
	}
	item := b.findRecord(typeID, c.Param("recordID"))
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown record"})
		return
	}

	idx := 0
	if !primary {
		idx = b.columnIndex(desc, c.Param("columnID"))
		if idx < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown column"})
			return
		}
	}

	// A primary value colliding with an existing record's is accepted but
	// answered with a warning naming the conflicting record, exercising the
	// keep-form-open path.
	if primary {
		for _, other := range b.items[typeID] {
			if other.id != item.id && other.values[0] == body.Value {
				item.values[0] = body.Value
				c.JSON(http.StatusOK, gin.H{
					"warning":          "another record already carries this value",
					"conflictRecordId": other.id,
				})
				return
			}
		}
	}

	item.values[idx] = body.Value
	b.logger.Debugf("Wrote %s/%s value %d", typeID, item.id, idx)
	c.JSON(http.StatusOK, gin.H{})
}

// createBody is the record creation body.
type createBody struct {
	Values map[string]string `json:"values"`
}

func (b *Backend) create(c *gin.Context) {
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad create body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	typeID := c.Param("typeID")
	desc, ok := b.types[typeID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown type"})
		return
	}

	values := make([]string, len(desc.Requisites)+1)
	for columnID, value := range body.Values {
		if idx := b.columnIndex(desc, columnID); idx >= 0 {
			values[idx] = value
		}
	}

	b.nextID++
	item := &record{id: "r" + strconv.Itoa(b.nextID), values: values}
	b.items[typeID] = append(b.items[typeID], item)
	c.JSON(http.StatusOK, gin.H{"recordId": item.id})
}

func (b *Backend) deleteRecord(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	typeID := c.Param("typeID")
	recordID := c.Param("recordID")
	items := b.items[typeID]
	for i, item := range items {
		if item.id == recordID {
			b.items[typeID] = append(items[:i], items[i+1:]...)
			c.JSON(http.StatusOK, gin.H{})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown record"})
}

func (b *Backend) findRecord(typeID, recordID string) *record {
	for _, item := range b.items[typeID] {
		if item.id == recordID {
			return item
		}
	}
	return nil
}
