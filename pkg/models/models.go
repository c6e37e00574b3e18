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

// Package models holds the row/column model every backend wire shape is
// normalized into, plus the composite reference value helpers shared by the
// codec, grouping and resolution layers.
package models

// ColumnDescriptor describes one column of a fetched page. Descriptors are
// created once per page from metadata or report headers and are immutable for
// the page's lifetime. Columns are not shared across pages: a refetch
// produces a fresh set even when ids repeat.
type ColumnDescriptor struct {
	// ID is unique within a page.
	ID string
	// Name is the display name, also used for sibling lookup during
	// parent-record resolution.
	Name string
	// TypeID is the record type this column's values belong to. For report
	// columns it drives sibling-identifier lookup during parent-record
	// resolution.
	TypeID string
	// BaseType is the declared value type.
	BaseType BaseType
	// IsReference marks columns whose cells carry "<id>:<label>" composites.
	IsReference bool
	// ReferencedTypeID is the record type a reference column points at.
	ReferencedTypeID string
	// OwnerRecordTypeID is the record type a value column's edits must be
	// posted against, when the backend declares one.
	OwnerRecordTypeID string
	// Editable is the metadata-level edit flag. Resolvability of a concrete
	// record id is a separate, stricter check.
	Editable bool
}

// Row is an ordered sequence of cell values aligned positionally with the
// column order used during normalization. The cell at index k always
// corresponds to Columns[k] of the same page; display-order changes applied
// by a view layer never touch storage order.
type Row []string

// RawItem is the backend's durable per-record envelope, present only for the
// identifier-bearing wire shapes. One RawItem per Row at the same index.
// Synthetic row positions cannot serve as durable ids; RecordID can.
type RawItem struct {
	RecordID       string
	ParentRecordID string
	OwnerFlag      bool
	Values         []string
}

// NormalizedPage is the uniform result of classifying and normalizing one
// backend response.
type NormalizedPage struct {
	// TypeID is the record type that produced this page, when known.
	TypeID   string
	Columns  []ColumnDescriptor
	Rows     []Row
	// RawItems is nil for the column-report shape.
	RawItems []RawItem
}

// ColumnIndex returns the storage index of the column with the given id,
// or -1 if the page has no such column.
func (p *NormalizedPage) ColumnIndex(columnID string) int {
	for i := range p.Columns {
		if p.Columns[i].ID == columnID {
			return i
		}
	}
	return -1
}

// ColumnByID returns the descriptor for the given column id.
func (p *NormalizedPage) ColumnByID(columnID string) (ColumnDescriptor, bool) {
	if i := p.ColumnIndex(columnID); i >= 0 {
		return p.Columns[i], true
	}
	return ColumnDescriptor{}, false
}

// Cell returns the value at (rowIndex, columnID). ok is false when either
// coordinate is out of range.
func (p *NormalizedPage) Cell(rowIndex int, columnID string) (string, bool) {
	if rowIndex < 0 || rowIndex >= len(p.Rows) {
		return "", false
	}
	ci := p.ColumnIndex(columnID)
	if ci < 0 || ci >= len(p.Rows[rowIndex]) {
		return "", false
	}
	return p.Rows[rowIndex][ci], true
}

// SetCell overwrites the value at (rowIndex, columnID) in place. Exactly one
// cell changes per committed edit.
func (p *NormalizedPage) SetCell(rowIndex int, columnID string, value string) bool {
	if rowIndex < 0 || rowIndex >= len(p.Rows) {
		return false
	}
	ci := p.ColumnIndex(columnID)
	if ci < 0 || ci >= len(p.Rows[rowIndex]) {
		return false
	}
	p.Rows[rowIndex][ci] = value
	return true
}
