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

// Package resolve answers the parent-record question: which backend record,
// of which type, must receive the write when a given cell is edited. Edits
// do not always target the row's own record; reference cells target a
// linked record's attribute, and report pages have no record ids at all and
// must borrow them from sibling identifier columns.
package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// IDSuffix is the naming convention marking sibling identifier columns in
// report pages: the identifier column for "Task" is "TaskID".
const IDSuffix = "ID"

// Kind says which write endpoint a commit must use.
type Kind string

const (
	// KindPrimary writes the record's primary value.
	KindPrimary Kind = "primary"
	// KindRequisite writes a secondary attribute of the record.
	KindRequisite Kind = "requisite"
	// KindLink rewrites the linking attribute of a reference cell,
	// addressed through the owning record.
	KindLink Kind = "link"
)

// Resolution is a located write target.
type Resolution struct {
	// RecordID is the record the write is addressed to.
	RecordID string
	// RecordTypeID is that record's type.
	RecordTypeID string
	// OwnerRecordID is set for link writes: the row's own record, through
	// which the linking attribute is addressed.
	OwnerRecordID string
	Kind          Kind
	// IsFirstColumnOfRecord marks primary-value cells; the view renders
	// them as the record's title cell.
	IsFirstColumnOfRecord bool
}

// Schema is the global record-type schema, used only by the
// metadata-traversal regime.
type Schema interface {
	// IsTopLevelType reports whether the type id is a top-level record type.
	IsTopLevelType(typeID string) bool
	// OwnerOfRequisite returns the top-level type a requisite type belongs
	// to, when it belongs to one.
	OwnerOfRequisite(typeID string) (string, bool)
}

// Resolver locates write targets on a normalized page.
type Resolver struct {
	schema Schema
	logger *zap.SugaredLogger
}

// NewResolver creates a Resolver over the given schema.
func NewResolver(schema Schema) *Resolver {
	return &Resolver{
		schema: schema,
		logger: logger.For(logger.ComponentParentResolver),
	}
}

// Resolve determines the record a write for cell (columnID, rowIndex) must
// target. Two regimes exist: pages with RawItems carry their own record
// ids; report pages must traverse sibling columns. A metadata-level
// editable flag never overrides a failed resolution here; the two checks
// are deliberately separate, and this one is the stricter.
func (r *Resolver) Resolve(page *models.NormalizedPage, columnID string, rowIndex int) (Resolution, error) {
	col, ok := page.ColumnByID(columnID)
	if !ok {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: columnID, RowIndex: rowIndex}
	}
	cell, ok := page.Cell(rowIndex, columnID)
	if !ok {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: columnID, RowIndex: rowIndex}
	}

	if page.RawItems != nil {
		return r.resolveRawItem(page, col, cell, rowIndex)
	}
	return r.resolveTraversal(page, col, rowIndex)
}

// resolveRawItem handles pages whose records carry durable ids.
func (r *Resolver) resolveRawItem(page *models.NormalizedPage, col models.ColumnDescriptor, cell string, rowIndex int) (Resolution, error) {
	if rowIndex >= len(page.RawItems) {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
	}
	rawItem := page.RawItems[rowIndex]
	if rawItem.RecordID == "" {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
	}

	// A reference cell that carries its own id component targets the
	// linking attribute: the write is addressed through the owning record,
	// not the referenced one.
	if col.IsReference {
		if parts := models.SplitReference(cell, col); parts.ID != "" {
			return Resolution{
				RecordID:      parts.ID,
				RecordTypeID:  col.ReferencedTypeID,
				OwnerRecordID: rawItem.RecordID,
				Kind:          KindLink,
			}, nil
		}
	}

	// The cell is the record's primary value exactly when the column id is
	// the type id that produced the page.
	if col.ID == page.TypeID {
		return Resolution{
			RecordID:              rawItem.RecordID,
			RecordTypeID:          page.TypeID,
			Kind:                  KindPrimary,
			IsFirstColumnOfRecord: true,
		}, nil
	}

	recordType := col.OwnerRecordTypeID
	if recordType == "" {
		recordType = page.TypeID
	}
	return Resolution{
		RecordID:     rawItem.RecordID,
		RecordTypeID: recordType,
		Kind:         KindRequisite,
	}, nil
}

// resolveTraversal handles report pages, which expose no record ids: the id
// must come from a sibling column of the same page whose declared type
// matches and whose name carries the identifier suffix.
func (r *Resolver) resolveTraversal(page *models.NormalizedPage, col models.ColumnDescriptor, rowIndex int) (Resolution, error) {
	if col.TypeID == "" {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
	}

	// Case (a): the column's type is itself a top-level record type. The
	// sibling must be "<thisColumn>ID" of that same type.
	if r.schema.IsTopLevelType(col.TypeID) {
		wantName := col.Name + IDSuffix
		for _, sibling := range page.Columns {
			if sibling.ID == col.ID || sibling.TypeID != col.TypeID || sibling.Name != wantName {
				continue
			}
			return r.resolutionFromSibling(page, col, sibling, rowIndex, col.TypeID, KindPrimary)
		}
		r.logger.Debugf("No sibling %q of type %s for column %s", wantName, col.TypeID, col.ID)
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
	}

	// Case (b): the column's type is a requisite of some top-level type T.
	// Any sibling of type T with the identifier suffix qualifies; its name
	// need not relate to this column's.
	if owner, ok := r.schema.OwnerOfRequisite(col.TypeID); ok {
		for _, sibling := range page.Columns {
			if sibling.TypeID != owner || !strings.HasSuffix(sibling.Name, IDSuffix) {
				continue
			}
			return r.resolutionFromSibling(page, col, sibling, rowIndex, owner, KindRequisite)
		}
		r.logger.Debugf("No identifier sibling of owner type %s for column %s", owner, col.ID)
	}

	return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
}

// resolutionFromSibling reads the record id out of the sibling's cell in
// the same row. An empty id cell fails resolution rather than guessing.
func (r *Resolver) resolutionFromSibling(page *models.NormalizedPage, col, sibling models.ColumnDescriptor, rowIndex int, recordType string, kind Kind) (Resolution, error) {
	id, ok := page.Cell(rowIndex, sibling.ID)
	if !ok || strings.TrimSpace(id) == "" {
		return Resolution{}, &griderrors.ResolutionFailure{ColumnID: col.ID, RowIndex: rowIndex}
	}
	return Resolution{
		RecordID:              id,
		RecordTypeID:          recordType,
		Kind:                  kind,
		IsFirstColumnOfRecord: kind == KindPrimary,
	}, nil
}

// Editable reports whether the cell can actually be edited: the column's
// metadata flag and a successful resolution are both required.
func (r *Resolver) Editable(page *models.NormalizedPage, columnID string, rowIndex int) bool {
	col, ok := page.ColumnByID(columnID)
	if !ok || !col.Editable {
		return false
	}
	_, err := r.Resolve(page, columnID, rowIndex)
	return err == nil
}
