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

package reconcile

import (
	"context"
	"strconv"

	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// Format tags one of the three wire shapes the backend serves.
type Format string

const (
	// FormatColumnReport is the column-major report shape: headers plus
	// data[colIndex][rowIndex].
	FormatColumnReport Format = "column_report"
	// FormatTaggedArray is the flat array of per-record envelopes.
	FormatTaggedArray Format = "tagged_array"
	// FormatObjectMetadata is the single metadata object whose requisite
	// list doubles as column metadata.
	FormatObjectMetadata Format = "object_metadata"
)

// RequestContext carries what the normalizer knows about the request that
// produced a payload. The payload alone cannot always be classified (an
// empty array) or normalized (tagged items carry no column metadata).
type RequestContext struct {
	// TypeID is the record type the requesting endpoint addresses.
	TypeID string
	// ParentID optionally filters the item list of a metadata-described type.
	ParentID string
	// ExpectTagged marks endpoints known to serve the tagged-array shape,
	// so an empty array can still be classified.
	ExpectTagged bool
}

// TaggedItem is one element of the tagged-array shape, and also the shape of
// the item list fetched for a metadata-described type.
type TaggedItem struct {
	ItemID    string   `json:"itemId"`
	OwnerID   string   `json:"ownerId"`
	Values    []string `json:"values"`
	OwnerFlag int      `json:"ownerFlag"`
}

// RequisiteDescriptor is the wire form of a secondary attribute's metadata.
type RequisiteDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerTypeID string `json:"ownerTypeId"`
	RefTypeID   string `json:"refTypeId"`
	BaseType    int    `json:"baseType"`
	Editable    bool   `json:"editable"`
}

// TypeDescriptor is the wire form of the metadata-describe endpoint, and of
// the object-metadata read shape itself.
type TypeDescriptor struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	RefTypeID  string                `json:"refTypeId"`
	Requisites []RequisiteDescriptor `json:"requisites"`
	BaseType   int                   `json:"baseType"`
	Editable   bool                  `json:"editable"`
}

// reportColumn is one header entry of the column-report shape.
type reportColumn struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TypeID    string `json:"typeId"`
	RefTypeID string `json:"refTypeId"`
	BaseType  int    `json:"baseType"`
	Editable  bool   `json:"editable"`
}

// columnReport is the column-major report shape.
type columnReport struct {
	Columns []reportColumn `json:"columns"`
	Data    [][]any        `json:"data"`
}

// MetadataSource fetches column metadata for a record type. Backed by the
// API client in production, stubbed in tests.
type MetadataSource interface {
	DescribeType(ctx context.Context, typeID string) (*TypeDescriptor, error)
}

// ItemSource fetches the item list of a metadata-described type, optionally
// filtered by parent record.
type ItemSource interface {
	ListItems(ctx context.Context, typeID, parentID string) ([]TaggedItem, error)
}

// Columns derives the page column set from a type descriptor: the type's own
// value first (column id equals the type id), then its requisites in
// declared order.
func (t *TypeDescriptor) Columns() []models.ColumnDescriptor {
	cols := make([]models.ColumnDescriptor, 0, len(t.Requisites)+1)
	cols = append(cols, models.ColumnDescriptor{
		ID:          t.ID,
		Name:        t.Name,
		TypeID:      t.ID,
		BaseType:    models.BaseTypeFromWireCode(t.BaseType),
		IsReference: models.BaseTypeFromWireCode(t.BaseType) == models.BaseTypeReference,
		ReferencedTypeID: t.RefTypeID,
		Editable:    t.Editable,
	})
	for _, r := range t.Requisites {
		bt := models.BaseTypeFromWireCode(r.BaseType)
		owner := r.OwnerTypeID
		if owner == "" {
			owner = t.ID
		}
		cols = append(cols, models.ColumnDescriptor{
			ID:                r.ID,
			Name:              r.Name,
			TypeID:            owner,
			BaseType:          bt,
			IsReference:       bt == models.BaseTypeReference,
			ReferencedTypeID:  r.RefTypeID,
			OwnerRecordTypeID: owner,
			Editable:          r.Editable,
		})
	}
	return cols
}

// renderScalar turns a decoded JSON scalar into its canonical cell string.
func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
