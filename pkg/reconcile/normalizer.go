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

// Package reconcile classifies the backend's three JSON wire shapes and
// normalizes each of them into the single row/column model of pkg/models.
package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/metrics"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/tools/safejson"
)

// Normalizer turns classified payloads into NormalizedPages. The tagged and
// metadata shapes need collaborators: tagged items carry no column metadata,
// and a metadata object carries no items.
type Normalizer struct {
	meta   MetadataSource
	items  ItemSource
	logger *zap.SugaredLogger
}

// NewNormalizer creates a Normalizer backed by the given metadata and item
// sources.
func NewNormalizer(meta MetadataSource, items ItemSource) *Normalizer {
	return &Normalizer{
		meta:   meta,
		items:  items,
		logger: logger.For(logger.ComponentReconciler),
	}
}

// Normalize classifies payload and produces a NormalizedPage.
//
// Failure semantics: a malformed or empty payload fails the whole page, and
// a metadata fetch failure aborts before any rows exist. Partial pages are
// never returned, and nothing is retried here.
func (n *Normalizer) Normalize(ctx context.Context, payload []byte, reqCtx RequestContext) (*models.NormalizedPage, error) {
	format, err := Classify(payload, reqCtx)
	if err != nil {
		metrics.IncErrorCount(metrics.ComponentReconciler, string(format))
		return nil, err
	}

	var page *models.NormalizedPage
	switch format {
	case FormatColumnReport:
		page, err = n.normalizeReport(payload)
	case FormatTaggedArray:
		page, err = n.normalizeTagged(ctx, payload, reqCtx)
	case FormatObjectMetadata:
		page, err = n.normalizeMetadata(ctx, payload, reqCtx)
	}
	if err != nil {
		metrics.IncErrorCount(metrics.ComponentReconciler, string(format))
		return nil, err
	}

	n.logger.Debugf("Normalized %s page: %d columns, %d rows", format, len(page.Columns), len(page.Rows))
	metrics.ObservePageNormalized(string(format), len(page.Rows))
	return page, nil
}

// normalizeReport transposes the column-major report into row-major order.
// The report carries its own headers, and no durable record ids exist, so no
// RawItems are produced.
func (n *Normalizer) normalizeReport(payload []byte) (*models.NormalizedPage, error) {
	var report columnReport
	if err := safejson.Unmarshal(payload, &report); err != nil {
		return nil, griderrors.Malformedf("column report not parsable: %v", err)
	}
	if len(report.Columns) == 0 {
		return nil, &griderrors.MalformedResponseError{Reason: "column report without columns"}
	}
	if len(report.Data) != len(report.Columns) {
		return nil, griderrors.Malformedf("column report has %d data columns for %d headers",
			len(report.Data), len(report.Columns))
	}

	rowCount := len(report.Data[0])
	for i, col := range report.Data {
		if len(col) != rowCount {
			return nil, griderrors.Malformedf("ragged column report: column %d has %d values, expected %d",
				i, len(col), rowCount)
		}
	}

	columns := make([]models.ColumnDescriptor, len(report.Columns))
	for i, rc := range report.Columns {
		bt := models.BaseTypeFromWireCode(rc.BaseType)
		columns[i] = models.ColumnDescriptor{
			ID:               rc.ID,
			Name:             rc.Name,
			TypeID:           rc.TypeID,
			BaseType:         bt,
			IsReference:      bt == models.BaseTypeReference,
			ReferencedTypeID: rc.RefTypeID,
			Editable:         rc.Editable,
		}
	}

	rows := make([]models.Row, rowCount)
	for r := 0; r < rowCount; r++ {
		row := make(models.Row, len(columns))
		for c := range columns {
			row[c] = renderScalar(report.Data[c][r])
		}
		rows[r] = row
	}

	return &models.NormalizedPage{Columns: columns, Rows: rows}, nil
}

// normalizeTagged builds a page from tagged items plus separately fetched
// column metadata, keyed by the type id from the request context.
func (n *Normalizer) normalizeTagged(ctx context.Context, payload []byte, reqCtx RequestContext) (*models.NormalizedPage, error) {
	if reqCtx.TypeID == "" {
		return nil, &griderrors.MalformedResponseError{Reason: "tagged array without a type id in the request context"}
	}

	var items []TaggedItem
	if err := safejson.Unmarshal(payload, &items); err != nil {
		return nil, griderrors.Malformedf("tagged array not parsable: %v", err)
	}

	desc, err := n.meta.DescribeType(ctx, reqCtx.TypeID)
	if err != nil {
		// Abort before any rows are shown; the caller surfaces this.
		return nil, err
	}

	return n.pageFromItems(desc, items)
}

// normalizeMetadata handles the object shape: the object itself is the
// column metadata, the items come from a second call filtered by the
// described type and the optional parent.
func (n *Normalizer) normalizeMetadata(ctx context.Context, payload []byte, reqCtx RequestContext) (*models.NormalizedPage, error) {
	var desc TypeDescriptor
	if err := safejson.Unmarshal(payload, &desc); err != nil {
		return nil, griderrors.Malformedf("metadata object not parsable: %v", err)
	}
	if desc.ID == "" {
		return nil, &griderrors.MalformedResponseError{Reason: "metadata object without an id"}
	}

	items, err := n.items.ListItems(ctx, desc.ID, reqCtx.ParentID)
	if err != nil {
		return nil, err
	}

	return n.pageFromItems(&desc, items)
}

// pageFromItems assembles the page shared by the tagged and metadata paths.
// The items themselves become the RawItems; short value lists are padded so
// every row has exactly one cell per column.
func (n *Normalizer) pageFromItems(desc *TypeDescriptor, items []TaggedItem) (*models.NormalizedPage, error) {
	columns := desc.Columns()

	rows := make([]models.Row, len(items))
	rawItems := make([]models.RawItem, len(items))
	for i, item := range items {
		if item.ItemID == "" {
			return nil, griderrors.Malformedf("tagged item %d without an item id", i)
		}
		if len(item.Values) > len(columns) {
			return nil, griderrors.Malformedf("tagged item %d carries %d values for %d columns",
				i, len(item.Values), len(columns))
		}

		row := make(models.Row, len(columns))
		copy(row, item.Values)
		rows[i] = row
		rawItems[i] = models.RawItem{
			RecordID:       item.ItemID,
			ParentRecordID: item.OwnerID,
			OwnerFlag:      item.OwnerFlag != 0,
			Values:         item.Values,
		}
	}

	return &models.NormalizedPage{
		TypeID:   desc.ID,
		Columns:  columns,
		Rows:     rows,
		RawItems: rawItems,
	}, nil
}
