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

// Package client talks to the backend record API: the three read shapes,
// metadata describe, the write/create/delete endpoints, count, and label
// lookup. One Client instance serves one backend; it satisfies the
// collaborator interfaces of reconcile, filtercodec and editsession.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/reconcile"
)

// MinBackendVersion is the oldest backend this engine understands; older
// ones predate the tagged-array read shape.
var MinBackendVersion = semver.MustParse("1.0.0")

// API routes.
const (
	endpointRecords = "/v1/records"
	endpointTypes   = "/v1/types"
	endpointLabels  = "/v1/labels"
	endpointVersion = "/v1/version"
)

// Client is the HTTP client for one backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: GetClient(),
		logger:     logger.For(logger.ComponentClient),
	}
}

// PageQuery names one page read. Filters carry the already-encoded FR_/TO_
// parameters; the codec owns that convention, not the client.
type PageQuery struct {
	TypeID   string
	ParentID string
	Filters  url.Values
	Sort     *models.SortSpec
	Limit    int
	Offset   int
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	for key, vals := range q.Filters {
		v[key] = vals
	}
	if q.ParentID != "" {
		v.Set("parentId", q.ParentID)
	}
	if q.Sort != nil && q.Sort.ColumnID != "" {
		v.Set("sortBy", q.Sort.ColumnID)
		if q.Sort.Descending {
			v.Set("sortDir", "desc")
		} else {
			v.Set("sortDir", "asc")
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// ReadPage fetches one page of records. The body is returned raw; the
// backend is free to answer in any of its three shapes, and classification
// happens in reconcile, not here.
func (c *Client) ReadPage(ctx context.Context, query PageQuery) ([]byte, error) {
	return rawRequest(ctx, c, http.MethodGet, endpointRecords+"/"+query.TypeID, query.values(), nil)
}

// DescribeType fetches the column metadata of a record type.
func (c *Client) DescribeType(ctx context.Context, typeID string) (*reconcile.TypeDescriptor, error) {
	return getRequest[reconcile.TypeDescriptor](ctx, c, endpointTypes+"/"+typeID, nil)
}

// ListItems fetches the item list of a metadata-described type; the second
// call of the two-call object-metadata shape.
func (c *Client) ListItems(ctx context.Context, typeID, parentID string) ([]reconcile.TaggedItem, error) {
	query := url.Values{}
	if parentID != "" {
		query.Set("parentId", parentID)
	}
	items, err := getRequest[[]reconcile.TaggedItem](ctx, c, endpointRecords+"/"+typeID+"/items", query)
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// writeRequest is the body of every single-value write.
type writeRequest struct {
	Value string `json:"value"`
}

// writeResponse is the structured verdict a 2xx write can still carry. A
// non-empty Error aborts the commit; a Warning keeps the edit form open.
type writeResponse struct {
	Error            string `json:"error,omitempty"`
	Warning          string `json:"warning,omitempty"`
	ConflictRecordID string `json:"conflictRecordId,omitempty"`
}

func (r *writeResponse) verdict() error {
	if r == nil {
		return nil
	}
	if r.Error != "" {
		return &griderrors.WriteRejected{Message: r.Error, ConflictRecordID: r.ConflictRecordID}
	}
	if r.Warning != "" {
		return &griderrors.WriteRejected{Message: r.Warning, ConflictRecordID: r.ConflictRecordID, Warning: true}
	}
	return nil
}

// WritePrimary writes a record's primary value.
func (c *Client) WritePrimary(ctx context.Context, recordTypeID, recordID, value string) error {
	endpoint := fmt.Sprintf("%s/%s/%s/primary", endpointRecords, recordTypeID, recordID)
	result, err := postRequest[writeResponse](ctx, c, endpoint, &writeRequest{Value: value})
	if err != nil {
		return err
	}
	return result.verdict()
}

// WriteSecondary writes one secondary attribute of a record. Reference
// (linking) attributes go through here too, addressed via the owning record.
func (c *Client) WriteSecondary(ctx context.Context, recordTypeID, recordID, columnID, value string) error {
	endpoint := fmt.Sprintf("%s/%s/%s/attributes/%s", endpointRecords, recordTypeID, recordID, url.PathEscape(columnID))
	result, err := postRequest[writeResponse](ctx, c, endpoint, &writeRequest{Value: value})
	if err != nil {
		return err
	}
	return result.verdict()
}

// createRequest is the body of a record creation.
type createRequest struct {
	Values map[string]string `json:"values"`
}

// createResponse carries the new record's id.
type createResponse struct {
	RecordID string `json:"recordId"`
	writeResponse
}

// Create creates a record of the given type from column-id-keyed values and
// returns the new record id.
func (c *Client) Create(ctx context.Context, recordTypeID string, values map[string]string) (string, error) {
	result, err := postRequest[createResponse](ctx, c, endpointRecords+"/"+recordTypeID, &createRequest{Values: values})
	if err != nil {
		return "", err
	}
	if verdictErr := result.writeResponse.verdict(); verdictErr != nil {
		return "", verdictErr
	}
	if result.RecordID == "" {
		return "", &griderrors.MalformedResponseError{Reason: "create response carries no record id"}
	}
	return result.RecordID, nil
}

// Delete deletes a record.
func (c *Client) Delete(ctx context.Context, recordTypeID, recordID string) error {
	endpoint := fmt.Sprintf("%s/%s/%s", endpointRecords, recordTypeID, recordID)
	_, err := rawRequest(ctx, c, http.MethodDelete, endpoint, nil, nil)
	return err
}

// countResponse is the count endpoint's body.
type countResponse struct {
	Count int `json:"count"`
}

// Count returns the total number of records matching the query's filters,
// ignoring its window.
func (c *Client) Count(ctx context.Context, query PageQuery) (int, error) {
	v := query.values()
	v.Del("limit")
	v.Del("offset")
	result, err := getRequest[countResponse](ctx, c, endpointRecords+"/"+query.TypeID+"/count", v)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// labelResponse is the label lookup body.
type labelResponse struct {
	Label string `json:"label"`
}

// ResolveLabel looks up the display label of a record id, for rendering
// identifier-valued filters.
func (c *Client) ResolveLabel(ctx context.Context, typeID, recordID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", endpointLabels, typeID, url.PathEscape(recordID))
	result, err := getRequest[labelResponse](ctx, c, endpoint, nil)
	if err != nil {
		return "", err
	}
	return result.Label, nil
}

// versionResponse is the version endpoint's body.
type versionResponse struct {
	Version string `json:"version"`
}

// BackendVersion fetches and parses the backend's semantic version.
func (c *Client) BackendVersion(ctx context.Context) (*semver.Version, error) {
	result, err := getRequest[versionResponse](ctx, c, endpointVersion, nil)
	if err != nil {
		return nil, err
	}
	version, err := semver.NewVersion(result.Version)
	if err != nil {
		return nil, griderrors.Malformedf("backend version %q not semver: %v", result.Version, err)
	}
	return version, nil
}

// CheckBackendVersion fails when the backend is older than MinBackendVersion.
func (c *Client) CheckBackendVersion(ctx context.Context) error {
	version, err := c.BackendVersion(ctx)
	if err != nil {
		return err
	}
	if version.LessThan(MinBackendVersion) {
		return fmt.Errorf("backend version %s is older than the supported minimum %s", version, MinBackendVersion)
	}
	c.logger.Debugf("Backend version %s ok", version)
	return nil
}

// Interface conformance.
var (
	_ reconcile.MetadataSource  = (*Client)(nil)
	_ reconcile.ItemSource      = (*Client)(nil)
	_ filtercodec.LabelResolver = (*Client)(nil)
)
