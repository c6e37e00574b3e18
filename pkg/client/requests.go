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

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/metrics"
	"github.com/united-manufacturing-hub/recordgrid/pkg/tools/safejson"
)

var httpClient *http.Client

// GetClient returns the shared HTTP client. HTTP/2 is disabled; some record
// backends terminate long responses early on h2.
func GetClient() *http.Client {
	if httpClient == nil {
		transport := &http.Transport{
			ForceAttemptHTTP2: false,
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   constants.DefaultRequestTimeout,
		}
	}
	return httpClient
}

// enhanceConnectionError adds detailed context to common connection errors.
func enhanceConnectionError(err error) error {
	if strings.Contains(err.Error(), "EOF") {
		return fmt.Errorf("connection closed unexpectedly before receiving response: %w", err)
	} else if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline exceeded") {
		return fmt.Errorf("request timed out: %w", err)
	} else if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("connection refused: %w", err)
	}
	return fmt.Errorf("connection error: %w", err)
}

// rawRequest performs one request and returns the raw body. Every failure
// maps into the griderrors taxonomy; nothing is retried, the caller
// re-triggers explicitly. A non-2xx status is a TransportError even when
// the body parses.
func rawRequest(ctx context.Context, c *Client, method, endpoint string, query url.Values, body []byte) ([]byte, error) {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
		defer cancel()
	}

	requestURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return nil, &griderrors.TransportError{Err: err, Endpoint: endpoint}
	}
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, &griderrors.TransportError{Err: err, Endpoint: endpoint}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := c.httpClient.Do(req)
	metrics.ObserveRequestDuration(endpoint, time.Since(start))
	if err != nil {
		if response != nil {
			return nil, &griderrors.TransportError{Err: err, Endpoint: endpoint, StatusCode: response.StatusCode}
		}
		return nil, &griderrors.TransportError{Err: enhanceConnectionError(err), Endpoint: endpoint}
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			c.logger.Errorf("Error closing response body: %v", closeErr)
		}
	}()

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &griderrors.TransportError{Err: err, Endpoint: endpoint, StatusCode: response.StatusCode}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &griderrors.TransportError{
			Err:        errors.New("error response code: " + response.Status),
			Endpoint:   endpoint,
			StatusCode: response.StatusCode,
		}
	}
	return bodyBytes, nil
}

// getRequest does a GET and decodes the body into R.
func getRequest[R any](ctx context.Context, c *Client, endpoint string, query url.Values) (*R, error) {
	bodyBytes, err := rawRequest(ctx, c, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	if len(bodyBytes) == 0 {
		return nil, &griderrors.MalformedResponseError{Reason: "empty body from " + endpoint}
	}

	var typedResult R
	if err := safejson.Unmarshal(bodyBytes, &typedResult); err != nil {
		return nil, griderrors.Malformedf("body from %s not parsable: %v", endpoint, err)
	}
	return &typedResult, nil
}

// postRequest does a POST with a JSON-encoded body and decodes the response
// into R. An empty 2xx body yields a zero R.
func postRequest[R any, T any](ctx context.Context, c *Client, endpoint string, data *T) (*R, error) {
	body, err := safejson.Marshal(data)
	if err != nil {
		return nil, &griderrors.TransportError{Err: err, Endpoint: endpoint}
	}

	bodyBytes, err := rawRequest(ctx, c, http.MethodPost, endpoint, nil, body)
	if err != nil {
		return nil, err
	}

	var typedResult R
	if len(bodyBytes) == 0 {
		return &typedResult, nil
	}
	if err := safejson.Unmarshal(bodyBytes, &typedResult); err != nil {
		return nil, griderrors.Malformedf("body from %s not parsable: %v", endpoint, err)
	}
	return &typedResult, nil
}
