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

// Package griderrors defines the error taxonomy of the grid engine.
//
// Every failure is terminal for its attempt: nothing in the engine retries
// automatically, the user re-triggers the operation. The four classes map to
// the four distinct user-facing outcomes:
//
//   - TransportError: request failed or non-2xx, page load aborts
//   - MalformedResponseError: body unparsable or missing required keys
//   - ResolutionFailure: no write target for a cell, no write attempted
//   - WriteRejected: backend rejected an otherwise delivered write; the
//     Warning flavour keeps the edit form open instead of aborting
package griderrors

import (
	"errors"
	"fmt"
)

// TransportError covers failed requests and non-2xx responses.
type TransportError struct {
	Err        error
	Endpoint   string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error on %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error on %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError covers bodies that parse to nothing usable.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Reason
}

// ResolutionFailure means no backend record could be located for a cell edit.
// The cell stays read-only for that row even if its column is marked editable.
type ResolutionFailure struct {
	ColumnID string
	RowIndex int
}

func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("cannot resolve a record to edit for column %q row %d", e.ColumnID, e.RowIndex)
}

// WriteRejected is a structured rejection inside an otherwise successful
// response. A plain rejection aborts the commit; a Warning keeps the edit
// form open, optionally pointing at the conflicting existing record.
type WriteRejected struct {
	Message          string
	ConflictRecordID string
	Warning          bool
}

func (e *WriteRejected) Error() string {
	if e.Warning {
		return "write warning: " + e.Message
	}
	return "write rejected: " + e.Message
}

// IsWarning reports whether err is a WriteRejected carrying a warning rather
// than a hard error.
func IsWarning(err error) bool {
	var wr *WriteRejected
	return errors.As(err, &wr) && wr.Warning
}

// Malformedf builds a MalformedResponseError with a formatted reason.
func Malformedf(format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{Reason: fmt.Sprintf(format, args...)}
}
