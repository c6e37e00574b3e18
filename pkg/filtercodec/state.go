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

package filtercodec

import (
	"strings"
)

// Condition is one column's filter: operator, raw value(s) and an optional
// resolved display label for identifier-valued filters.
type Condition struct {
	Operator Operator `json:"op"`
	// RawValue is the authoritative filter value. For identifier filters it
	// keeps the "@<id>" sentinel form.
	RawValue string `json:"value"`
	// RawValueTo is the upper bound of a range filter.
	RawValueTo string `json:"valueTo,omitempty"`
	// ResolvedLabel is a display cache for identifier filters, filled by an
	// asynchronous lookup. It is never the source of truth and must be
	// cleared whenever RawValue is edited directly.
	ResolvedLabel string `json:"-"`
}

// FilterState maps column ids to their active conditions.
type FilterState map[string]Condition

// IdentifierID returns the record id of an "@<id>" identifier filter, or
// ("", false) for free-text values. A literal "@" inside free text does not
// qualify: the sentinel is an "@" followed by digits only.
func (c Condition) IdentifierID() (string, bool) {
	v := c.RawValue
	if len(v) < 2 || v[0] != '@' {
		return "", false
	}
	rest := v[1:]
	for _, r := range rest {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return rest, true
}

// Active reports whether the condition participates in a query.
// is-empty/is-not-empty are active with a blank value; this is a deliberate
// exception to the blank-value-means-inactive rule for every other operator.
func (c Condition) Active() bool {
	switch c.Operator {
	case OpIsEmpty, OpIsNotEmpty:
		return true
	case OpRange:
		return strings.TrimSpace(c.RawValue) != "" || strings.TrimSpace(c.RawValueTo) != ""
	default:
		return strings.TrimSpace(c.RawValue) != ""
	}
}

// ActiveColumns returns the ids of all columns with active conditions, in
// the order given (normally the page's column order).
func (s FilterState) ActiveColumns(order []string) []string {
	var ids []string
	for _, id := range order {
		if c, ok := s[id]; ok && c.Active() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Set replaces the condition for a column. A direct edit invalidates any
// resolved label: stale labels are a correctness bug, not a cosmetic one.
func (s FilterState) Set(columnID string, op Operator, value string) {
	s[columnID] = Condition{Operator: op, RawValue: value}
}

// Clone returns an independent copy of the state.
func (s FilterState) Clone() FilterState {
	out := make(FilterState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
