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

package grouping

import (
	"strconv"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
)

// temporal layouts the backend is known to emit, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// Compare orders two cell values of the same column, aware of the column's
// base type: numbers compare numerically, dates chronologically, references
// by their label part, everything else as case-insensitive text. Values that
// fail to parse for their declared type fall back to text ordering, and
// blanks sort first.
func Compare(a, b string, col models.ColumnDescriptor) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	switch {
	case col.BaseType.IsNumeric():
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}

	case col.BaseType.IsTemporal():
		ta, okA := parseTime(a)
		tb, okB := parseTime(b)
		if okA && okB {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}

	case col.IsReference:
		a = models.SplitReference(a, col).Label
		b = models.SplitReference(b, col).Label
	}

	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func parseTime(v string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayValue is the value a group header shows for a cell: the label part
// for references, the raw value otherwise.
func DisplayValue(v string, col models.ColumnDescriptor) string {
	if col.IsReference {
		return models.SplitReference(v, col).Label
	}
	return v
}
