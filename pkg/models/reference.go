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

package models

import "strings"

// RefParts is the decomposition of a composite reference cell value.
// ID is empty when the value carried no id component.
type RefParts struct {
	ID    string
	Label string
}

// SplitReference decomposes a reference-typed cell value of the form
// "<id>:<label>". Only reference columns are split; any other column keeps
// the whole string as the label even if it happens to contain a colon.
// Downstream consumers pick the part they need: the id for edit resolution,
// the label for display, grouping and sorting.
func SplitReference(value string, col ColumnDescriptor) RefParts {
	if !col.IsReference {
		return RefParts{Label: value}
	}

	id, label, found := strings.Cut(value, ":")
	if !found || id == "" {
		return RefParts{Label: value}
	}
	return RefParts{ID: id, Label: label}
}
