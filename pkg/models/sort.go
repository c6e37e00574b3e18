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

// SortSpec is the current sort: one column, ascending or descending.
// An empty ColumnID means server order.
type SortSpec struct {
	ColumnID   string `json:"columnId"`
	Descending bool   `json:"desc,omitempty"`
}

// Toggle cycles the sort for a column: unsorted -> ascending -> descending
// -> unsorted. Toggling a different column starts it ascending.
func (s SortSpec) Toggle(columnID string) SortSpec {
	if s.ColumnID != columnID {
		return SortSpec{ColumnID: columnID}
	}
	if !s.Descending {
		return SortSpec{ColumnID: columnID, Descending: true}
	}
	return SortSpec{}
}
