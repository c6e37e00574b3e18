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

package demobackend

import "github.com/united-manufacturing-hub/recordgrid/pkg/resolve"

// reportWire is the column-major report shape as served over the wire.
type reportWire struct {
	Columns []reportColumnWire `json:"columns"`
	Data    [][]any            `json:"data"`
}

type reportColumnWire struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TypeID    string `json:"typeId"`
	RefTypeID string `json:"refTypeId,omitempty"`
	BaseType  int    `json:"baseType"`
	Editable  bool   `json:"editable,omitempty"`
}

// taskReport builds the demo's column report. It carries no record ids; the
// TaskID sibling column is what makes the Task column editable through
// metadata traversal.
func taskReport() reportWire {
	return reportWire{
		Columns: []reportColumnWire{
			{ID: "task", Name: "Task", TypeID: "task", BaseType: 1, Editable: true},
			{ID: "task_id", Name: "TaskID", TypeID: "task", BaseType: 1},
			{ID: "status", Name: "Status", TypeID: "task_status", BaseType: 1, Editable: true},
			{ID: "hours", Name: "Hours", TypeID: "task", BaseType: 5},
		},
		Data: [][]any{
			{"Drill housing", "Deburr edges", "Final inspection"},
			{"t1", "t2", "t3"},
			{"open", "open", "done"},
			{2.5, 1.0, 0.5},
		},
	}
}

// schema is the demo's global record-type schema, consulted by the parent
// resolver for report pages.
type schema struct{}

func (schema) IsTopLevelType(typeID string) bool {
	switch typeID {
	case "task", TypeOrder, TypeMaterial:
		return true
	default:
		return false
	}
}

func (schema) OwnerOfRequisite(typeID string) (string, bool) {
	switch typeID {
	case "task_status":
		return "task", true
	default:
		return "", false
	}
}

// Schema returns the demo dataset's type schema.
func Schema() resolve.Schema { return schema{} }
