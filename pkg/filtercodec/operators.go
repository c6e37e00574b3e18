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

import "github.com/united-manufacturing-hub/recordgrid/pkg/models"

// Operator is one comparison a column filter can apply.
type Operator string

const (
	OpEquals         Operator = "eq"
	OpNotEquals      Operator = "ne"
	OpStartsWith     Operator = "starts_with"
	OpNotStartsWith  Operator = "not_starts_with"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpEndsWith       Operator = "ends_with"
	OpIsEmpty        Operator = "is_empty"
	OpIsNotEmpty     Operator = "is_not_empty"
	OpRange          Operator = "range"
	OpInList         Operator = "in_list"
	OpGreater        Operator = "gt"
	OpLess           Operator = "lt"
	OpGreaterOrEqual Operator = "ge"
	OpLessOrEqual    Operator = "le"
)

// Fixed, ordered operator sets per base type. The order is what a filter
// dropdown presents; it is part of the contract with the view layer.
var (
	textOperators = []Operator{
		OpEquals, OpNotEquals,
		OpStartsWith, OpNotStartsWith,
		OpContains, OpNotContains,
		OpEndsWith,
		OpIsEmpty, OpIsNotEmpty,
		OpRange, OpInList,
	}

	// Numeric and temporal types trade the substring operators for
	// comparisons.
	orderedOperators = []Operator{
		OpEquals, OpNotEquals,
		OpGreater, OpLess,
		OpGreaterOrEqual, OpLessOrEqual,
		OpRange,
		OpIsEmpty, OpIsNotEmpty,
	}

	booleanOperators = []Operator{
		OpEquals, OpNotEquals,
		OpIsEmpty, OpIsNotEmpty,
	}
)

// OperatorsFor returns the ordered operator set available for a base type.
func OperatorsFor(bt models.BaseType) []Operator {
	switch {
	case bt.IsNumeric() || bt.IsTemporal():
		return orderedOperators
	case bt == models.BaseTypeBoolean:
		return booleanOperators
	default:
		return textOperators
	}
}

// Allows reports whether op is valid for the base type.
func Allows(bt models.BaseType, op Operator) bool {
	for _, o := range OperatorsFor(bt) {
		if o == op {
			return true
		}
	}
	return false
}
