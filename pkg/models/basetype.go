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

// BaseType is the value type of a column as declared by backend metadata.
type BaseType string

const (
	BaseTypeShortText BaseType = "short_text"
	BaseTypeLongText  BaseType = "long_text"
	BaseTypeMultiline BaseType = "multiline"
	BaseTypeInteger   BaseType = "integer"
	BaseTypeDecimal   BaseType = "decimal"
	BaseTypeDate      BaseType = "date"
	BaseTypeDateTime  BaseType = "datetime"
	BaseTypeBoolean   BaseType = "boolean"
	BaseTypeFile      BaseType = "file"
	BaseTypeMarkup    BaseType = "markup"
	BaseTypeAction    BaseType = "action"
	BaseTypePassword  BaseType = "password"
	BaseTypeReference BaseType = "reference"
	BaseTypePath      BaseType = "path"
)

// wire codes as sent by the backend's metadata endpoint
var baseTypeByWireCode = map[int]BaseType{
	1:  BaseTypeShortText,
	2:  BaseTypeLongText,
	3:  BaseTypeMultiline,
	4:  BaseTypeInteger,
	5:  BaseTypeDecimal,
	6:  BaseTypeDate,
	7:  BaseTypeDateTime,
	8:  BaseTypeBoolean,
	9:  BaseTypeFile,
	10: BaseTypeMarkup,
	11: BaseTypeAction,
	12: BaseTypePassword,
	13: BaseTypeReference,
	14: BaseTypePath,
}

// BaseTypeFromWireCode maps a numeric metadata type code to a BaseType.
// Unknown codes degrade to short text so an unexpected backend addition
// renders as plain text instead of failing the page.
func BaseTypeFromWireCode(code int) BaseType {
	if bt, ok := baseTypeByWireCode[code]; ok {
		return bt
	}
	return BaseTypeShortText
}

// IsNumeric reports whether values of this type compare numerically.
func (b BaseType) IsNumeric() bool {
	return b == BaseTypeInteger || b == BaseTypeDecimal
}

// IsTemporal reports whether values of this type compare as timestamps.
func (b BaseType) IsTemporal() bool {
	return b == BaseTypeDate || b == BaseTypeDateTime
}

// IsText reports whether values of this type get the text operator set
// (contains, starts-with and friends).
func (b BaseType) IsText() bool {
	switch b {
	case BaseTypeShortText, BaseTypeLongText, BaseTypeMultiline,
		BaseTypeMarkup, BaseTypePath, BaseTypeReference:
		return true
	default:
		return false
	}
}
