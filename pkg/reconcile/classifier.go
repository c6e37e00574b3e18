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

package reconcile

import (
	"bytes"

	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/tools/safejson"
)

// Classify tags a raw payload as one of the three wire shapes. The rules are
// tested in order:
//
//  1. an object exposing an identifier and a base-type field but no
//     "columns"/"data" keys is the metadata object shape
//  2. an array whose first element exposes an item identifier and a values
//     array is the tagged-array shape; an empty array counts as tagged only
//     when the request context says the endpoint serves that shape
//  3. everything else parseable as an object is the column report
//
// Classification is pure: it inspects the payload and the context hint,
// nothing else.
func Classify(payload []byte, reqCtx RequestContext) (Format, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return "", &griderrors.MalformedResponseError{Reason: "empty payload"}
	}

	switch trimmed[0] {
	case '[':
		var elems []map[string]any
		if err := safejson.Unmarshal(trimmed, &elems); err != nil {
			return "", griderrors.Malformedf("array payload not parsable: %v", err)
		}
		if len(elems) == 0 {
			if reqCtx.ExpectTagged {
				return FormatTaggedArray, nil
			}
			return "", &griderrors.MalformedResponseError{Reason: "empty array from an endpoint of unknown shape"}
		}
		first := elems[0]
		_, hasID := first["itemId"]
		_, hasValues := first["values"]
		if hasID && hasValues {
			return FormatTaggedArray, nil
		}
		return "", &griderrors.MalformedResponseError{Reason: "array elements carry no item identifier and values"}

	case '{':
		var obj map[string]any
		if err := safejson.Unmarshal(trimmed, &obj); err != nil {
			return "", griderrors.Malformedf("object payload not parsable: %v", err)
		}
		_, hasColumns := obj["columns"]
		_, hasData := obj["data"]
		_, hasID := obj["id"]
		_, hasBaseType := obj["baseType"]
		if hasID && hasBaseType && !hasColumns && !hasData {
			return FormatObjectMetadata, nil
		}
		return FormatColumnReport, nil

	default:
		return "", &griderrors.MalformedResponseError{Reason: "payload is neither object nor array"}
	}
}
