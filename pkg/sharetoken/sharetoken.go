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

// Package sharetoken encodes the grid's full interactive display state into
// one URL-safe query parameter, so a view can be shared as a link.
//
// The token is base64url(JSON). Tokens that would blow past common URL
// length limits switch to base64url('z' + zstd(JSON)); the decoder accepts
// both forms and tells them apart by the first decoded byte, since JSON
// always opens with '{'.
package sharetoken

import (
	"encoding/base64"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/tools/safejson"
)

// Param is the query parameter carrying the token. Its presence on page load
// takes precedence over remembered settings and suppresses writes to them
// for that session.
const Param = "gridstate"

// compressedMarker is the first byte of the pre-base64 compressed form.
const compressedMarker = 'z'

// State is everything a shared link restores.
type State struct {
	Filters        filtercodec.FilterState `json:"filters,omitempty"`
	GroupColumns   []string                `json:"groupColumns,omitempty"`
	Sort           models.SortSpec         `json:"sort,omitempty"`
	ColumnOrder    []string                `json:"columnOrder,omitempty"`
	VisibleColumns []string                `json:"visibleColumns,omitempty"`
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func zstdInit() {
	zstdOnce.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		zstdDecoder, _ = zstd.NewReader(nil)
	})
}

// Encode serializes the state into the token form. Encoding an
// already-decoded state and decoding it again yields the same state.
func Encode(state State) (string, error) {
	raw, err := safejson.Marshal(state)
	if err != nil {
		return "", err
	}

	plain := base64.RawURLEncoding.EncodeToString(raw)
	if len(plain) <= constants.MaxPlainTokenLen {
		return plain, nil
	}

	zstdInit()
	packed := append([]byte{compressedMarker}, zstdEncoder.EncodeAll(raw, nil)...)
	return base64.RawURLEncoding.EncodeToString(packed), nil
}

// Decode restores a state from a token in either form.
func Decode(token string) (State, error) {
	var state State

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return state, griderrors.Malformedf("share token is not base64url: %v", err)
	}
	if len(raw) == 0 {
		return state, &griderrors.MalformedResponseError{Reason: "share token is empty"}
	}

	if raw[0] == compressedMarker {
		zstdInit()
		raw, err = zstdDecoder.DecodeAll(raw[1:], nil)
		if err != nil {
			return state, griderrors.Malformedf("share token decompression failed: %v", err)
		}
	}

	if err := safejson.Unmarshal(raw, &state); err != nil {
		return state, griderrors.Malformedf("share token JSON not parsable: %v", err)
	}
	return state, nil
}
