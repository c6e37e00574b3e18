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

// Package filtercodec maps the grid's structured filter state to and from
// the backend's query-parameter convention.
//
// The wire convention, shared by all three read shapes:
//
//	FR_<columnID>=<value>   primary bound
//	TO_<columnID>=<value>   upper bound, promotes the pair to a range
//
// inside a value:
//
//	@123        filter by record identifier instead of display text
//	(a,b,c)     in-list
//	%v%  v%  %v contains / starts-with / ends-with
//	!...        negation, composable with the wrapping rules
//	>=v  <=v    two-sided comparisons; >v and <v the one-sided ones
//	$empty$     is-empty sentinel ("!$empty$" for is-not-empty)
package filtercodec

import (
	"net/url"
	"strings"
)

const (
	// ParamPrefixFrom marks the primary bound of a column filter.
	ParamPrefixFrom = "FR_"
	// ParamPrefixTo marks the upper bound of a range filter.
	ParamPrefixTo = "TO_"
	// emptySentinel encodes is-empty; negated it encodes is-not-empty.
	emptySentinel = "$empty$"
)

// Encode maps every active condition to query parameters, iterating columns
// in the given order so the output is deterministic.
func Encode(state FilterState, order []string) url.Values {
	params := url.Values{}
	for _, columnID := range order {
		cond, ok := state[columnID]
		if !ok || !cond.Active() {
			continue
		}
		encodeCondition(params, columnID, cond)
	}
	return params
}

func encodeCondition(params url.Values, columnID string, cond Condition) {
	key := ParamPrefixFrom + columnID
	v := cond.RawValue

	switch cond.Operator {
	case OpEquals:
		params.Set(key, v)
	case OpNotEquals:
		params.Set(key, "!"+v)
	case OpStartsWith:
		params.Set(key, v+"%")
	case OpNotStartsWith:
		params.Set(key, "!"+v+"%")
	case OpContains:
		params.Set(key, "%"+v+"%")
	case OpNotContains:
		params.Set(key, "!%"+v+"%")
	case OpEndsWith:
		params.Set(key, "%"+v)
	case OpIsEmpty:
		params.Set(key, emptySentinel)
	case OpIsNotEmpty:
		params.Set(key, "!"+emptySentinel)
	case OpGreater:
		params.Set(key, ">"+v)
	case OpLess:
		params.Set(key, "<"+v)
	case OpGreaterOrEqual:
		params.Set(key, ">="+v)
	case OpLessOrEqual:
		params.Set(key, "<="+v)
	case OpInList:
		params.Set(key, "("+v+")")
	case OpRange:
		if strings.TrimSpace(v) != "" {
			params.Set(key, v)
		}
		if strings.TrimSpace(cond.RawValueTo) != "" {
			params.Set(ParamPrefixTo+columnID, cond.RawValueTo)
		}
	}
}

// Decode restores a FilterState from an incoming query string. When both a
// primary and an upper-bound parameter exist for the same column they
// collapse into the single range operator. Identifier sentinels are kept in
// raw form; resolving them to labels is a separate, asynchronous concern
// that never feeds back into decoding.
func Decode(params url.Values) FilterState {
	state := make(FilterState)

	// Upper bounds first, so the primary pass can collapse pairs.
	uppers := make(map[string]string)
	for key, vals := range params {
		if columnID, ok := strings.CutPrefix(key, ParamPrefixTo); ok && len(vals) > 0 {
			uppers[columnID] = vals[0]
		}
	}

	for key, vals := range params {
		columnID, ok := strings.CutPrefix(key, ParamPrefixFrom)
		if !ok || len(vals) == 0 {
			continue
		}
		raw := vals[0]

		if upper, hasUpper := uppers[columnID]; hasUpper {
			state[columnID] = Condition{Operator: OpRange, RawValue: raw, RawValueTo: upper}
			delete(uppers, columnID)
			continue
		}

		state[columnID] = decodeValue(raw)
	}

	// Upper bounds without a primary are still ranges, open at the bottom.
	for columnID, upper := range uppers {
		state[columnID] = Condition{Operator: OpRange, RawValueTo: upper}
	}

	return state
}

// decodeValue recognizes the value conventions in a fixed order: the
// emptiness sentinels, the comparison prefixes, the in-list parentheses,
// then the negation/wrapping composition.
func decodeValue(raw string) Condition {
	switch raw {
	case emptySentinel:
		return Condition{Operator: OpIsEmpty}
	case "!" + emptySentinel:
		return Condition{Operator: OpIsNotEmpty}
	}

	if v, ok := strings.CutPrefix(raw, ">="); ok {
		return Condition{Operator: OpGreaterOrEqual, RawValue: v}
	}
	if v, ok := strings.CutPrefix(raw, "<="); ok {
		return Condition{Operator: OpLessOrEqual, RawValue: v}
	}
	if v, ok := strings.CutPrefix(raw, ">"); ok {
		return Condition{Operator: OpGreater, RawValue: v}
	}
	if v, ok := strings.CutPrefix(raw, "<"); ok {
		return Condition{Operator: OpLess, RawValue: v}
	}

	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") && len(raw) >= 2 {
		return Condition{Operator: OpInList, RawValue: raw[1 : len(raw)-1]}
	}

	negated := false
	if v, ok := strings.CutPrefix(raw, "!"); ok {
		negated = true
		raw = v
	}

	hasLeft := strings.HasPrefix(raw, "%")
	hasRight := strings.HasSuffix(raw, "%") && len(raw) > 1
	switch {
	case hasLeft && hasRight:
		inner := raw[1 : len(raw)-1]
		if negated {
			return Condition{Operator: OpNotContains, RawValue: inner}
		}
		return Condition{Operator: OpContains, RawValue: inner}
	case hasRight:
		inner := raw[:len(raw)-1]
		if negated {
			return Condition{Operator: OpNotStartsWith, RawValue: inner}
		}
		return Condition{Operator: OpStartsWith, RawValue: inner}
	case hasLeft:
		// No negated ends-with on the wire; "!%v" reads as not-contains of
		// an empty-right wrap and is treated as ends-with only when plain.
		inner := raw[1:]
		if negated {
			return Condition{Operator: OpNotContains, RawValue: inner}
		}
		return Condition{Operator: OpEndsWith, RawValue: inner}
	}

	if negated {
		return Condition{Operator: OpNotEquals, RawValue: raw}
	}
	return Condition{Operator: OpEquals, RawValue: raw}
}

// InListValues splits an in-list condition's raw value into its entries.
func InListValues(cond Condition) []string {
	if cond.Operator != OpInList || strings.TrimSpace(cond.RawValue) == "" {
		return nil
	}
	parts := strings.Split(cond.RawValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
