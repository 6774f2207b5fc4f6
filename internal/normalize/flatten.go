// Package normalize shapes decoded provider JSON into flat rows.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/onchain-formulas/internal/types"
)

// ArrayMode controls what Flatten does with nested arrays
type ArrayMode int

const (
	// ExpandArrays writes each element under an index-suffixed key
	ExpandArrays ArrayMode = iota
	// DropArrays omits arrays entirely
	DropArrays
)

func (m ArrayMode) String() string {
	if m == DropArrays {
		return "drop"
	}
	return "expand"
}

// Flatten turns a decoded JSON object into a single-level row. Nested object keys are joined
// with "_". Non-object input yields an empty row.
func Flatten(v any, mode ArrayMode) types.Row {
	row := types.Row{}
	switch t := v.(type) {
	case map[string]any:
		flattenObject(row, "", t, mode)
	case types.Row:
		flattenObject(row, "", map[string]any(t), mode)
	}
	return row
}

// FlattenRows flattens each element of a decoded JSON array
func FlattenRows(items []any, mode ArrayMode) []types.Row {
	rows := make([]types.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, Flatten(item, mode))
	}
	return rows
}

func flattenObject(dst types.Row, prefix string, obj map[string]any, mode ArrayMode) {
	for k, v := range obj {
		flattenValue(dst, join(prefix, k), v, mode)
	}
}

func flattenValue(dst types.Row, key string, v any, mode ArrayMode) {
	switch t := v.(type) {
	case map[string]any:
		flattenObject(dst, key, t, mode)
	case types.Row:
		flattenObject(dst, key, map[string]any(t), mode)
	case []any:
		if mode == DropArrays {
			return
		}
		for i, el := range t {
			flattenValue(dst, fmt.Sprintf("%s_%d", key, i), el, mode)
		}
	default:
		dst[key] = v
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// IsScalar reports whether v is a string, number, bool or nil
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64, uint64, json.Number:
		return true
	default:
		return false
	}
}

// ScalarsOnly keeps the top-level scalar fields of obj
func ScalarsOnly(obj map[string]any) types.Row {
	row := make(types.Row, len(obj))
	for k, v := range obj {
		if IsScalar(v) {
			row[k] = v
		}
	}
	return row
}

// ScalarRows applies ScalarsOnly to every object in items; non-objects are skipped
func ScalarRows(items []any) []types.Row {
	rows := make([]types.Row, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, ScalarsOnly(obj))
		}
	}
	return rows
}

// Project keeps only the requested columns that are present and scalar.
// An empty column list returns rows unchanged.
func Project(rows []types.Row, columns string) []types.Row {
	cols := types.SplitList(columns)
	if len(cols) == 0 {
		return rows
	}
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		projected := make(types.Row, len(cols))
		for _, c := range cols {
			if v, ok := row[c]; ok && IsScalar(v) {
				projected[c] = v
			}
		}
		out = append(out, projected)
	}
	return out
}

// ProjectObject projects a single object response. Requested keys that are absent are set to nil.
func ProjectObject(obj map[string]any, columns string) types.Row {
	cols := types.SplitList(columns)
	if len(cols) == 0 {
		return ScalarsOnly(obj)
	}
	row := make(types.Row, len(cols))
	for _, c := range cols {
		v := obj[c]
		if !IsScalar(v) {
			v = nil
		}
		row[c] = v
	}
	return row
}

// Keys returns the comma-joined keys of row, for projecting with every column
func Keys(row types.Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	return strings.Join(keys, ",")
}

// ToObjects converts a decoded JSON value into a slice of objects. A single object becomes
// a one-element slice; anything else yields nil.
func ToObjects(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	default:
		return nil
	}
}
