package normalize

import (
	"reflect"
	"sort"
)

// collectionKeys are the keys under which IRIS endpoints nest their
// collections, in priority order.
var collectionKeys = []string{
	"timeline",
	"events",
	"evidences",
	"assets",
	"ioc",
	"iocs",
	"notes",
	"note",
}

// AsList coerces a payload into an ordered collection.
//
//   - nil yields an empty slice.
//   - A slice or array is returned element by element, order preserved.
//   - A mapping yields the first collection found under a well-known key,
//     else a collection under "data", else the mapping's values in key order.
//   - Anything else is wrapped as a single element.
//
// The input is never modified.
func AsList(payload any) []any {
	if payload == nil {
		return []any{}
	}
	if items, ok := asSlice(payload); ok {
		return items
	}
	if m, ok := asMap(payload); ok {
		for _, key := range collectionKeys {
			if items, ok := asSlice(m[key]); ok {
				return items
			}
		}
		if items, ok := asSlice(m["data"]); ok {
			return items
		}
		keys := sortedKeys(m)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = m[k]
		}
		return out
	}
	return []any{payload}
}

// asSlice returns a copy of v's elements when v is a slice or array.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		copy(out, s)
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is a scalar payload, not a collection.
			return nil, false
		}
		if rv.IsNil() {
			return []any{}, true
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap returns v as a map[string]any when v is any map with string keys.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Nested returns the collection stored under key when payload is a mapping
// holding a slice there. It serves endpoints whose collection key is outside
// the well-known list.
func Nested(payload any, key string) ([]any, bool) {
	m, ok := asMap(payload)
	if !ok {
		return nil, false
	}
	return asSlice(m[key])
}
