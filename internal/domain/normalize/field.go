// Package normalize reconciles the inconsistent payload shapes returned by the
// DFIR-IRIS API into a uniform representation.
//
// Payloads arrive either as decoded JSON (maps and slices) or as Go values
// with fields and getter methods, and the same logical field may be spelled
// case_id, caseId or CaseID depending on the endpoint and server version.
// Resolve, AsList and ExtractPayload hide those differences from callers.
package normalize

import (
	"reflect"
	"sort"
	"strings"
)

// Value is the result of a field lookup. The zero Value is absent, which is
// distinct from a present value that happens to be nil, zero or empty.
type Value struct {
	v  any
	ok bool
}

// Absent is the value returned when no candidate name matched.
var Absent = Value{}

// Present reports whether the lookup matched.
func (v Value) Present() bool { return v.ok }

// Any returns the matched value, or nil when absent.
func (v Value) Any() any { return v.v }

// IsNil reports whether the value is absent or matched a nil.
func (v Value) IsNil() bool { return !v.ok || v.v == nil }

// String renders the value for display. Absent and nil render as "None".
func (v Value) String() string {
	if !v.ok {
		return noneText
	}
	return Display(v.v)
}

// Or returns v when it is non-nil, otherwise fallback.
func (v Value) Or(fallback any) any {
	if v.IsNil() {
		return fallback
	}
	return v.v
}

// Int converts a numeric or numeric-string value to int.
func (v Value) Int() (int, bool) {
	if v.IsNil() {
		return 0, false
	}
	return toInt(v.v)
}

// member is a readable name on an item.
type member struct {
	name string
	get  func() (any, error)
}

// accessor abstracts the two payload backends: mappings and Go values.
type accessor interface {
	// lookup returns the value stored exactly under name.
	lookup(name string) (any, bool)
	// members lists every readable name, in a stable order.
	members() []member
}

// Resolve returns the first field of item matching one of names.
//
// Exact matches are tried first, in the order the names are given, so the
// order encodes priority. When nothing matches exactly, names are compared
// after stripping underscores and hyphens and lower-casing, first against
// mapping keys and then against exported fields and getters. Resolve never
// fails: unknown shapes and failing getters yield Absent.
func Resolve(item any, names ...string) Value {
	acc := accessorFor(item)
	if acc == nil {
		return Absent
	}

	for _, name := range names {
		if v, ok := acc.lookup(name); ok {
			return Value{v: v, ok: true}
		}
	}

	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeKey(name)] = struct{}{}
	}
	for _, m := range acc.members() {
		if _, ok := targets[normalizeKey(m.name)]; !ok {
			continue
		}
		v, err := m.get()
		if err != nil {
			continue
		}
		return Value{v: v, ok: true}
	}
	return Absent
}

func normalizeKey(name string) string {
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return strings.ToLower(name)
}

// accessorFor picks the backend by inspecting the runtime type of item.
func accessorFor(item any) accessor {
	if item == nil {
		return nil
	}
	if m, ok := item.(map[string]any); ok {
		return mapAccessor(m)
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		return reflectMapAccessor{rv: rv}
	case reflect.Struct:
		return structAccessor{item: reflect.ValueOf(item), rv: rv}
	}
	return nil
}

// mapAccessor serves decoded JSON objects.
type mapAccessor map[string]any

func (m mapAccessor) lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m mapAccessor) members() []member {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]member, len(keys))
	for i, k := range keys {
		v := m[k]
		out[i] = member{name: k, get: func() (any, error) { return v, nil }}
	}
	return out
}

// reflectMapAccessor serves any other map with string keys.
type reflectMapAccessor struct {
	rv reflect.Value
}

func (m reflectMapAccessor) lookup(name string) (any, bool) {
	v := m.rv.MapIndex(reflect.ValueOf(name).Convert(m.rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func (m reflectMapAccessor) members() []member {
	keys := m.rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make([]member, len(keys))
	for i, k := range keys {
		v := m.rv.MapIndex(k).Interface()
		out[i] = member{name: k.String(), get: func() (any, error) { return v, nil }}
	}
	return out
}
