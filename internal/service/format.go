package service

import (
	"reflect"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
)

func field(item any, names ...string) normalize.Value {
	return normalize.Resolve(item, names...)
}

// empty reports whether a payload carries nothing worth rendering: nil,
// false, zero, or an empty string or collection.
func empty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	if n, ok := normalize.ToInt(v); ok {
		return n == 0
	}
	return false
}

// allNil reports whether every value is absent or nil.
func allNil(values ...normalize.Value) bool {
	for _, v := range values {
		if !v.IsNil() {
			return false
		}
	}
	return true
}

// formatCustomer renders a customer reference given as a name, a record
// or an id. Ids are resolved through names when possible.
func formatCustomer(v normalize.Value, names map[int]string) string {
	if v.IsNil() {
		return "Unassigned"
	}
	switch t := v.Any().(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any:
		name := field(t, "customer_name", "name")
		id := field(t, "customer_id", "id")
		switch {
		case !empty(name.Any()) && !id.IsNil():
			return name.String() + " (ID " + id.String() + ")"
		case !empty(name.Any()):
			return name.String()
		case !id.IsNil():
			return "ID " + id.String()
		}
	}
	if id, ok := v.Int(); ok {
		if name, found := names[id]; found {
			return name + " (ID " + v.String() + ")"
		}
		return "ID " + v.String()
	}
	return v.String()
}

// commentAuthor renders a comment's author, which may be a login or a user
// record.
func commentAuthor(c any, names ...string) string {
	author := field(c, names...)
	if m, ok := author.Any().(map[string]any); ok {
		return field(m, "user_login", "user_name", "name").String()
	}
	return author.String()
}

// splitTags turns "a, b,,c" into [a b c].
func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// itemLine renders an item that matched none of the expected fields.
func itemLine(item any) string {
	return "- " + normalize.Display(item) + "\n"
}

// quoteList renders names as ['a', 'b'].
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func toInt(v any) (int, bool) { return normalize.ToInt(v) }
