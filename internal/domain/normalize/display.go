package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const noneText = "None"

// Display renders a payload value the way it is shown to the caller:
// nil as "None", whole floats without a fraction, strings verbatim,
// collections in bracketed form.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return noneText
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format("2006-01-02T15:04:05")
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = displayNested(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return displayMap(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range rv.Len() {
			parts[i] = displayNested(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Pointer:
		if rv.IsNil() {
			return noneText
		}
		return Display(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func displayNested(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return Display(v)
}

func displayMap(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range sortedKeys(m) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(displayNested(m[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toInt converts JSON numbers, Go integers and numeric strings.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ToInt is the exported form of the integer coercion used by Value.Int.
func ToInt(v any) (int, bool) { return toInt(v) }
