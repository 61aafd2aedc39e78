package normalize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var errorType = reflect.TypeFor[error]()

// structAccessor serves Go values. Readable members are exported fields
// (by Go name and by json tag name) and exported methods that take no
// arguments and return a value, optionally followed by an error.
type structAccessor struct {
	item reflect.Value // original value, used for the method set
	rv   reflect.Value // dereferenced struct
}

func (s structAccessor) lookup(name string) (any, bool) {
	for _, m := range s.members() {
		if m.name != name {
			continue
		}
		v, err := m.get()
		if err != nil {
			continue
		}
		return v, true
	}
	return nil, false
}

func (s structAccessor) members() []member {
	var out []member
	t := s.rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := s.rv.Field(i)
		get := func() (any, error) { return fv.Interface(), nil }
		out = append(out, member{name: f.Name, get: get})
		if tag := jsonName(f); tag != "" && tag != f.Name {
			out = append(out, member{name: tag, get: get})
		}
	}

	mt := s.item.Type()
	for i := range mt.NumMethod() {
		m := mt.Method(i)
		ft := m.Type
		// Receiver is the first input.
		if ft.NumIn() != 1 || ft.NumOut() == 0 || ft.NumOut() > 2 {
			continue
		}
		if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
			continue
		}
		if ft.Out(0).Implements(errorType) {
			continue
		}
		method := s.item.Method(i)
		out = append(out, member{name: m.Name, get: func() (any, error) { return callGetter(method) }})
	}
	return out
}

// callGetter invokes a zero-argument method. Errors and panics are reported
// as errors so that callers can skip the member.
func callGetter(method reflect.Value) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("getter panicked: %v", r)
		}
	}()
	res := method.Call(nil)
	if len(res) == 2 && !res[1].IsNil() {
		e, _ := res[1].Interface().(error)
		if e == nil {
			e = errors.New("getter failed")
		}
		return nil, e
	}
	return res[0].Interface(), nil
}

func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
