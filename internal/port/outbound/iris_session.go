// Package outbound defines the outbound port interfaces for talking to the
// DFIR-IRIS case-management API.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrSignatureMismatch is returned by a Method when the supplied arguments do
// not fit its parameter list (unknown keyword, missing required keyword, or
// too many positional values).
var ErrSignatureMismatch = errors.New("signature mismatch")

// Arg is a single keyword argument.
type Arg struct {
	Key   string
	Value any
}

// Args is an ordered list of keyword arguments. Order is significant: it is
// the order used when the arguments are replayed positionally.
type Args []Arg

// Get returns the value stored under key.
func (a Args) Get(key string) (any, bool) {
	for _, arg := range a {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// With returns a copy of a with key set to value. An existing key keeps its
// position; a new key is appended.
func (a Args) With(key string, value any) Args {
	out := slices.Clone(a)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Arg{Key: key, Value: value})
}

// Without returns a copy of a with the given keys removed.
func (a Args) Without(keys ...string) Args {
	out := make(Args, 0, len(a))
	for _, arg := range a {
		if !slices.Contains(keys, arg.Key) {
			out = append(out, arg)
		}
	}
	return out
}

// Compact returns a copy of a without nil values.
func (a Args) Compact() Args {
	out := make(Args, 0, len(a))
	for _, arg := range a {
		if arg.Value != nil {
			out = append(out, arg)
		}
	}
	return out
}

// Keys returns the argument names in order.
func (a Args) Keys() []string {
	keys := make([]string, len(a))
	for i, arg := range a {
		keys[i] = arg.Key
	}
	return keys
}

// Values returns the argument values in order.
func (a Args) Values() []any {
	values := make([]any, len(a))
	for i, arg := range a {
		values[i] = arg.Value
	}
	return values
}

// Map returns the arguments as a map.
func (a Args) Map() map[string]any {
	m := make(map[string]any, len(a))
	for _, arg := range a {
		m[arg.Key] = arg.Value
	}
	return m
}

// Response is what every remote operation returns.
type Response interface {
	// IsError reports whether the server flagged the call as failed.
	IsError() bool
	// Message is the server-reported message, if any.
	Message() string
	// Data is the decoded payload.
	Data() any
}

// Invoker performs a bound call.
type Invoker func(ctx context.Context, args Args) (Response, error)

// Method is one named operation exposed by a Session.
type Method struct {
	// Name is the client-side operation name (e.g. "list_events").
	Name string
	// Params lists the accepted keyword names in positional order.
	Params []string
	// Required lists the keywords that must be supplied.
	Required []string
	// Call performs the operation once arguments are bound.
	Call Invoker
}

// Invoke performs a keyword call. Unknown or missing required keywords yield
// ErrSignatureMismatch without reaching the server.
func (m Method) Invoke(ctx context.Context, args Args) (Response, error) {
	if err := m.check(args); err != nil {
		return nil, err
	}
	return m.Call(ctx, args)
}

// InvokePositional binds values to Params in order and performs the call.
func (m Method) InvokePositional(ctx context.Context, values []any) (Response, error) {
	if len(values) > len(m.Params) {
		return nil, fmt.Errorf("%w: %s() takes %d arguments but %d were given",
			ErrSignatureMismatch, m.Name, len(m.Params), len(values))
	}
	args := make(Args, len(values))
	for i, v := range values {
		args[i] = Arg{Key: m.Params[i], Value: v}
	}
	return m.Invoke(ctx, args)
}

// Signature renders the method as name(required, [optional], ...).
func (m Method) Signature() string {
	s := m.Name + "("
	for i, p := range m.Params {
		if i > 0 {
			s += ", "
		}
		if slices.Contains(m.Required, p) {
			s += p
		} else {
			s += "[" + p + "]"
		}
	}
	return s + ")"
}

func (m Method) check(args Args) error {
	for _, arg := range args {
		if !slices.Contains(m.Params, arg.Key) {
			return fmt.Errorf("%w: %s() got an unexpected keyword argument '%s'",
				ErrSignatureMismatch, m.Name, arg.Key)
		}
	}
	for _, req := range m.Required {
		if !args.Has(req) {
			return fmt.Errorf("%w: %s() missing required argument '%s'",
				ErrSignatureMismatch, m.Name, req)
		}
	}
	return nil
}

// Session is a connected client. It exposes the operations available for the
// API version it was built for.
type Session interface {
	// Method looks up an operation by name.
	Method(name string) (Method, bool)
	// Methods lists the available operation names, sorted.
	Methods() []string
	// Close releases idle connections.
	Close() error
}

// SessionFactory builds a fresh Session. It is called once per tool call.
type SessionFactory func(ctx context.Context) (Session, error)
