// Package iristest provides a recording in-memory outbound.Session for tests.
package iristest

import (
	"context"
	"slices"
	"sync"

	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// Handler produces the response of a fake method.
type Handler func(args outbound.Args) (outbound.Response, error)

// Call is one recorded invocation, with arguments in bound keyword form.
type Call struct {
	Method string
	Args   outbound.Args
}

// Session is a fake outbound.Session. It carries the real method signatures
// of an API version, so argument mismatches behave as they do against a
// server, and records every call that passes the signature check.
type Session struct {
	mu       sync.Mutex
	methods  map[string]outbound.Method
	handlers map[string]Handler
	calls    []Call
	closed   bool
}

var _ outbound.Session = (*Session)(nil)

// NewSession returns a fake with the v2 method table. Every method answers
// with an empty success until a handler is registered.
func NewSession() *Session {
	return NewSessionForVersion(iris.APIVersionV2)
}

// NewSessionForVersion returns a fake with the method table of version.
func NewSessionForVersion(version string) *Session {
	sigs, err := iris.Signatures(version)
	if err != nil {
		panic(err)
	}
	s := &Session{
		methods:  make(map[string]outbound.Method, len(sigs)),
		handlers: make(map[string]Handler),
	}
	for _, m := range sigs {
		s.define(m)
	}
	return s
}

func (s *Session) define(m outbound.Method) {
	name := m.Name
	m.Call = func(_ context.Context, args outbound.Args) (outbound.Response, error) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: name, Args: slices.Clone(args)})
		h := s.handlers[name]
		s.mu.Unlock()
		if h == nil {
			return iris.SuccessResponse(nil), nil
		}
		return h(args)
	}
	s.methods[name] = m
}

// Define adds or replaces a method signature.
func (s *Session) Define(name string, params, required []string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.define(outbound.Method{Name: name, Params: params, Required: required})
	return s
}

// Remove deletes a method from the table.
func (s *Session) Remove(names ...string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.methods, name)
	}
	return s
}

// Handle registers h for the named method.
func (s *Session) Handle(name string, h Handler) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
	return s
}

// Returns makes the named method succeed with data.
func (s *Session) Returns(name string, data any) *Session {
	return s.Handle(name, func(outbound.Args) (outbound.Response, error) {
		return iris.SuccessResponse(data), nil
	})
}

// Fails makes the named method answer with a server error.
func (s *Session) Fails(name, message string) *Session {
	return s.Handle(name, func(outbound.Args) (outbound.Response, error) {
		return iris.ErrorResponse(message), nil
	})
}

// Method implements outbound.Session.
func (s *Session) Method(name string) (outbound.Method, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[name]
	return m, ok
}

// Methods implements outbound.Session.
func (s *Session) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close implements outbound.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Calls returns every recorded call in order.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsTo returns the argument lists of the calls to name.
func (s *Session) CallsTo(name string) []outbound.Args {
	var out []outbound.Args
	for _, c := range s.Calls() {
		if c.Method == name {
			out = append(out, c.Args)
		}
	}
	return out
}

// Factory returns a SessionFactory that always yields s.
func (s *Session) Factory() outbound.SessionFactory {
	return func(context.Context) (outbound.Session, error) {
		return s, nil
	}
}
