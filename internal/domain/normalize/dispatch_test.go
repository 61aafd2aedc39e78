package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

type stubResponse struct {
	failed bool
	msg    string
	data   any
}

func (r stubResponse) IsError() bool   { return r.failed }
func (r stubResponse) Message() string { return r.msg }
func (r stubResponse) Data() any       { return r.data }

type detailedResponse struct {
	stubResponse
}

func (detailedResponse) JSON() (string, error) { return `{"status":"error"}`, nil }

type methodSet map[string]outbound.Method

func (m methodSet) Method(name string) (outbound.Method, bool) {
	method, ok := m[name]
	return method, ok
}

type recorder struct {
	calls []string
}

func (r *recorder) method(name string, params, required []string, resp outbound.Response) outbound.Method {
	return outbound.Method{
		Name:     name,
		Params:   params,
		Required: required,
		Call: func(_ context.Context, args outbound.Args) (outbound.Response, error) {
			r.calls = append(r.calls, name+"("+strings.Join(args.Keys(), ",")+")")
			return resp, nil
		},
	}
}

func TestExtractPayload(t *testing.T) {
	t.Parallel()

	t.Run("data accessor", func(t *testing.T) {
		got, err := ExtractPayload(stubResponse{data: []any{1}}, "Listing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]any{1}, got); diff != "" {
			t.Errorf("payload mismatch:\n%s", diff)
		}
	})

	t.Run("data field", func(t *testing.T) {
		got, err := ExtractPayload(map[string]any{"data": "x"}, "Listing")
		if err != nil || got != "x" {
			t.Fatalf("ExtractPayload() = %v, %v", got, err)
		}
	})

	t.Run("error carries action and message", func(t *testing.T) {
		_, err := ExtractPayload(stubResponse{failed: true, msg: "forbidden"}, "Listing cases")
		var opErr *OperationFailedError
		if !errors.As(err, &opErr) {
			t.Fatalf("error = %v, want *OperationFailedError", err)
		}
		if err.Error() != "Listing cases failed: forbidden" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("error details", func(t *testing.T) {
		_, err := ExtractPayload(detailedResponse{stubResponse{failed: true, msg: "bad"}}, "Adding note")
		want := `Adding note failed: bad | response={"status":"error"}`
		if err == nil || err.Error() != want {
			t.Errorf("error = %v, want %q", err, want)
		}
	})
}

func TestTryOperations_DeclaredOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	target := methodSet{
		"list_notes_directories": rec.method("list_notes_directories", []string{"cid"}, []string{"cid"}, stubResponse{data: "new"}),
		"list_note_directories":  rec.method("list_note_directories", []string{"cid"}, []string{"cid"}, stubResponse{data: "old"}),
	}

	got, err := TryOperations(context.Background(), target, Dispatch{
		Action:   "Listing note directories",
		Methods:  []string{"missing", "list_notes_directories", "list_note_directories"},
		Payloads: []outbound.Args{{{Key: "cid", Value: 1}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Method != "list_notes_directories" || got.Data != "new" {
		t.Errorf("got %+v", got)
	}
	if diff := cmp.Diff([]string{"list_notes_directories(cid)"}, rec.calls); diff != "" {
		t.Errorf("calls mismatch:\n%s", diff)
	}
}

func TestTryOperations_PayloadFallback(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	target := methodSet{
		"add_note_directory": rec.method("add_note_directory", []string{"name", "cid"}, []string{"name"}, stubResponse{data: map[string]any{"id": 5}}),
	}

	got, err := TryOperations(context.Background(), target, Dispatch{
		Action:  "Creating note directory",
		Methods: []string{"add_note_directory"},
		Payloads: []outbound.Args{
			{{Key: "directory_name", Value: "Root Notes"}, {Key: "cid", Value: 1}},
			{{Key: "name", Value: "Root Notes"}, {Key: "cid", Value: 1}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Args.Keys()[0] != "name" {
		t.Errorf("used payload %v", got.Args.Keys())
	}
	if diff := cmp.Diff([]string{"add_note_directory(name,cid)"}, rec.calls); diff != "" {
		t.Errorf("calls mismatch:\n%s", diff)
	}
}

func TestTryOperations_MismatchWithoutPositional(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	target := methodSet{
		"list_events": rec.method("list_events", []string{"case_id"}, []string{"case_id"}, stubResponse{data: "ok"}),
	}

	_, err := TryOperations(context.Background(), target, Dispatch{
		Action:   "Listing events",
		Methods:  []string{"list_events"},
		Payloads: []outbound.Args{{{Key: "cid", Value: 1}}},
	})
	var notFound *MethodNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *MethodNotFoundError", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("method should not have been called: %v", rec.calls)
	}
	want := "No method found for Listing events. Tried: ['list_events']"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTryOperations_PositionalRetry(t *testing.T) {
	t.Parallel()

	var bound outbound.Args
	target := methodSet{
		"add_note": {
			Name:     "add_note",
			Params:   []string{"case", "title", "content"},
			Required: []string{"case", "title"},
			Call: func(_ context.Context, args outbound.Args) (outbound.Response, error) {
				bound = args
				return stubResponse{data: "created"}, nil
			},
		},
	}

	got, err := TryOperations(context.Background(), target, Dispatch{
		Action:          "Adding note",
		Methods:         []string{"add_note"},
		Payloads:        []outbound.Args{{{Key: "title", Value: "t"}, {Key: "case_id", Value: 3}, {Key: "content", Value: "c"}}},
		AllowPositional: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data != "created" {
		t.Errorf("Data = %v", got.Data)
	}
	want := outbound.Args{{Key: "case", Value: 3}, {Key: "title", Value: "t"}, {Key: "content", Value: "c"}}
	if diff := cmp.Diff(want, bound); diff != "" {
		t.Errorf("positional binding mismatch:\n%s", diff)
	}
}

func TestTryOperations_LastErrorWins(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	target := methodSet{
		"a": rec.method("a", []string{"cid"}, nil, stubResponse{failed: true, msg: "first"}),
		"b": rec.method("b", []string{"cid"}, nil, stubResponse{failed: true, msg: "second"}),
	}

	_, err := TryOperations(context.Background(), target, Dispatch{
		Action:   "Doing",
		Methods:  []string{"a", "b"},
		Payloads: []outbound.Args{{{Key: "cid", Value: 1}}},
	})
	if err == nil || err.Error() != "Doing failed: second" {
		t.Errorf("error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("calls = %v", rec.calls)
	}
}

func TestTryOperations_TransportErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	calls := 0
	target := methodSet{
		"a": {Name: "a", Params: []string{"cid"}, Call: func(context.Context, outbound.Args) (outbound.Response, error) {
			calls++
			return nil, boom
		}},
		"b": {Name: "b", Params: []string{"cid"}, Call: func(context.Context, outbound.Args) (outbound.Response, error) {
			calls++
			return stubResponse{}, nil
		}},
	}

	_, err := TryOperations(context.Background(), target, Dispatch{
		Action:   "Doing",
		Methods:  []string{"a", "b"},
		Payloads: []outbound.Args{{{Key: "cid", Value: 1}}},
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
