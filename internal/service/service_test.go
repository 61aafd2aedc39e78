package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris/iristest"
	"github.com/Sentinel-Gate/irisgate/internal/ctxkey"
	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(fake *iristest.Session, opts ...Option) *Service {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(fake.Factory(), opts...)
}

func argValue(t *testing.T, args outbound.Args, key string) any {
	t.Helper()
	v, ok := args.Get(key)
	if !ok {
		t.Fatalf("argument %q missing from %v", key, args)
	}
	return v
}

func onlyCall(t *testing.T, fake *iristest.Session, method string) outbound.Args {
	t.Helper()
	calls := fake.CallsTo(method)
	if len(calls) != 1 {
		t.Fatalf("%s called %d times, want 1 (calls: %v)", method, len(calls), fake.Calls())
	}
	return calls[0]
}

func TestAddIOC_SplitsTextTags(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("add_ioc", map[string]any{"ioc_id": 59})
	svc := newTestService(fake)

	out, err := svc.AddIOC(context.Background(), NewIOC{
		CaseID:  1,
		Value:   "example.com",
		IOCType: "domain",
		IOCTags: "tag1, tag2,,",
	})
	if err != nil {
		t.Fatalf("AddIOC() error: %v", err)
	}
	if out != "IOC added successfully. ID: 59" {
		t.Errorf("AddIOC() = %q", out)
	}

	args := onlyCall(t, fake, "add_ioc")
	if diff := cmp.Diff([]string{"tag1", "tag2"}, argValue(t, args, "ioc_tags")); diff != "" {
		t.Errorf("ioc_tags mismatch (-want +got):\n%s", diff)
	}
	if got := argValue(t, args, "cid"); got != 1 {
		t.Errorf("cid = %v, want 1", got)
	}
	if args.Has("ioc_tlp") {
		t.Error("unset ioc_tlp should not be sent")
	}
	if !fake.Closed() {
		t.Error("session was not closed")
	}
}

func TestAddIOC_ListTagsPassThrough(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	svc := newTestService(fake)

	tags := []any{"a", "b c"}
	if _, err := svc.AddIOC(context.Background(), NewIOC{CaseID: 2, Value: "1.2.3.4", IOCType: "ip-src", IOCTags: tags}); err != nil {
		t.Fatalf("AddIOC() error: %v", err)
	}
	args := onlyCall(t, fake, "add_ioc")
	if diff := cmp.Diff(tags, argValue(t, args, "ioc_tags")); diff != "" {
		t.Errorf("ioc_tags mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateEvent_LiftsCaseIDFromFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		caseID *int
		fields map[string]any
		want   int
	}{
		{"case_id in fields", nil, map[string]any{"case_id": 16, "title": "Renamed"}, 16},
		{"cid as JSON number", nil, map[string]any{"cid": float64(16), "title": "Renamed"}, 16},
		{"explicit wins", ptr(3), map[string]any{"cid": 16, "title": "Renamed"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := iristest.NewSession()
			svc := newTestService(fake)

			out, err := svc.UpdateEvent(context.Background(), 119, tt.caseID, tt.fields)
			if err != nil {
				t.Fatalf("UpdateEvent() error: %v", err)
			}
			if out != "Event 119 updated." {
				t.Errorf("UpdateEvent() = %q", out)
			}
			want := outbound.Args{
				{Key: "event_id", Value: 119},
				{Key: "cid", Value: tt.want},
				{Key: "title", Value: "Renamed"},
			}
			if diff := cmp.Diff(want, onlyCall(t, fake, "update_event")); diff != "" {
				t.Errorf("update_event args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateEvidence_RequiresCaseID(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	svc := newTestService(fake)

	_, err := svc.UpdateEvidence(context.Background(), 22, nil, map[string]any{"description": "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if err.Error() != "Error updating evidence: case_id is required for updating an evidence item" {
		t.Errorf("error text = %q", err.Error())
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("remote calls made: %v", fake.Calls())
	}
}

func TestUpdateNote_UnknownFieldIsReported(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	svc := newTestService(fake)

	_, err := svc.UpdateNote(context.Background(), 1, 5, map[string]any{"bogus": true})
	if !errors.Is(err, normalize.ErrSignatureMismatch) {
		t.Fatalf("error = %v, want signature mismatch", err)
	}
	if !strings.HasPrefix(err.Error(), "Error updating note: ") {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestAddNote_DirectoryResolution(t *testing.T) {
	t.Parallel()

	t.Run("first listed directory", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().
			Returns("list_notes_directories", []any{map[string]any{"id": 12, "name": "Root"}}).
			Returns("add_note", map[string]any{"note_id": 5})
		svc := newTestService(fake)

		out, err := svc.AddNote(context.Background(), NewNote{CaseID: 1, Content: "body"})
		if err != nil {
			t.Fatalf("AddNote() error: %v", err)
		}
		if out != "Note added to case 1. ID: 5, Directory: 12" {
			t.Errorf("AddNote() = %q", out)
		}
		args := onlyCall(t, fake, "add_note")
		if got := argValue(t, args, "directory_id"); got != 12 {
			t.Errorf("directory_id = %v, want 12", got)
		}
		if got := argValue(t, args, "note_title"); got != "Note" {
			t.Errorf("note_title = %v, want Note", got)
		}
		if len(fake.CallsTo("add_notes_directory")) != 0 {
			t.Error("no directory should be created")
		}
	})

	t.Run("explicit directory skips listing", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession()
		svc := newTestService(fake)

		if _, err := svc.AddNote(context.Background(), NewNote{CaseID: 1, Content: "body", GroupID: ptr(4)}); err != nil {
			t.Fatalf("AddNote() error: %v", err)
		}
		if len(fake.CallsTo("list_notes_directories")) != 0 {
			t.Error("directories should not be listed")
		}
		if got := argValue(t, onlyCall(t, fake, "add_note"), "directory_id"); got != 4 {
			t.Errorf("directory_id = %v, want 4", got)
		}
	})

	t.Run("creates Root Notes", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().
			Returns("list_notes_directories", []any{}).
			Returns("add_notes_directory", map[string]any{"id": 33})
		svc := newTestService(fake)

		out, err := svc.AddNote(context.Background(), NewNote{CaseID: 1, Content: "body"})
		if err != nil {
			t.Fatalf("AddNote() error: %v", err)
		}
		if !strings.HasSuffix(out, "Directory: 33") {
			t.Errorf("AddNote() = %q", out)
		}
		want := outbound.Args{{Key: "cid", Value: 1}, {Key: "name", Value: "Root Notes"}}
		if diff := cmp.Diff(want, onlyCall(t, fake, "add_notes_directory")); diff != "" {
			t.Errorf("add_notes_directory args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fails when creation yields no id", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().Returns("list_notes_directories", []any{})
		svc := newTestService(fake)

		_, err := svc.AddNote(context.Background(), NewNote{CaseID: 1, Content: "body"})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
		if err.Error() != "Error adding note: No valid note directory_id found or created for this case" {
			t.Errorf("error text = %q", err.Error())
		}
		if len(fake.CallsTo("add_notes_directory")) != 1 {
			t.Error("Root Notes creation was not attempted")
		}
		if len(fake.CallsTo("add_note")) != 0 {
			t.Error("add_note must not be called")
		}
	})

	t.Run("legacy note groups", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSessionForVersion(iris.APIVersionV1).
			Returns("list_note_directories", []any{}).
			Returns("add_note_directory", map[string]any{"group_id": 7})
		svc := newTestService(fake)

		out, err := svc.AddNote(context.Background(), NewNote{CaseID: 2, Content: "body"})
		if err != nil {
			t.Fatalf("AddNote() error: %v", err)
		}
		if !strings.HasSuffix(out, "Directory: 7") {
			t.Errorf("AddNote() = %q", out)
		}
		want := outbound.Args{{Key: "cid", Value: 2}, {Key: "group_title", Value: "Root Notes"}}
		if diff := cmp.Diff(want, onlyCall(t, fake, "add_note_directory")); diff != "" {
			t.Errorf("add_note_directory args mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestListNotes(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("list_notes_directories", []any{
		map[string]any{
			"id": 32, "name": "Root Notes", "note_count": 2,
			"notes": []any{
				map[string]any{"id": 71, "title": "Evidence collected"},
				map[string]any{"id": 69, "title": "Incident summary"},
			},
		},
	})
	svc := newTestService(fake)

	out, err := svc.ListNotes(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListNotes() error: %v", err)
	}
	want := "Notes for Case 4:\n" +
		"- Directory 32 (Root Notes) - 2 notes\n" +
		"  • ID: 71, Title: Evidence collected\n" +
		"  • ID: 69, Title: Incident summary"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("ListNotes() mismatch (-want +got):\n%s", diff)
	}
}

func TestListNoteDirectories_NamesMethod(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSessionForVersion(iris.APIVersionV1).
		Returns("list_note_directories", []any{map[string]any{"group_id": 3, "group_title": "Default"}})
	svc := newTestService(fake)

	out, err := svc.ListNoteDirectories(context.Background(), 9)
	if err != nil {
		t.Fatalf("ListNoteDirectories() error: %v", err)
	}
	want := "Note directories for Case 9 (method list_note_directories):\n- ID: 3, Name: Default"
	if out != want {
		t.Errorf("ListNoteDirectories() = %q, want %q", out, want)
	}
}

func TestCreateNoteDirectory(t *testing.T) {
	t.Parallel()

	t.Run("current api", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().Returns("add_notes_directory", map[string]any{"id": 4})
		out, err := newTestService(fake).CreateNoteDirectory(context.Background(), NewNoteDirectory{CaseID: 1, Name: "IR"})
		if err != nil {
			t.Fatalf("CreateNoteDirectory() error: %v", err)
		}
		if out != "Note directory created. ID: 4" {
			t.Errorf("CreateNoteDirectory() = %q", out)
		}
	})

	t.Run("legacy api", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSessionForVersion(iris.APIVersionV1).Returns("add_note_directory", map[string]any{"group_id": 8})
		out, err := newTestService(fake).CreateNoteDirectory(context.Background(), NewNoteDirectory{CaseID: 1, Name: "IR"})
		if err != nil {
			t.Fatalf("CreateNoteDirectory() error: %v", err)
		}
		if out != "Note directory created. ID: 8 (via add_note_directory)" {
			t.Errorf("CreateNoteDirectory() = %q", out)
		}
	})

	t.Run("not available", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().Remove("add_notes_directory")
		out, err := newTestService(fake).CreateNoteDirectory(context.Background(), NewNoteDirectory{CaseID: 1, Name: "IR"})
		if err != nil {
			t.Fatalf("CreateNoteDirectory() error: %v", err)
		}
		if !strings.HasPrefix(out, "Note directory creation not available on Case client.") ||
			!strings.Contains(out, "'list_notes_directories'") {
			t.Errorf("CreateNoteDirectory() = %q", out)
		}
	})
}

func TestListEvents(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("list_events", map[string]any{
		"timeline": []any{
			map[string]any{
				"event_id":      97,
				"event_title":   "Phishing delivery to LAP-CFO01",
				"event_content": "invoice_Q4_2025.iso received",
				"event_date":    "2025-12-02T08:14:00.000000",
				"event_tz":      "+00:00",
				"category_name": "Initial Access",
			},
			map[string]any{
				"event_id":      98,
				"event_title":   "Beaconing to darkvault-support[.]com",
				"event_date":    "2025-12-02T08:20:00.000000",
				"category_name": "Command and Control",
			},
		},
		"state": map[string]any{"object_state": 8},
	})
	svc := newTestService(fake)

	out, err := svc.ListEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListEvents() error: %v", err)
	}
	for _, want := range []string{"Phishing delivery", "Initial Access", "Command and Control", "Time: 2025-12-02T08:14:00.000000 +00:00,"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n- ID: "); got != 2 {
		t.Errorf("event lines = %d, want 2:\n%s", got, out)
	}
}

func TestAddEvent(t *testing.T) {
	t.Parallel()

	t.Run("rejects non ISO time", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession()
		_, err := newTestService(fake).AddEvent(context.Background(), NewEvent{CaseID: 1, Name: "x", DateTime: "yesterday"})
		if err == nil || err.Error() != "Error adding event: date_time is required for an event and must be ISO format if string" {
			t.Fatalf("error = %v", err)
		}
		if len(fake.Calls()) != 0 {
			t.Errorf("remote calls made: %v", fake.Calls())
		}
	})

	t.Run("offset becomes timezone", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().Returns("add_event", map[string]any{"event_id": 101})
		out, err := newTestService(fake).AddEvent(context.Background(), NewEvent{
			CaseID:   1,
			Name:     "Beacon",
			DateTime: "2025-12-02T08:14:00.250+01:00",
			TLP:      ptr("amber"),
			Extra:    map[string]any{"source": "EDR"},
		})
		if err != nil {
			t.Fatalf("AddEvent() error: %v", err)
		}
		if out != "Event added. ID: 101" {
			t.Errorf("AddEvent() = %q", out)
		}
		args := onlyCall(t, fake, "add_event")
		when, ok := argValue(t, args, "date_time").(time.Time)
		if !ok || !when.Equal(time.Date(2025, 12, 2, 7, 14, 0, 250_000_000, time.UTC)) {
			t.Errorf("date_time = %v", argValue(t, args, "date_time"))
		}
		if got := argValue(t, args, "timezone_string"); got != "+01:00" {
			t.Errorf("timezone_string = %v", got)
		}
		if got := argValue(t, args, "color"); got != "amber" {
			t.Errorf("color = %v", got)
		}
		if got := argValue(t, args, "source"); got != "EDR" {
			t.Errorf("source = %v", got)
		}
		if got := argValue(t, args, "sync_ioc_with_assets"); got != false {
			t.Errorf("sync_ioc_with_assets = %v", got)
		}
	})

	t.Run("date from extra", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession()
		_, err := newTestService(fake).AddEvent(context.Background(), NewEvent{
			CaseID: 1, Name: "x", Extra: map[string]any{"datetime": "2025-12-02"},
		})
		if err != nil {
			t.Fatalf("AddEvent() error: %v", err)
		}
		args := onlyCall(t, fake, "add_event")
		if args.Has("timezone_string") {
			t.Error("timezone_string should not be sent for a naive time")
		}
	})
}

func TestParseISO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		want       time.Time
		wantOffset bool
		wantErr    bool
	}{
		{in: "2025-12-02T08:14:00", want: time.Date(2025, 12, 2, 8, 14, 0, 0, time.UTC)},
		{in: "2025-12-02T08:14:00.123456", want: time.Date(2025, 12, 2, 8, 14, 0, 123456000, time.UTC)},
		{in: "2025-12-02 08:14", want: time.Date(2025, 12, 2, 8, 14, 0, 0, time.UTC)},
		{in: "2025-12-02", want: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)},
		{in: "2025-12-02T08:14:00Z", want: time.Date(2025, 12, 2, 8, 14, 0, 0, time.UTC), wantOffset: true},
		{in: "12/02/2025", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, offset, err := parseISO(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseISO(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if !got.Equal(tt.want) || offset != tt.wantOffset {
			t.Errorf("parseISO(%q) = %v, %v; want %v, %v", tt.in, got, offset, tt.want, tt.wantOffset)
		}
	}
}

func TestListCases_CustomerEnrichment(t *testing.T) {
	t.Parallel()

	cases := []any{map[string]any{"case_id": 1, "case_name": "Test Case", "case_customer": 3, "case_status_id": 1}}

	t.Run("names resolved", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().
			Returns("list_cases", cases).
			Returns("list_customers", []any{map[string]any{"customer_id": 3, "customer_name": "Acme"}})
		out, err := newTestService(fake).ListCases(context.Background(), CaseFilter{CustomerID: ptr(3)})
		if err != nil {
			t.Fatalf("ListCases() error: %v", err)
		}
		if out != "Cases:\n- ID: 1, Name: Test Case, Customer: Acme (ID 3), Status: 1\n" {
			t.Errorf("ListCases() = %q", out)
		}
		want := outbound.Args{{Key: "case_customer", Value: 3}}
		if diff := cmp.Diff(want, onlyCall(t, fake, "list_cases")); diff != "" {
			t.Errorf("list_cases args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("lookup failure tolerated", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().
			Returns("list_cases", cases).
			Fails("list_customers", "forbidden")
		out, err := newTestService(fake).ListCases(context.Background(), CaseFilter{})
		if err != nil {
			t.Fatalf("ListCases() error: %v", err)
		}
		if !strings.Contains(out, "Customer: ID 3,") {
			t.Errorf("ListCases() = %q", out)
		}
	})

	t.Run("case listing failure", func(t *testing.T) {
		t.Parallel()

		fake := iristest.NewSession().Fails("list_cases", "forbidden")
		_, err := newTestService(fake).ListCases(context.Background(), CaseFilter{})
		if err == nil || err.Error() != "Error listing cases: Listing cases failed: forbidden" {
			t.Fatalf("error = %v", err)
		}
		var opErr *normalize.OperationFailedError
		if !errors.As(err, &opErr) || opErr.Message != "forbidden" {
			t.Errorf("error chain lacks OperationFailedError: %v", err)
		}
	})
}

func TestFormatCustomer(t *testing.T) {
	t.Parallel()

	names := map[int]string{3: "Acme"}
	tests := []struct {
		in   normalize.Value
		want string
	}{
		{normalize.Absent, "Unassigned"},
		{normalize.Resolve(map[string]any{"c": nil}, "c"), "Unassigned"},
		{normalize.Resolve(map[string]any{"c": "Cust"}, "c"), "Cust"},
		{normalize.Resolve(map[string]any{"c": 3}, "c"), "Acme (ID 3)"},
		{normalize.Resolve(map[string]any{"c": 4}, "c"), "ID 4"},
		{normalize.Resolve(map[string]any{"c": map[string]any{"customer_name": "Beta", "customer_id": 5}}, "c"), "Beta (ID 5)"},
		{normalize.Resolve(map[string]any{"c": map[string]any{"name": "Gamma"}}, "c"), "Gamma"},
		{normalize.Resolve(map[string]any{"c": map[string]any{"id": 6}}, "c"), "ID 6"},
	}
	for _, tt := range tests {
		if got := formatCustomer(tt.in, names); got != tt.want {
			t.Errorf("formatCustomer(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetCase(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("get_case", map[string]any{
		"case_id": 1, "case_name": "Test Case", "case_description": "Desc",
		"case_customer": "Cust", "case_status_id": 1, "case_open_date": "2023-01-01",
	})
	out, err := newTestService(fake).GetCase(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCase() error: %v", err)
	}
	want := "Case Details:\nID: 1\nName: Test Case\nDescription: Desc\nCustomer: Cust\nStatus: 1\nOpened: 2023-01-01"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("GetCase() mismatch (-want +got):\n%s", diff)
	}

	empty := iristest.NewSession().Returns("get_case", map[string]any{})
	out, err = newTestService(empty).GetCase(context.Background(), 2)
	if err != nil || out != "Case with ID 2 not found." {
		t.Errorf("GetCase(empty) = %q, %v", out, err)
	}
}

func TestCreateCase_DefaultClassification(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("add_case", map[string]any{"case_id": 2})
	out, err := newTestService(fake).CreateCase(context.Background(), NewCase{Name: "New Case", CustomerID: 1})
	if err != nil {
		t.Fatalf("CreateCase() error: %v", err)
	}
	if out != "Case created successfully. ID: 2" {
		t.Errorf("CreateCase() = %q", out)
	}
	if got := argValue(t, onlyCall(t, fake, "add_case"), "case_classification"); got != "other:other" {
		t.Errorf("case_classification = %v", got)
	}
}

func TestCreateAlert_Defaults(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("add_alert", map[string]any{"alert_id": 12})
	out, err := newTestService(fake).CreateAlert(context.Background(), NewAlert{
		Title: "Suspicious login", Description: "d", Source: "SIEM", SourceRef: "ref-1",
	})
	if err != nil {
		t.Fatalf("CreateAlert() error: %v", err)
	}
	if out != "Alert created successfully. ID: 12" {
		t.Errorf("CreateAlert() = %q", out)
	}
	alert, _ := argValue(t, onlyCall(t, fake, "add_alert"), "alert_data").(map[string]any)
	for key, want := range map[string]any{"alert_severity_id": 2, "alert_status_id": 1, "alert_customer_id": 1} {
		if alert[key] != want {
			t.Errorf("%s = %v, want %v", key, alert[key], want)
		}
	}
}

func TestLookupCustomer(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	out, err := newTestService(fake).LookupCustomer(context.Background(), "Nobody")
	if err != nil || out != "Customer 'Nobody' not found." {
		t.Errorf("LookupCustomer() = %q, %v", out, err)
	}

	fake = iristest.NewSession().Returns("lookup_customer", map[string]any{"customer_id": 4})
	out, err = newTestService(fake).LookupCustomer(context.Background(), "Acme")
	if err != nil || out != "Customer found. ID: 4, Name: Acme" {
		t.Errorf("LookupCustomer() = %q, %v", out, err)
	}
}

func TestListTasks_NestedUnderTasks(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("list_tasks", map[string]any{
		"tasks": []any{map[string]any{"task_id": 1, "task_title": "Collect logs", "status_name": "To do", "task_assignees": []any{"alice"}}},
		"state": map[string]any{"object_state": 2},
	})
	out, err := newTestService(fake).ListTasks(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	want := `Tasks for Case 3:` + "\n" + `- ID: 1, Title: Collect logs, Status: To do, Assignees: ["alice"]`
	if out != want {
		t.Errorf("ListTasks() = %q, want %q", out, want)
	}
}

func TestListings_UnrecognizedItems(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Returns("list_assets", []any{"orphan"})
	out, err := newTestService(fake).ListAssets(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListAssets() error: %v", err)
	}
	if out != "Assets for Case 1:\n- orphan\n" {
		t.Errorf("ListAssets() = %q", out)
	}

	fake = iristest.NewSession()
	out, err = newTestService(fake).ListIOCs(context.Background(), 1)
	if err != nil || out != "No IOCs found for case 1." {
		t.Errorf("ListIOCs() = %q, %v", out, err)
	}
}

func TestSearchNotes_DefaultTerm(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	out, err := newTestService(fake).SearchNotes(context.Background(), 1, "")
	if err != nil || out != "No notes matched '%' in case 1." {
		t.Errorf("SearchNotes() = %q, %v", out, err)
	}
	if got := argValue(t, onlyCall(t, fake, "search_notes"), "search_term"); got != "%" {
		t.Errorf("search_term = %v", got)
	}
}

func TestDebugCaseMethods(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession()
	svc := newTestService(fake)

	out, err := svc.DebugCaseMethods(context.Background(), 1, "NOTE_COMMENT")
	if err != nil {
		t.Fatalf("DebugCaseMethods() error: %v", err)
	}
	want := "Case methods:\nadd_note_comment(note_id, comment, cid)\nlist_note_comments(note_id, cid)"
	if out != want {
		t.Errorf("DebugCaseMethods() = %q, want %q", out, want)
	}

	out, _ = svc.DebugCaseMethods(context.Background(), 1, "zzz")
	if out != "No case methods matched filter 'zzz'." {
		t.Errorf("DebugCaseMethods(zzz) = %q", out)
	}
}

func TestListTypes(t *testing.T) {
	t.Parallel()

	svc := newTestService(iristest.NewSession())
	entries, err := svc.ListTypes("ioc")
	if err != nil {
		t.Fatalf("ListTypes(ioc) error: %v", err)
	}
	found := false
	for _, e := range entries {
		if e["type"] == "md5" {
			found = true
		}
	}
	if !found {
		t.Error("ioc catalog lacks md5")
	}

	if _, err := svc.ListTypes("nope"); err == nil || !strings.HasPrefix(err.Error(), "Unknown catalog 'nope'. Available: ") {
		t.Errorf("ListTypes(nope) error = %v", err)
	}
}

func TestSessionErrors(t *testing.T) {
	t.Parallel()

	factory := func(context.Context) (outbound.Session, error) {
		return nil, &iris.ConfigError{Variable: "IRIS_HOST"}
	}
	svc := New(factory, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.ListCustomers(context.Background())
	var cfgErr *iris.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Action != "listing customers" {
		t.Errorf("error = %v, want ToolError for listing customers", err)
	}
}

func TestPanicBecomesToolError(t *testing.T) {
	t.Parallel()

	fake := iristest.NewSession().Handle("list_iocs", func(outbound.Args) (outbound.Response, error) {
		panic("boom")
	})
	_, err := newTestService(fake).ListIOCs(context.Background(), 1)
	if err == nil || err.Error() != "Error listing IOCs: internal error: boom" {
		t.Errorf("error = %v", err)
	}
	if !fake.Closed() {
		t.Error("session was not closed after a panic")
	}
}

type recordingCalls struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingCalls) ObserveToolCall(tool, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, tool+":"+outcome)
}

func TestCallObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingCalls{}
	fake := iristest.NewSession().Fails("list_iocs", "nope")
	svc := newTestService(fake, WithCallObserver(obs))

	_, _ = svc.ListAssets(context.Background(), 1)
	_, _ = svc.ListIOCs(context.Background(), 1)

	if diff := cmp.Diff([]string{"list_assets:success", "list_iocs:error"}, obs.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_PrefersRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	reqLogger := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "req-1")
	ctx := context.WithValue(context.Background(), ctxkey.LoggerKey{}, reqLogger)

	fake := iristest.NewSession().Fails("list_iocs", "nope")
	if _, err := newTestService(fake).ListIOCs(ctx, 1); err == nil {
		t.Fatal("expected an error")
	}
	logged := buf.String()
	for _, want := range []string{"tool call failed", "request_id=req-1", "tool=list_iocs"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log lacks %q:\n%s", want, logged)
		}
	}
}

func ptr[T any](v T) *T { return &v }
