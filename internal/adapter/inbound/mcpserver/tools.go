package mcpserver

import (
	"context"

	"github.com/Sentinel-Gate/irisgate/internal/service"
)

type noInput struct{}

type kindInput struct {
	Kind string `json:"kind" jsonschema:"catalog name or alias, e.g. ioc, asset, tlp"`
}

type caseInput struct {
	CaseID int `json:"case_id" jsonschema:"case id"`
}

type customerIDInput struct {
	CustomerID int `json:"customer_id" jsonschema:"customer id"`
}

type customerNameInput struct {
	CustomerName string `json:"customer_name" jsonschema:"customer name, matched case-insensitively"`
}

type debugInput struct {
	CaseID     int    `json:"case_id" jsonschema:"case id"`
	FilterText string `json:"filter_text,omitempty" jsonschema:"substring the operation name must contain"`
}

type noteInput struct {
	CaseID int `json:"case_id" jsonschema:"case id"`
	NoteID int `json:"note_id" jsonschema:"note id"`
}

type noteUpdateInput struct {
	CaseID int            `json:"case_id" jsonschema:"case id"`
	NoteID int            `json:"note_id" jsonschema:"note id"`
	Fields map[string]any `json:"fields,omitempty" jsonschema:"fields to change, e.g. note_title, note_content, directory_id"`
}

type noteCommentInput struct {
	CaseID  int    `json:"case_id" jsonschema:"case id"`
	NoteID  int    `json:"note_id" jsonschema:"note id"`
	Comment string `json:"comment" jsonschema:"comment text"`
}

type searchInput struct {
	CaseID     int    `json:"case_id" jsonschema:"case id"`
	SearchTerm string `json:"search_term,omitempty" jsonschema:"search term, % matches everything"`
}

type evidenceInput struct {
	EvidenceID int  `json:"evidence_id" jsonschema:"evidence id"`
	CaseID     *int `json:"case_id,omitempty" jsonschema:"case id"`
}

type evidenceUpdateInput struct {
	EvidenceID int            `json:"evidence_id" jsonschema:"evidence id"`
	CaseID     *int           `json:"case_id,omitempty" jsonschema:"case id; may also be given as fields.cid or fields.case_id"`
	Fields     map[string]any `json:"fields,omitempty" jsonschema:"fields to change"`
}

type eventInput struct {
	EventID int  `json:"event_id" jsonschema:"event id"`
	CaseID  *int `json:"case_id,omitempty" jsonschema:"case id"`
}

type eventUpdateInput struct {
	EventID int            `json:"event_id" jsonschema:"event id"`
	CaseID  *int           `json:"case_id,omitempty" jsonschema:"case id; may also be given as fields.cid or fields.case_id"`
	Fields  map[string]any `json:"fields,omitempty" jsonschema:"fields to change"`
}

type taskInput struct {
	CaseID int `json:"case_id" jsonschema:"case id"`
	TaskID int `json:"task_id" jsonschema:"task id"`
}

type taskUpdateInput struct {
	CaseID int            `json:"case_id" jsonschema:"case id"`
	TaskID int            `json:"task_id" jsonschema:"task id"`
	Fields map[string]any `json:"fields,omitempty" jsonschema:"fields to change, e.g. title, status, assignees"`
}

type taskCommentInput struct {
	CaseID  int    `json:"case_id" jsonschema:"case id"`
	TaskID  int    `json:"task_id" jsonschema:"task id"`
	Comment string `json:"comment" jsonschema:"comment text"`
}

type taskCommentRefInput struct {
	CaseID    int `json:"case_id" jsonschema:"case id"`
	TaskID    int `json:"task_id" jsonschema:"task id"`
	CommentID int `json:"comment_id" jsonschema:"comment id"`
}

type taskCommentUpdateInput struct {
	CaseID    int    `json:"case_id" jsonschema:"case id"`
	TaskID    int    `json:"task_id" jsonschema:"task id"`
	CommentID int    `json:"comment_id" jsonschema:"comment id"`
	Comment   string `json:"comment" jsonschema:"new comment text"`
}

// bindings maps every tool name to its handler.
func (s *Server) bindings() map[string]binding {
	svc := s.svc
	b := map[string]binding{
		"list_types": jsonTool(func(_ context.Context, in kindInput) (any, error) {
			return svc.ListTypes(in.Kind)
		}),

		"list_cases": textTool(svc.ListCases),
		"get_case": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.GetCase(ctx, in.CaseID)
		}),
		"create_case":  textTool(svc.CreateCase),
		"create_alert": textTool(svc.CreateAlert),

		"list_customers": textTool(func(ctx context.Context, _ noInput) (string, error) {
			return svc.ListCustomers(ctx)
		}),
		"get_customer_by_id": textTool(func(ctx context.Context, in customerIDInput) (string, error) {
			return svc.GetCustomerByID(ctx, in.CustomerID)
		}),
		"lookup_customer": textTool(func(ctx context.Context, in customerNameInput) (string, error) {
			return svc.LookupCustomer(ctx, in.CustomerName)
		}),
		"create_customer": textTool(svc.CreateCustomer),

		"list_notes": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListNotes(ctx, in.CaseID)
		}),
		"list_note_directories": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListNoteDirectories(ctx, in.CaseID)
		}),
		"create_note_directory": textTool(svc.CreateNoteDirectory),
		"add_note":              textTool(svc.AddNote),
		"get_note": textTool(func(ctx context.Context, in noteInput) (string, error) {
			return svc.GetNote(ctx, in.CaseID, in.NoteID)
		}),
		"update_note": textTool(func(ctx context.Context, in noteUpdateInput) (string, error) {
			return svc.UpdateNote(ctx, in.CaseID, in.NoteID, in.Fields)
		}),
		"delete_note": textTool(func(ctx context.Context, in noteInput) (string, error) {
			return svc.DeleteNote(ctx, in.CaseID, in.NoteID)
		}),
		"add_note_comment": textTool(func(ctx context.Context, in noteCommentInput) (string, error) {
			return svc.AddNoteComment(ctx, in.CaseID, in.NoteID, in.Comment)
		}),
		"list_note_comments": textTool(func(ctx context.Context, in noteInput) (string, error) {
			return svc.ListNoteComments(ctx, in.CaseID, in.NoteID)
		}),
		"search_notes": textTool(func(ctx context.Context, in searchInput) (string, error) {
			return svc.SearchNotes(ctx, in.CaseID, in.SearchTerm)
		}),

		"list_evidence": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListEvidence(ctx, in.CaseID)
		}),
		"add_evidence": textTool(svc.AddEvidence),
		"update_evidence": textTool(func(ctx context.Context, in evidenceUpdateInput) (string, error) {
			return svc.UpdateEvidence(ctx, in.EvidenceID, in.CaseID, in.Fields)
		}),
		"delete_evidence": textTool(func(ctx context.Context, in evidenceInput) (string, error) {
			return svc.DeleteEvidence(ctx, in.EvidenceID, in.CaseID)
		}),

		"list_events": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListEvents(ctx, in.CaseID)
		}),
		"add_event": textTool(svc.AddEvent),
		"update_event": textTool(func(ctx context.Context, in eventUpdateInput) (string, error) {
			return svc.UpdateEvent(ctx, in.EventID, in.CaseID, in.Fields)
		}),
		"delete_event": textTool(func(ctx context.Context, in eventInput) (string, error) {
			return svc.DeleteEvent(ctx, in.EventID, in.CaseID)
		}),

		"list_tasks": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListTasks(ctx, in.CaseID)
		}),
		"add_task": textTool(svc.AddTask),
		"update_task": textTool(func(ctx context.Context, in taskUpdateInput) (string, error) {
			return svc.UpdateTask(ctx, in.CaseID, in.TaskID, in.Fields)
		}),
		"delete_task": textTool(func(ctx context.Context, in taskInput) (string, error) {
			return svc.DeleteTask(ctx, in.CaseID, in.TaskID)
		}),
		"add_task_comment": textTool(func(ctx context.Context, in taskCommentInput) (string, error) {
			return svc.AddTaskComment(ctx, in.CaseID, in.TaskID, in.Comment)
		}),
		"list_task_comments": textTool(func(ctx context.Context, in taskInput) (string, error) {
			return svc.ListTaskComments(ctx, in.CaseID, in.TaskID)
		}),
		"update_task_comment": textTool(func(ctx context.Context, in taskCommentUpdateInput) (string, error) {
			return svc.UpdateTaskComment(ctx, in.CaseID, in.TaskID, in.CommentID, in.Comment)
		}),
		"delete_task_comment": textTool(func(ctx context.Context, in taskCommentRefInput) (string, error) {
			return svc.DeleteTaskComment(ctx, in.CaseID, in.TaskID, in.CommentID)
		}),

		"list_assets": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListAssets(ctx, in.CaseID)
		}),
		"add_asset": textTool(svc.AddAsset),
		"list_iocs": textTool(func(ctx context.Context, in caseInput) (string, error) {
			return svc.ListIOCs(ctx, in.CaseID)
		}),
		"add_ioc": textTool(svc.AddIOC),

		"debug_case_methods": textTool(func(ctx context.Context, in debugInput) (string, error) {
			return svc.DebugCaseMethods(ctx, in.CaseID, in.FilterText)
		}),
	}

	// Fixed catalog listings take no arguments.
	for _, d := range service.Tools() {
		if d.Catalog == "" {
			continue
		}
		kind := d.Catalog
		b[d.Name] = jsonTool(func(context.Context, noInput) (any, error) {
			return svc.ListTypes(kind)
		})
	}
	return b
}
