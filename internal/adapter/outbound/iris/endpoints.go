package iris

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// endpoint is one entry of a session's method table.
type endpoint struct {
	name     string
	params   []string
	required []string
	call     func(ctx context.Context, s *Session, args outbound.Args) (outbound.Response, error)
}

func rest(name string, params, required []string, r route) endpoint {
	return endpoint{
		name:     name,
		params:   params,
		required: required,
		call: func(ctx context.Context, s *Session, args outbound.Args) (outbound.Response, error) {
			return r.call(ctx, s, name, args)
		},
	}
}

func endpointsFor(version string) ([]endpoint, error) {
	switch version {
	case "", APIVersionV2:
		return append(commonEndpoints(), directoryEndpointsV2()...), nil
	case APIVersionV1:
		return append(commonEndpoints(), groupEndpointsV1()...), nil
	default:
		return nil, fmt.Errorf("unsupported api version %q (want %s or %s)", version, APIVersionV2, APIVersionV1)
	}
}

func p(names ...string) []string { return names }

func directoryEndpointsV2() []endpoint {
	return []endpoint{
		rest("list_notes_directories", p("cid"), p("cid"), route{
			verb: http.MethodGet, path: "/case/notes/directories/filter",
		}),
		rest("add_notes_directory", p("cid", "name", "parent_directory_id"), p("cid", "name"), route{
			verb: http.MethodPost, path: "/case/notes/directories/add",
			rename: map[string]string{"parent_directory_id": "parent_id"},
		}),
	}
}

func groupEndpointsV1() []endpoint {
	return []endpoint{
		rest("list_note_directories", p("cid"), p("cid"), route{
			verb: http.MethodGet, path: "/case/notes/groups/list", unwrap: "groups",
		}),
		rest("add_note_directory", p("cid", "group_title"), p("cid", "group_title"), route{
			verb: http.MethodPost, path: "/case/notes/groups/add",
		}),
	}
}

func commonEndpoints() []endpoint {
	return []endpoint{
		// Cases
		rest("list_cases",
			p("case_customer", "case_name", "case_description", "case_status_id", "case_open_date_gt", "case_open_date_lt"),
			nil,
			route{
				verb: http.MethodGet, path: "/manage/cases/filter", unwrap: "cases",
				rename: map[string]string{
					"case_customer":     "case_customer_id",
					"case_open_date_gt": "start_open_date",
					"case_open_date_lt": "end_open_date",
				},
			}),
		rest("get_case", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/manage/cases/{cid}"}),
		rest("add_case",
			p("case_name", "case_customer", "case_description", "soc_id", "case_classification", "case_classification_id", "case_template_id", "custom_attributes"),
			p("case_name", "case_customer", "soc_id"),
			route{
				verb: http.MethodPost, path: "/manage/cases/add",
				rename: map[string]string{
					"soc_id":                 "case_soc_id",
					"case_classification":    "classification_id",
					"case_classification_id": "classification_id",
				},
				prepare: chain(lookup("classification_id", classifications)),
			}),

		// Customers
		rest("list_customers", nil, nil, route{verb: http.MethodGet, path: "/manage/customers/list"}),
		rest("get_customer_by_id", p("customer_id"), p("customer_id"), route{
			verb: http.MethodGet, path: "/manage/customers/{customer_id}",
		}),
		{
			name:     "lookup_customer",
			params:   p("customer_name"),
			required: p("customer_name"),
			call:     lookupCustomer,
		},
		rest("add_customer", p("customer_name", "customer_description", "customer_sla", "custom_attributes"), p("customer_name"), route{
			verb: http.MethodPost, path: "/manage/customers/add",
		}),

		// Alerts
		{
			name:     "add_alert",
			params:   p("alert_data"),
			required: p("alert_data"),
			call:     addAlert,
		},

		// Notes
		rest("add_note", p("note_title", "note_content", "directory_id", "custom_attributes", "cid"), p("note_title", "directory_id", "cid"), route{
			verb: http.MethodPost, path: "/case/notes/add",
		}),
		rest("get_note", p("note_id", "cid"), p("note_id", "cid"), route{verb: http.MethodGet, path: "/case/notes/{note_id}"}),
		rest("update_note", p("note_id", "cid", "note_title", "note_content", "directory_id", "custom_attributes"), p("note_id", "cid"), route{
			verb: http.MethodPost, path: "/case/notes/update/{note_id}",
		}),
		rest("delete_note", p("note_id", "cid"), p("note_id", "cid"), route{verb: http.MethodPost, path: "/case/notes/delete/{note_id}"}),
		rest("add_note_comment", p("note_id", "comment", "cid"), p("note_id", "comment", "cid"), route{
			verb: http.MethodPost, path: "/case/notes/{note_id}/comments/add",
			rename: map[string]string{"comment": "comment_text"},
		}),
		rest("list_note_comments", p("note_id", "cid"), p("note_id", "cid"), route{
			verb: http.MethodGet, path: "/case/notes/{note_id}/comments/list",
		}),
		rest("search_notes", p("search_term", "cid"), p("search_term", "cid"), route{
			verb: http.MethodPost, path: "/case/notes/search",
		}),

		// Evidence
		rest("list_evidences", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/case/evidences/list"}),
		rest("add_evidence",
			p("filename", "file_size", "description", "file_hash", "type_id", "custom_attributes", "cid"),
			p("filename", "file_size", "cid"),
			route{
				verb: http.MethodPost, path: "/case/evidences/add",
				rename:  map[string]string{"description": "file_description"},
				prepare: chain(lookup("type_id", evidenceTypes)),
			}),
		rest("update_evidence",
			p("evidence_id", "cid", "filename", "file_size", "description", "file_hash", "type_id", "custom_attributes"),
			p("evidence_id", "cid"),
			route{
				verb: http.MethodPost, path: "/case/evidences/update/{evidence_id}",
				rename:  map[string]string{"description": "file_description"},
				prepare: chain(lookup("type_id", evidenceTypes)),
				merge:   "/case/evidences/{evidence_id}",
			}),
		rest("delete_evidence", p("evidence_id", "cid"), p("evidence_id"), route{
			verb: http.MethodPost, path: "/case/evidences/delete/{evidence_id}",
		}),

		// Events
		rest("list_events", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/case/timeline/events/list"}),
		rest("add_event", eventParams(), p("title", "date_time", "cid"), route{
			verb: http.MethodPost, path: "/case/timeline/events/add",
			rename: eventRename,
			prepare: chain(
				formatTime("event_date"),
				setDefault("event_tz", defaultEventTZ),
				setDefault("event_assets", []any{}),
				setDefault("event_iocs", []any{}),
				joinTags("event_tags"),
				lookup("event_category_id", eventCategories),
			),
		}),
		rest("update_event", append(p("event_id"), eventParams()...), p("event_id", "cid"), route{
			verb: http.MethodPost, path: "/case/timeline/events/update/{event_id}",
			rename: eventRename,
			prepare: chain(
				formatTime("event_date"),
				joinTags("event_tags"),
				lookup("event_category_id", eventCategories),
			),
			merge: "/case/timeline/events/{event_id}",
		}),
		rest("delete_event", p("event_id", "cid"), p("event_id"), route{
			verb: http.MethodPost, path: "/case/timeline/events/delete/{event_id}",
		}),

		// Tasks
		rest("list_tasks", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/case/tasks/list"}),
		rest("add_task", taskParams(), p("title", "status", "assignees", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/add",
			rename:  taskRename,
			prepare: taskPrepare(),
		}),
		rest("update_task", append(p("task_id"), taskParams()...), p("task_id", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/update/{task_id}",
			rename:  taskRename,
			prepare: taskPrepare(),
			merge:   "/case/tasks/{task_id}",
		}),
		rest("delete_task", p("task_id", "cid"), p("task_id", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/delete/{task_id}",
		}),
		rest("add_task_comment", p("task_id", "comment", "cid"), p("task_id", "comment", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/{task_id}/comments/add",
			rename: map[string]string{"comment": "comment_text"},
		}),
		rest("list_task_comments", p("task_id", "cid"), p("task_id", "cid"), route{
			verb: http.MethodGet, path: "/case/tasks/{task_id}/comments/list",
		}),
		rest("update_task_comment", p("task_id", "comment_id", "comment", "cid"), p("task_id", "comment_id", "comment", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/{task_id}/comments/{comment_id}/edit",
			rename: map[string]string{"comment": "comment_text"},
		}),
		rest("delete_task_comment", p("task_id", "comment_id", "cid"), p("task_id", "comment_id", "cid"), route{
			verb: http.MethodPost, path: "/case/tasks/{task_id}/comments/{comment_id}/delete",
		}),

		// Assets
		rest("list_assets", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/case/assets/list"}),
		rest("add_asset",
			p("name", "asset_type", "analysis_status", "compromise_status", "tags", "description",
				"domain", "ip", "additional_info", "ioc_links", "custom_attributes", "cid"),
			p("name", "asset_type", "analysis_status", "cid"),
			route{
				verb: http.MethodPost, path: "/case/assets/add",
				rename: map[string]string{
					"name":              "asset_name",
					"asset_type":        "asset_type_id",
					"analysis_status":   "analysis_status_id",
					"compromise_status": "asset_compromise_status_id",
					"tags":              "asset_tags",
					"description":       "asset_description",
					"domain":            "asset_domain",
					"ip":                "asset_ip",
					"additional_info":   "asset_info",
				},
				prepare: chain(
					lookup("asset_type_id", assetTypes),
					lookup("analysis_status_id", analysisStatuses),
					lookup("asset_compromise_status_id", compromiseStatuses),
					joinTags("asset_tags"),
				),
			}),

		// IOCs
		rest("list_iocs", p("cid"), p("cid"), route{verb: http.MethodGet, path: "/case/ioc/list"}),
		rest("add_ioc",
			p("value", "ioc_type", "description", "ioc_tlp", "ioc_tags", "custom_attributes", "cid"),
			p("value", "ioc_type", "cid"),
			route{
				verb: http.MethodPost, path: "/case/ioc/add",
				rename: map[string]string{
					"value":       "ioc_value",
					"ioc_type":    "ioc_type_id",
					"description": "ioc_description",
					"ioc_tlp":     "ioc_tlp_id",
				},
				prepare: chain(
					setDefault("ioc_tlp_id", "amber"),
					lookup("ioc_type_id", iocTypes),
					lookup("ioc_tlp_id", tlpLevels),
					joinTags("ioc_tags"),
				),
			}),
	}
}

func eventParams() []string {
	return p("title", "date_time", "content", "raw_content", "source", "linked_assets", "linked_iocs",
		"category", "tags", "color", "display_in_graph", "display_in_summary", "custom_attributes",
		"timezone_string", "sync_ioc_with_assets", "cid")
}

var eventRename = map[string]string{
	"title":                "event_title",
	"date_time":            "event_date",
	"content":              "event_content",
	"raw_content":          "event_raw",
	"source":               "event_source",
	"linked_assets":        "event_assets",
	"linked_iocs":          "event_iocs",
	"category":             "event_category_id",
	"tags":                 "event_tags",
	"color":                "event_color",
	"display_in_graph":     "event_in_graph",
	"display_in_summary":   "event_in_summary",
	"timezone_string":      "event_tz",
	"sync_ioc_with_assets": "event_sync_iocs_assets",
}

func taskParams() []string {
	return p("title", "status", "assignees", "description", "tags", "custom_attributes", "cid")
}

var taskRename = map[string]string{
	"title":       "task_title",
	"status":      "task_status_id",
	"assignees":   "task_assignees_id",
	"description": "task_description",
	"tags":        "task_tags",
}

func taskPrepare() func(context.Context, *Session, map[string]any) error {
	return chain(
		lookup("task_status_id", taskStatuses),
		lookupEach("task_assignees_id", users),
		joinTags("task_tags"),
	)
}

// lookupCustomer lists customers and returns the first whose name matches
// case-insensitively. No match is a successful response without data.
func lookupCustomer(ctx context.Context, s *Session, args outbound.Args) (outbound.Response, error) {
	v, _ := args.Get("customer_name")
	name := normalize.Display(v)

	resp, err := s.do(ctx, "lookup_customer", http.MethodGet, "/manage/customers/list", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return resp, nil
	}
	for _, c := range normalize.AsList(resp.Data()) {
		if strings.EqualFold(normalize.Resolve(c, "customer_name", "name").String(), name) {
			return SuccessResponse(c), nil
		}
	}
	return SuccessResponse(nil), nil
}

// addAlert posts a prepared alert record as-is.
func addAlert(ctx context.Context, s *Session, args outbound.Args) (outbound.Response, error) {
	v, _ := args.Get("alert_data")
	data, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: add_alert() expects a mapping, got %T", outbound.ErrSignatureMismatch, v)
	}
	resp, err := s.do(ctx, "add_alert", http.MethodPost, "/alerts/add", nil, data)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Signatures returns the method table of an API version without bindings,
// sorted by name.
func Signatures(version string) ([]outbound.Method, error) {
	table, err := endpointsFor(version)
	if err != nil {
		return nil, err
	}
	out := make([]outbound.Method, len(table))
	for i, ep := range table {
		out[i] = outbound.Method{Name: ep.name, Params: ep.params, Required: ep.required}
	}
	slices.SortFunc(out, func(a, b outbound.Method) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
