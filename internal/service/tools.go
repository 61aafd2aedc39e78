package service

import (
	"github.com/Sentinel-Gate/irisgate/internal/domain/catalog"
	"github.com/Sentinel-Gate/irisgate/internal/domain/exposure"
)

// Tool categories.
const (
	CategoryCatalog     = "catalog"
	CategoryCase        = "case"
	CategoryAlert       = "alert"
	CategoryCustomer    = "customer"
	CategoryNote        = "note"
	CategoryEvidence    = "evidence"
	CategoryEvent       = "event"
	CategoryTask        = "task"
	CategoryAsset       = "asset"
	CategoryIOC         = "ioc"
	CategoryDiagnostics = "diagnostics"
)

// Descriptor describes one tool.
type Descriptor struct {
	Name        string
	Category    string
	ReadOnly    bool
	Description string
	// Catalog is set on the fixed catalog listings.
	Catalog string
}

// Exposure returns the facts an exposure policy sees.
func (d Descriptor) Exposure() exposure.Tool {
	return exposure.Tool{Name: d.Name, Category: d.Category, ReadOnly: d.ReadOnly}
}

func catalogTool(name, kind, description string) Descriptor {
	return Descriptor{Name: name, Category: CategoryCatalog, ReadOnly: true, Description: description, Catalog: kind}
}

func readTool(name, category, description string) Descriptor {
	return Descriptor{Name: name, Category: category, ReadOnly: true, Description: description}
}

func writeTool(name, category, description string) Descriptor {
	return Descriptor{Name: name, Category: category, Description: description}
}

var descriptors = []Descriptor{
	readTool("list_types", CategoryCatalog, "Return a catalog of supported types/statuses (e.g., assets, iocs, severities)."),
	catalogTool("list_ioc_types", catalog.IOCTypes, "Return all supported IOC types (with optional validation hints)."),
	catalogTool("list_asset_types", catalog.AssetTypes, "Return all supported asset types."),
	catalogTool("list_analysis_statuses", catalog.AnalysisStatuses, "Return asset analysis statuses."),
	catalogTool("list_alert_resolution_statuses", catalog.AlertResolutionStatuses, "Return alert resolution statuses."),
	catalogTool("list_alert_statuses", catalog.AlertStatuses, "Return alert statuses."),
	catalogTool("list_task_statuses", catalog.TaskStatuses, "Return task statuses."),
	catalogTool("list_severities", catalog.Severities, "Return severities."),
	catalogTool("list_evidence_types", catalog.EvidenceTypes, "Return evidence types."),
	catalogTool("list_event_categories", catalog.EventCategories, "Return timeline event categories."),
	catalogTool("list_os_types", catalog.OSTypes, "Return operating system types."),
	catalogTool("list_tlp_levels", catalog.TLPLevels, "Return TLP levels."),

	readTool("list_cases", CategoryCase, "List cases with optional filtering."),
	readTool("get_case", CategoryCase, "Get detailed information about a specific case."),
	writeTool("create_case", CategoryCase, "Create a new case."),

	writeTool("create_alert", CategoryAlert, "Create a new alert."),

	readTool("list_customers", CategoryCustomer, "List all customers."),
	readTool("get_customer_by_id", CategoryCustomer, "Get a customer by ID."),
	readTool("lookup_customer", CategoryCustomer, "Lookup a customer ID by name."),
	writeTool("create_customer", CategoryCustomer, "Create a new customer."),

	readTool("list_notes", CategoryNote, "List notes for a case (includes directory ids)."),
	readTool("list_note_directories", CategoryNote, "List note directories for a case."),
	writeTool("create_note_directory", CategoryNote, "Create a note directory in a case."),
	writeTool("add_note", CategoryNote, "Add a note to a case. Without a directory the first directory of the case is used, and a 'Root Notes' directory is created when the case has none."),
	readTool("get_note", CategoryNote, "Get a note with its content."),
	writeTool("update_note", CategoryNote, "Update a note (title/content/directory)."),
	writeTool("delete_note", CategoryNote, "Delete a note."),
	writeTool("add_note_comment", CategoryNote, "Add a comment to a note."),
	readTool("list_note_comments", CategoryNote, "List comments for a note."),
	readTool("search_notes", CategoryNote, "Search notes in a case ('%' matches everything)."),

	readTool("list_evidence", CategoryEvidence, "List evidence for a case."),
	writeTool("add_evidence", CategoryEvidence, "Register evidence on a case."),
	writeTool("update_evidence", CategoryEvidence, "Update an evidence item."),
	writeTool("delete_evidence", CategoryEvidence, "Delete an evidence item."),

	readTool("list_events", CategoryEvent, "List timeline events for a case."),
	writeTool("add_event", CategoryEvent, "Add a timeline event to a case. date_time must be ISO-8601."),
	writeTool("update_event", CategoryEvent, "Update a timeline event."),
	writeTool("delete_event", CategoryEvent, "Delete a timeline event."),

	readTool("list_tasks", CategoryTask, "List tasks for a case."),
	writeTool("add_task", CategoryTask, "Add a task to a case."),
	writeTool("update_task", CategoryTask, "Update a task (status/title/assignees/etc)."),
	writeTool("delete_task", CategoryTask, "Delete a task."),
	writeTool("add_task_comment", CategoryTask, "Add a comment to a task."),
	readTool("list_task_comments", CategoryTask, "List comments for a task."),
	writeTool("update_task_comment", CategoryTask, "Update a task comment."),
	writeTool("delete_task_comment", CategoryTask, "Delete a task comment."),

	readTool("list_assets", CategoryAsset, "List assets for a specific case."),
	writeTool("add_asset", CategoryAsset, "Add an asset to a case."),

	readTool("list_iocs", CategoryIOC, "List IOCs for a specific case."),
	writeTool("add_ioc", CategoryIOC, "Add an IOC to a case."),

	readTool("debug_case_methods", CategoryDiagnostics, "List the client operations available for a case, with their parameters."),
}

// Tools returns every tool descriptor in registration order.
func Tools() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// ExposedTools returns the descriptors that policy allows.
func ExposedTools(policy exposure.Policy) ([]Descriptor, error) {
	facts := make([]exposure.Tool, len(descriptors))
	for i, d := range descriptors {
		facts[i] = d.Exposure()
	}
	allowed, err := exposure.Filter(policy, facts)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		keep[t.Name] = true
	}
	var out []Descriptor
	for _, d := range descriptors {
		if keep[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}
