package service

import (
	"context"
	"fmt"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// defaultClassification is sent when a case is created without one.
const defaultClassification = "other:other"

// CaseFilter narrows ListCases. Unset fields are not sent.
type CaseFilter struct {
	CustomerID   *int    `json:"customer_id,omitempty" jsonschema:"only cases of this customer"`
	CaseName     *string `json:"case_name,omitempty" jsonschema:"case name filter"`
	Description  *string `json:"description,omitempty" jsonschema:"case description filter"`
	CaseStatusID *int    `json:"case_status_id,omitempty" jsonschema:"case status id"`
	StartDate    *string `json:"start_date,omitempty" jsonschema:"cases opened after this date"`
	EndDate      *string `json:"end_date,omitempty" jsonschema:"cases opened before this date"`
}

// ListCases lists cases, naming their customers when the customer list is
// readable.
func (s *Service) ListCases(ctx context.Context, f CaseFilter) (string, error) {
	return s.run(ctx, "list_cases", "listing cases", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_cases", "Listing cases", outbound.Args{
			{Key: "case_customer", Value: opt(f.CustomerID)},
			{Key: "case_name", Value: opt(f.CaseName)},
			{Key: "case_description", Value: opt(f.Description)},
			{Key: "case_status_id", Value: opt(f.CaseStatusID)},
			{Key: "case_open_date_gt", Value: opt(f.StartDate)},
			{Key: "case_open_date_lt", Value: opt(f.EndDate)},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		names := s.customerNames(ctx, sess)

		if len(items) == 0 {
			return "No cases found.", nil
		}
		out := "Cases:\n"
		for _, c := range items {
			out += fmt.Sprintf("- ID: %s, Name: %s, Customer: %s, Status: %s\n",
				field(c, "case_id", "id", "cid"),
				field(c, "case_name", "name"),
				formatCustomer(field(c, "case_customer", "customer", "customer_id", "case_customer_id"), names),
				field(c, "case_status_id", "status_id", "status"),
			)
		}
		return out, nil
	})
}

// customerNames maps customer ids to names. Any failure yields nil: case
// listings fall back to raw ids.
func (s *Service) customerNames(ctx context.Context, sess outbound.Session) map[int]string {
	data, err := call(ctx, sess, "list_customers", "Listing customers", nil)
	if err != nil {
		s.logger.Debug("customer lookup skipped", "error", err)
		return nil
	}
	if empty(data) {
		return nil
	}
	names := make(map[int]string)
	for _, c := range normalize.AsList(data) {
		id, ok := field(c, "customer_id", "id").Int()
		name := field(c, "customer_name", "name")
		if ok && !empty(name.Any()) {
			names[id] = name.String()
		}
	}
	return names
}

// GetCase renders one case.
func (s *Service) GetCase(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "get_case", fmt.Sprintf("getting case %d", caseID), func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "get_case", fmt.Sprintf("Getting case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		if empty(data) {
			return fmt.Sprintf("Case with ID %d not found.", caseID), nil
		}
		return fmt.Sprintf("Case Details:\nID: %s\nName: %s\nDescription: %s\nCustomer: %s\nStatus: %s\nOpened: %s",
			field(data, "case_id", "id", "cid"),
			field(data, "case_name", "name"),
			field(data, "case_description", "description"),
			formatCustomer(field(data, "case_customer", "customer", "customer_id", "case_customer_id"), nil),
			field(data, "case_status_id", "status_id", "status"),
			field(data, "case_open_date", "open_date"),
		), nil
	})
}

// NewCase describes a case to create.
type NewCase struct {
	Name             string `json:"name" jsonschema:"case name"`
	CustomerID       int    `json:"customer_id" jsonschema:"owning customer id"`
	Description      string `json:"description,omitempty" jsonschema:"case description"`
	SOCID            string `json:"soc_id,omitempty" jsonschema:"SOC ticket reference"`
	ClassificationID *int   `json:"classification_id,omitempty" jsonschema:"case classification id; defaults to other:other"`
}

// CreateCase creates a case.
func (s *Service) CreateCase(ctx context.Context, c NewCase) (string, error) {
	return s.run(ctx, "create_case", "creating case", func(ctx context.Context, sess outbound.Session) (string, error) {
		args := outbound.Args{
			{Key: "case_name", Value: c.Name},
			{Key: "case_customer", Value: c.CustomerID},
			{Key: "case_description", Value: c.Description},
			{Key: "soc_id", Value: c.SOCID},
		}
		if c.ClassificationID != nil {
			args = args.With("case_classification_id", *c.ClassificationID)
		} else {
			args = args.With("case_classification", defaultClassification)
		}
		created, err := call(ctx, sess, "add_case", "Creating case", args)
		if err != nil {
			return "", err
		}
		if empty(created) {
			return "Failed to create case.", nil
		}
		return "Case created successfully. ID: " + field(created, "case_id", "id", "cid").String(), nil
	})
}

// NewAlert describes an alert to create.
type NewAlert struct {
	Title       string `json:"title" jsonschema:"alert title"`
	Description string `json:"description" jsonschema:"alert description"`
	Source      string `json:"source" jsonschema:"alert source system"`
	SourceRef   string `json:"source_ref" jsonschema:"reference in the source system"`
	Tags        string `json:"tags,omitempty" jsonschema:"comma-separated tags"`
	SeverityID  *int   `json:"severity_id,omitempty" jsonschema:"severity id, default 2 (low)"`
	StatusID    *int   `json:"status_id,omitempty" jsonschema:"status id, default 1 (new)"`
	CustomerID  *int   `json:"customer_id,omitempty" jsonschema:"customer id, default 1"`
}

// CreateAlert creates an alert.
func (s *Service) CreateAlert(ctx context.Context, a NewAlert) (string, error) {
	return s.run(ctx, "create_alert", "creating alert", func(ctx context.Context, sess outbound.Session) (string, error) {
		alert := map[string]any{
			"alert_title":       a.Title,
			"alert_description": a.Description,
			"alert_source":      a.Source,
			"alert_source_ref":  a.SourceRef,
			"alert_tags":        a.Tags,
			"alert_severity_id": intOr(a.SeverityID, 2),
			"alert_status_id":   intOr(a.StatusID, 1),
			"alert_customer_id": intOr(a.CustomerID, 1),
		}
		data, err := call(ctx, sess, "add_alert", "Creating alert", outbound.Args{{Key: "alert_data", Value: alert}})
		if err != nil {
			return "", err
		}
		return "Alert created successfully. ID: " + field(data, "alert_id", "id").String(), nil
	})
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
