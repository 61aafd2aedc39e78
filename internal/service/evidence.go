package service

import (
	"context"
	"fmt"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// ListEvidence lists the evidence of a case.
func (s *Service) ListEvidence(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_evidence", "listing evidence", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_evidences", fmt.Sprintf("Listing evidence for case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No evidence found for case %d.", caseID), nil
		}
		out := fmt.Sprintf("Evidence for Case %d:\n", caseID)
		for _, ev := range items {
			id := field(ev, "evidence_id", "id")
			name := field(ev, "evidence_name", "name", "title", "filename")
			kind := field(ev, "evidence_type", "type", "evidence_type_id", "type_id")
			tlp := field(ev, "tlp", "tlp_name", "color")
			size := field(ev, "file_size", "size")
			hash := field(ev, "file_hash", "hash")
			desc := field(ev, "file_description", "description", "evidence_description")
			added := field(ev, "date_added", "created_at")
			if allNil(id, name, kind, tlp, size, hash, desc) {
				out += itemLine(ev)
				continue
			}
			out += fmt.Sprintf("- ID: %s, Name: %s, Type: %s, TLP: %s, Size: %s, Hash: %s, Added: %s, Desc: %s\n",
				id, name, kind, tlp, size, hash, added, desc)
		}
		return out, nil
	})
}

// NewEvidence describes evidence to register. Filename, file size, hash and
// custom attributes may also come from Extra; Name is an alias of Filename.
type NewEvidence struct {
	CaseID           int            `json:"case_id" jsonschema:"case id"`
	Filename         *string        `json:"filename,omitempty" jsonschema:"evidence file name"`
	FileSize         *int64         `json:"file_size,omitempty" jsonschema:"file size in bytes"`
	Description      string         `json:"description,omitempty" jsonschema:"evidence description"`
	FileHash         *string        `json:"file_hash,omitempty" jsonschema:"file hash"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
	Extra            map[string]any `json:"extra,omitempty" jsonschema:"fallback values for filename, file_size, file_hash and custom_attributes"`
	Name             *string        `json:"name,omitempty" jsonschema:"alias of filename"`
}

// AddEvidence registers evidence on a case.
func (s *Service) AddEvidence(ctx context.Context, e NewEvidence) (string, error) {
	return s.run(ctx, "add_evidence", "adding evidence", func(ctx context.Context, sess outbound.Session) (string, error) {
		filename := firstNonEmpty(opt(e.Filename), opt(e.Name), e.Extra["filename"])
		size := opt(e.FileSize)
		if size == nil {
			size = e.Extra["file_size"]
		}
		hash := opt(e.FileHash)
		if hash == nil {
			hash = e.Extra["file_hash"]
		}
		attrs := optMap(e.CustomAttributes)
		if attrs == nil {
			attrs = e.Extra["custom_attributes"]
		}
		if filename == nil {
			return "", invalid("filename is required for evidence")
		}
		if size == nil {
			return "", invalid("file_size is required for evidence")
		}

		data, err := call(ctx, sess, "add_evidence", fmt.Sprintf("Adding evidence to case %d", e.CaseID), outbound.Args{
			{Key: "filename", Value: filename},
			{Key: "file_size", Value: size},
			{Key: "description", Value: e.Description},
			{Key: "file_hash", Value: hash},
			{Key: "custom_attributes", Value: attrs},
			{Key: "cid", Value: e.CaseID},
		})
		if err != nil {
			return "", err
		}
		return "Evidence added. ID: " + field(data, "evidence_id", "id").String(), nil
	})
}

// UpdateEvidence applies a bulk update to an evidence item. The case id
// may be passed inside fields.
func (s *Service) UpdateEvidence(ctx context.Context, evidenceID int, caseID *int, fields map[string]any) (string, error) {
	return s.run(ctx, "update_evidence", "updating evidence", func(ctx context.Context, sess outbound.Session) (string, error) {
		cid, ok, err := liftCaseID(caseID, fields)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", invalid("case_id is required for updating an evidence item")
		}
		args := withFields(outbound.Args{{Key: "evidence_id", Value: evidenceID}, {Key: "cid", Value: cid}}, fields)
		if _, err := call(ctx, sess, "update_evidence", fmt.Sprintf("Updating evidence %d", evidenceID), args); err != nil {
			return "", err
		}
		return fmt.Sprintf("Evidence %d updated.", evidenceID), nil
	})
}

// DeleteEvidence deletes an evidence item.
func (s *Service) DeleteEvidence(ctx context.Context, evidenceID int, caseID *int) (string, error) {
	return s.run(ctx, "delete_evidence", "deleting evidence", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "delete_evidence", fmt.Sprintf("Deleting evidence %d", evidenceID), outbound.Args{
			{Key: "evidence_id", Value: evidenceID},
			{Key: "cid", Value: opt(caseID)},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Evidence %d deleted.", evidenceID), nil
	})
}

// firstNonEmpty returns the first value that is not nil or "".
func firstNonEmpty(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		return v
	}
	return nil
}
