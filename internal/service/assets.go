package service

import (
	"context"
	"fmt"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// defaultAnalysisStatus is the analysis status of a new asset when none is
// given.
const defaultAnalysisStatus = "Unspecified"

// tagList normalizes a tags input: text is split on commas into trimmed,
// non-empty tags, anything else passes through. Text without tags
// becomes nil.
func tagList(v any) any {
	if s, ok := v.(string); ok {
		if tags := splitTags(s); len(tags) > 0 {
			return tags
		}
		return nil
	}
	return v
}

// ListAssets lists the assets of a case.
func (s *Service) ListAssets(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_assets", "listing assets", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_assets", fmt.Sprintf("Listing assets for case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No assets found for case %d.", caseID), nil
		}
		out := fmt.Sprintf("Assets for Case %d:\n", caseID)
		for _, a := range items {
			id := field(a, "asset_id", "id")
			name := field(a, "asset_name", "name")
			kind := field(a, "asset_type_id", "asset_type", "asset_type_name")
			status := field(a, "analysis_status_id", "analysis_status", "analysis_status_name")
			if allNil(id, name, kind, status) {
				out += itemLine(a)
				continue
			}
			out += fmt.Sprintf("- ID: %s, Name: %s, Type: %s, Status: %s\n", id, name, kind, status)
		}
		return out, nil
	})
}

// NewAsset describes an asset to add.
type NewAsset struct {
	CaseID           int            `json:"case_id" jsonschema:"case id"`
	Name             string         `json:"name" jsonschema:"asset name"`
	AssetType        string         `json:"asset_type" jsonschema:"asset type name, see list_asset_types"`
	AnalysisStatus   string         `json:"analysis_status,omitempty" jsonschema:"analysis status name, default Unspecified"`
	Description      string         `json:"description,omitempty" jsonschema:"asset description"`
	CompromiseStatus any            `json:"compromise_status,omitempty" jsonschema:"compromise status name or id"`
	Tags             any            `json:"tags,omitempty" jsonschema:"tag list or comma-separated tags"`
	Domain           *string        `json:"domain,omitempty" jsonschema:"asset domain"`
	IP               *string        `json:"ip,omitempty" jsonschema:"asset IP address"`
	AdditionalInfo   *string        `json:"additional_info,omitempty" jsonschema:"free-form details"`
	IOCLinks         []int          `json:"ioc_links,omitempty" jsonschema:"IOC ids linked to the asset"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
}

// AddAsset adds an asset to a case.
func (s *Service) AddAsset(ctx context.Context, a NewAsset) (string, error) {
	return s.run(ctx, "add_asset", "adding asset", func(ctx context.Context, sess outbound.Session) (string, error) {
		status := a.AnalysisStatus
		if status == "" {
			status = defaultAnalysisStatus
		}
		data, err := call(ctx, sess, "add_asset", fmt.Sprintf("Adding asset to case %d", a.CaseID), outbound.Args{
			{Key: "name", Value: a.Name},
			{Key: "asset_type", Value: a.AssetType},
			{Key: "analysis_status", Value: status},
			{Key: "compromise_status", Value: a.CompromiseStatus},
			{Key: "tags", Value: tagList(a.Tags)},
			{Key: "description", Value: a.Description},
			{Key: "domain", Value: opt(a.Domain)},
			{Key: "ip", Value: opt(a.IP)},
			{Key: "additional_info", Value: opt(a.AdditionalInfo)},
			{Key: "ioc_links", Value: optList(a.IOCLinks)},
			{Key: "custom_attributes", Value: optMap(a.CustomAttributes)},
			{Key: "cid", Value: a.CaseID},
		})
		if err != nil {
			return "", err
		}
		return "Asset added successfully. ID: " + field(data, "asset_id", "id").String(), nil
	})
}

// ListIOCs lists the indicators of compromise of a case.
func (s *Service) ListIOCs(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_iocs", "listing IOCs", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_iocs", fmt.Sprintf("Listing IOCs for case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No IOCs found for case %d.", caseID), nil
		}
		out := fmt.Sprintf("IOCs for Case %d:\n", caseID)
		for _, ioc := range items {
			id := field(ioc, "ioc_id", "id")
			value := field(ioc, "ioc_value", "value", "ioc", "indicator")
			kind := field(ioc, "ioc_type", "ioc_type_id", "ioc_type_name", "type")
			desc := field(ioc, "ioc_description", "description", "ioc_desc")
			tlp := field(ioc, "tlp_name", "ioc_tlp", "ioc_tlp_id", "tlp")
			tags := field(ioc, "ioc_tags", "tags")
			if allNil(id, value, kind, desc) {
				out += itemLine(ioc)
				continue
			}
			out += fmt.Sprintf("- ID: %s, Value: %s, Type: %s, TLP: %s, Tags: %s, Description: %s\n",
				id, value, kind, tlp, tags, desc)
		}
		return out, nil
	})
}

// NewIOC describes an indicator of compromise to add.
type NewIOC struct {
	CaseID           int            `json:"case_id" jsonschema:"case id"`
	Value            string         `json:"value" jsonschema:"indicator value"`
	IOCType          string         `json:"ioc_type" jsonschema:"IOC type name, see list_ioc_types"`
	Description      string         `json:"description,omitempty" jsonschema:"IOC description"`
	IOCTLP           any            `json:"ioc_tlp,omitempty" jsonschema:"TLP name or id, default amber"`
	IOCTags          any            `json:"ioc_tags,omitempty" jsonschema:"tag list or comma-separated tags"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
}

// AddIOC adds an indicator of compromise to a case.
func (s *Service) AddIOC(ctx context.Context, i NewIOC) (string, error) {
	return s.run(ctx, "add_ioc", "adding IOC", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "add_ioc", fmt.Sprintf("Adding IOC to case %d", i.CaseID), outbound.Args{
			{Key: "value", Value: i.Value},
			{Key: "ioc_type", Value: i.IOCType},
			{Key: "description", Value: i.Description},
			{Key: "ioc_tlp", Value: i.IOCTLP},
			{Key: "ioc_tags", Value: tagList(i.IOCTags)},
			{Key: "custom_attributes", Value: optMap(i.CustomAttributes)},
			{Key: "cid", Value: i.CaseID},
		})
		if err != nil {
			return "", err
		}
		return "IOC added successfully. ID: " + field(data, "ioc_id", "id").String(), nil
	})
}
