// Package catalog serves the static DFIR-IRIS reference data: IOC and asset
// types, the various status lists, severities, evidence types, event
// categories, OS types and TLP levels.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog names.
const (
	IOCTypes                = "iocs"
	AssetTypes              = "assets"
	AnalysisStatuses        = "analysis_statuses"
	AlertResolutionStatuses = "alert_resolution_statuses"
	AlertStatuses           = "alert_statuses"
	TaskStatuses            = "task_statuses"
	Severities              = "severities"
	EvidenceTypes           = "evidence_types"
	EventCategories         = "event_categories"
	OSTypes                 = "os_types"
	TLPLevels               = "tlp_levels"
)

// aliases maps friendly names to catalog names.
var aliases = map[string]string{
	"ioc":               "iocs",
	"ioc_types":         "iocs",
	"asset":             "assets",
	"asset_types":       "assets",
	"analysis_status":   "analysis_statuses",
	"analysis":          "analysis_statuses",
	"alert_resolution":  "alert_resolution_statuses",
	"alert_resolutions": "alert_resolution_statuses",
	"task_status":       "task_statuses",
	"severity":          "severities",
	"alert_status":      "alert_statuses",
	"evidence":          "evidence_types",
	"event_category":    "event_categories",
	"events":            "event_categories",
	"os":                "os_types",
	"os_type":           "os_types",
	"tlp":               "tlp_levels",
	"tlps":              "tlp_levels",
}

// Entry is one reference record, e.g. {"type": "md5", "description": "..."}.
type Entry map[string]string

// UnknownCatalogError is returned for a kind that matches no catalog or alias.
type UnknownCatalogError struct {
	Kind      string
	Available []string
}

func (e *UnknownCatalogError) Error() string {
	return fmt.Sprintf("Unknown catalog '%s'. Available: %s", e.Kind, strings.Join(e.Available, ", "))
}

// Set holds every catalog by name.
type Set struct {
	catalogs map[string][]Entry
}

// Parse decodes catalog data in YAML form: a mapping from catalog name to a
// sequence of flat string records.
func Parse(data []byte) (*Set, error) {
	var raw map[string][]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog data: %w", err)
	}
	for name, entries := range raw {
		if len(entries) == 0 {
			return nil, fmt.Errorf("catalog %q is empty", name)
		}
	}
	return &Set{catalogs: raw}, nil
}

var defaultSet = sync.OnceValue(func() *Set {
	s, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return s
})

// Default returns the catalogs embedded in the binary.
func Default() *Set { return defaultSet() }

// Names returns the catalog names, sorted.
func (s *Set) Names() []string {
	return slices.Sorted(maps.Keys(s.catalogs))
}

// Canonical resolves kind (trimmed, case-insensitive, aliases applied) to a
// catalog name without checking that the catalog exists.
func Canonical(kind string) string {
	normalized := strings.ToLower(strings.TrimSpace(kind))
	if name, ok := aliases[normalized]; ok {
		return name
	}
	return normalized
}

// Lookup returns a copy of the catalog named by kind.
func (s *Set) Lookup(kind string) ([]Entry, error) {
	entries, ok := s.catalogs[Canonical(kind)]
	if !ok {
		return nil, &UnknownCatalogError{Kind: kind, Available: s.Names()}
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = maps.Clone(e)
	}
	return out, nil
}

// Columns returns the union of the entry keys of a catalog in a stable order:
// identifying keys first, then the rest alphabetically.
func Columns(entries []Entry) []string {
	seen := map[string]bool{}
	for _, e := range entries {
		for k := range e {
			seen[k] = true
		}
	}
	var cols []string
	for _, k := range []string{"id", "type", "name"} {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	return append(cols, slices.Sorted(maps.Keys(seen))...)
}
