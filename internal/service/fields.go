package service

import (
	"slices"

	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// caseKeys are the names under which a case id may hide inside a bulk
// update.
var caseKeys = []string{"cid", "case_id"}

// liftCaseID picks the case id of an update: the explicit parameter wins,
// then cid and case_id found in fields.
func liftCaseID(caseID *int, fields map[string]any) (int, bool, error) {
	if caseID != nil {
		return *caseID, true, nil
	}
	for _, key := range caseKeys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		id, ok := toInt(v)
		if !ok {
			return 0, false, invalid("%s must be an integer, got %v", key, v)
		}
		return id, true, nil
	}
	return 0, false, nil
}

// withFields appends the non-nil entries of a bulk update to base, in key
// order. Case ids and keys already set in base are skipped.
func withFields(base outbound.Args, fields map[string]any) outbound.Args {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := slices.Clone(base)
	for _, k := range keys {
		if slices.Contains(caseKeys, k) || out.Has(k) || fields[k] == nil {
			continue
		}
		out = append(out, outbound.Arg{Key: k, Value: fields[k]})
	}
	return out
}
