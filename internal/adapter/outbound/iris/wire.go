package iris

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// EventTimeLayout is the timestamp layout IRIS expects for event dates.
const EventTimeLayout = "2006-01-02T15:04:05.000"

// defaultEventTZ is sent when an event has no explicit timezone.
const defaultEventTZ = "+00:00"

// route maps a client-side operation onto one REST endpoint.
//
// Path placeholders such as {note_id} are filled from the arguments of the
// same name. A "cid" argument is always sent as the cid query parameter.
// Remaining non-nil arguments become query parameters for GET and JSON body
// fields otherwise, renamed through rename.
type route struct {
	verb   string
	path   string
	rename map[string]string
	// prepare rewrites wire fields in place (reference lookups, tag joins).
	prepare func(ctx context.Context, s *Session, fields map[string]any) error
	// merge, when set, is the path of the current record; its fields are
	// fetched and overlaid with the update before posting.
	merge string
	// unwrap lifts a nested collection out of the payload.
	unwrap string
}

func (r route) call(ctx context.Context, s *Session, name string, args outbound.Args) (outbound.Response, error) {
	path, rest, err := expandPath(r.path, args)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if v, ok := rest.Get("cid"); ok && v != nil {
		query.Set("cid", queryValue(v))
	}
	rest = rest.Without("cid").Compact()

	fields := make(map[string]any, len(rest))
	for _, arg := range rest {
		key := arg.Key
		if wire, ok := r.rename[key]; ok {
			key = wire
		}
		fields[key] = arg.Value
	}
	if r.prepare != nil {
		if err := r.prepare(ctx, s, fields); err != nil {
			return nil, err
		}
	}

	if r.merge != "" {
		currentPath, _, err := expandPath(r.merge, args)
		if err != nil {
			return nil, err
		}
		current, err := s.do(ctx, name, http.MethodGet, currentPath, query, nil)
		if err != nil {
			return nil, err
		}
		if current.IsError() {
			return current, nil
		}
		if base, ok := current.Data().(map[string]any); ok {
			for k, v := range fields {
				base[k] = v
			}
			fields = base
		}
	}

	var resp *Response
	if r.verb == http.MethodGet {
		for k, v := range fields {
			query.Set(k, queryValue(v))
		}
		resp, err = s.do(ctx, name, http.MethodGet, path, query, nil)
	} else {
		resp, err = s.do(ctx, name, r.verb, path, query, fields)
	}
	if err != nil {
		return nil, err
	}
	if r.unwrap != "" && !resp.IsError() {
		if inner, ok := normalize.Nested(resp.data, r.unwrap); ok {
			resp.data = inner
		}
	}
	return resp, nil
}

// expandPath substitutes {name} placeholders and returns the arguments that
// were not consumed.
func expandPath(path string, args outbound.Args) (string, outbound.Args, error) {
	rest := args
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return path, rest, nil
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return "", nil, fmt.Errorf("malformed path template %q", path)
		}
		key := path[start+1 : start+end]
		v, ok := args.Get(key)
		if !ok || v == nil {
			return "", nil, fmt.Errorf("%w: missing path argument '%s'", outbound.ErrSignatureMismatch, key)
		}
		path = path[:start] + url.PathEscape(queryValue(v)) + path[start+end+1:]
		rest = rest.Without(key)
	}
}

func queryValue(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(EventTimeLayout)
	}
	return normalize.Display(v)
}

// refList is a server-side reference list used to turn names into ids.
type refList struct {
	label   string
	path    string
	idKey   string
	nameKey string
}

var (
	iocTypes           = refList{"ioc type", "/manage/ioc-types/list", "type_id", "type_name"}
	tlpLevels          = refList{"tlp", "/manage/tlp/list", "tlp_id", "tlp_name"}
	assetTypes         = refList{"asset type", "/manage/asset-type/list", "asset_id", "asset_name"}
	analysisStatuses   = refList{"analysis status", "/manage/analysis-status/list", "id", "name"}
	compromiseStatuses = refList{"compromise status", "/manage/compromise-status/list", "value", "name"}
	taskStatuses       = refList{"task status", "/manage/task-status/list", "id", "status_name"}
	eventCategories    = refList{"event category", "/manage/event-categories/list", "id", "name"}
	evidenceTypes      = refList{"evidence type", "/manage/evidence-types/list", "id", "name"}
	classifications    = refList{"case classification", "/manage/case-classifications/list", "id", "name"}
	users              = refList{"user", "/manage/users/restricted/list", "user_id", "user_login"}
)

// resolveRef returns v as an id: integers pass through, names are looked up
// case-insensitively in the reference list.
func (s *Session) resolveRef(ctx context.Context, ref refList, v any) (any, error) {
	if n, ok := normalize.ToInt(v); ok {
		return n, nil
	}
	name, ok := v.(string)
	if !ok {
		return v, nil
	}

	items, ok := s.refs[ref.path]
	if !ok {
		resp, err := s.do(ctx, "lookup", http.MethodGet, ref.path, nil, nil)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("failed to load %s list: %s", ref.label, resp.Message())
		}
		items = normalize.AsList(resp.Data())
		s.refs[ref.path] = items
	}

	for _, item := range items {
		if !strings.EqualFold(normalize.Resolve(item, ref.nameKey).String(), name) {
			continue
		}
		if id, ok := normalize.Resolve(item, ref.idKey).Int(); ok {
			return id, nil
		}
	}
	return nil, fmt.Errorf("unknown %s '%s'", ref.label, name)
}

// step is one in-place rewrite of wire fields.
type step func(ctx context.Context, s *Session, fields map[string]any) error

func chain(steps ...step) func(context.Context, *Session, map[string]any) error {
	return func(ctx context.Context, s *Session, fields map[string]any) error {
		for _, st := range steps {
			if err := st(ctx, s, fields); err != nil {
				return err
			}
		}
		return nil
	}
}

// lookup resolves fields[key] through ref when present.
func lookup(key string, ref refList) step {
	return func(ctx context.Context, s *Session, fields map[string]any) error {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		id, err := s.resolveRef(ctx, ref, v)
		if err != nil {
			return err
		}
		fields[key] = id
		return nil
	}
}

// lookupEach resolves every element of the list in fields[key].
func lookupEach(key string, ref refList) step {
	return func(ctx context.Context, s *Session, fields map[string]any) error {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		items := normalize.AsList(v)
		ids := make([]any, 0, len(items))
		for _, item := range items {
			id, err := s.resolveRef(ctx, ref, item)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		fields[key] = ids
		return nil
	}
}

// joinTags turns a tag list into the comma-separated string IRIS stores.
func joinTags(key string) step {
	return func(_ context.Context, _ *Session, fields map[string]any) error {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		if _, isString := v.(string); isString {
			return nil
		}
		items := normalize.AsList(v)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = normalize.Display(item)
		}
		fields[key] = strings.Join(parts, ",")
		return nil
	}
}

// formatTime renders a time.Time field with EventTimeLayout.
func formatTime(key string) step {
	return func(_ context.Context, _ *Session, fields map[string]any) error {
		if t, ok := fields[key].(time.Time); ok {
			fields[key] = t.Format(EventTimeLayout)
		}
		return nil
	}
}

// setDefault fills fields[key] when absent.
func setDefault(key string, value any) step {
	return func(_ context.Context, _ *Session, fields map[string]any) error {
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
		return nil
	}
}
