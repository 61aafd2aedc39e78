package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// isoLayouts are the ISO-8601 forms accepted for event times. Fractional
// seconds are accepted by every layout that has seconds.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// parseISO parses an ISO-8601 timestamp. The second result reports whether
// the text carried a UTC offset.
func parseISO(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, strings.Contains(layout, "Z07:00"), nil
		}
	}
	return time.Time{}, false, fmt.Errorf("not an ISO-8601 time: %q", s)
}

// ListEvents lists the timeline of a case.
func (s *Service) ListEvents(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_events", "listing events", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_events", fmt.Sprintf("Listing events for case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No events found for case %d.", caseID), nil
		}
		out := fmt.Sprintf("Events for Case %d:\n", caseID)
		for _, ev := range items {
			id := field(ev, "event_id", "id")
			name := field(ev, "event_title", "event_name", "name", "title")
			desc := field(ev, "event_content", "event_description", "description", "content")
			category := field(ev, "category_name", "event_category", "category", "event_category_name", "event_category_id")
			tlp := field(ev, "tlp", "tlp_name", "color", "event_color")
			when := field(ev, "event_date", "event_date_wtz", "date_time", "datetime", "event_datetime", "time", "timestamp")
			tz := field(ev, "event_tz", "timezone", "timezone_string")
			if allNil(id, name, category, tlp, desc, when) {
				out += itemLine(ev)
				continue
			}
			at := when.String()
			if !empty(tz.Any()) {
				at += " " + tz.String()
			}
			out += fmt.Sprintf("- ID: %s, Name: %s, Category: %s, TLP/Color: %s, Time: %s, Desc: %s\n",
				id, name, category, tlp, at, desc)
		}
		return out, nil
	})
}

// NewEvent describes a timeline event. Most optional values may also come
// from Extra.
type NewEvent struct {
	CaseID            int            `json:"case_id" jsonschema:"case id"`
	Name              string         `json:"name" jsonschema:"event title"`
	Description       string         `json:"description,omitempty" jsonschema:"event content"`
	Category          any            `json:"category,omitempty" jsonschema:"event category name or id"`
	DateTime          string         `json:"date_time,omitempty" jsonschema:"ISO-8601 event time, e.g. 2025-12-02T08:14:00"`
	RawContent        *string        `json:"raw_content,omitempty" jsonschema:"raw event data"`
	Source            *string        `json:"source,omitempty" jsonschema:"event source"`
	LinkedAssets      []any          `json:"linked_assets,omitempty" jsonschema:"asset ids linked to the event"`
	LinkedIOCs        []any          `json:"linked_iocs,omitempty" jsonschema:"IOC ids linked to the event"`
	Tags              []string       `json:"tags,omitempty" jsonschema:"event tags"`
	Color             *string        `json:"color,omitempty" jsonschema:"event color"`
	DisplayInGraph    *bool          `json:"display_in_graph,omitempty" jsonschema:"show the event in the graph"`
	DisplayInSummary  *bool          `json:"display_in_summary,omitempty" jsonschema:"show the event in the summary"`
	CustomAttributes  map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
	TimezoneString    *string        `json:"timezone_string,omitempty" jsonschema:"UTC offset such as +01:00"`
	SyncIOCWithAssets bool           `json:"sync_ioc_with_assets,omitempty" jsonschema:"link the IOCs to the assets"`
	Extra             map[string]any `json:"extra,omitempty" jsonschema:"fallback values keyed by parameter name"`
	TLP               *string        `json:"tlp,omitempty" jsonschema:"alias of color"`
}

// eventTime resolves the event time from DateTime or Extra. ok is false
// when no valid time was given.
func (e NewEvent) eventTime() (t time.Time, tz string, ok bool) {
	var raw any
	if e.DateTime != "" {
		raw = e.DateTime
	} else {
		raw = firstNonEmpty(e.Extra["date_time"], e.Extra["datetime"])
	}
	switch v := raw.(type) {
	case time.Time:
		return v, "", true
	case string:
		parsed, hasOffset, err := parseISO(v)
		if err != nil {
			return time.Time{}, "", false
		}
		if hasOffset {
			tz = parsed.Format("-07:00")
		}
		return parsed, tz, true
	}
	return time.Time{}, "", false
}

// AddEvent adds a timeline event.
func (s *Service) AddEvent(ctx context.Context, e NewEvent) (string, error) {
	return s.run(ctx, "add_event", "adding event", func(ctx context.Context, sess outbound.Session) (string, error) {
		when, offset, ok := e.eventTime()
		if !ok {
			return "", invalid("date_time is required for an event and must be ISO format if string")
		}
		color := opt(e.Color)
		if color == nil {
			color = opt(e.TLP)
		}
		tz := firstNonEmpty(opt(e.TimezoneString), e.Extra["timezone_string"])
		if tz == nil && offset != "" {
			tz = offset
		}
		sync := any(e.SyncIOCWithAssets)
		if v, found := e.Extra["sync_ioc_with_assets"]; found {
			sync = v
		}

		data, err := call(ctx, sess, "add_event", fmt.Sprintf("Adding event to case %d", e.CaseID), outbound.Args{
			{Key: "title", Value: e.Name},
			{Key: "date_time", Value: when},
			{Key: "content", Value: e.Description},
			{Key: "raw_content", Value: firstNonEmpty(opt(e.RawContent), e.Extra["raw_content"])},
			{Key: "source", Value: firstNonEmpty(opt(e.Source), e.Extra["source"])},
			{Key: "linked_assets", Value: orExtra(optList(e.LinkedAssets), e.Extra, "linked_assets")},
			{Key: "linked_iocs", Value: orExtra(optList(e.LinkedIOCs), e.Extra, "linked_iocs")},
			{Key: "category", Value: e.Category},
			{Key: "tags", Value: orExtra(optList(e.Tags), e.Extra, "tags")},
			{Key: "color", Value: color},
			{Key: "display_in_graph", Value: orExtra(opt(e.DisplayInGraph), e.Extra, "display_in_graph")},
			{Key: "display_in_summary", Value: orExtra(opt(e.DisplayInSummary), e.Extra, "display_in_summary")},
			{Key: "custom_attributes", Value: orExtra(optMap(e.CustomAttributes), e.Extra, "custom_attributes")},
			{Key: "timezone_string", Value: tz},
			{Key: "sync_ioc_with_assets", Value: sync},
			{Key: "cid", Value: e.CaseID},
		})
		if err != nil {
			return "", err
		}
		return "Event added. ID: " + field(data, "event_id", "id").String(), nil
	})
}

func orExtra(v any, extra map[string]any, key string) any {
	if v != nil {
		return v
	}
	return extra[key]
}

// UpdateEvent applies a bulk update to an event. The case id may be passed
// inside fields.
func (s *Service) UpdateEvent(ctx context.Context, eventID int, caseID *int, fields map[string]any) (string, error) {
	return s.run(ctx, "update_event", "updating event", func(ctx context.Context, sess outbound.Session) (string, error) {
		cid, ok, err := liftCaseID(caseID, fields)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", invalid("case_id is required for updating an event")
		}
		args := withFields(outbound.Args{{Key: "event_id", Value: eventID}, {Key: "cid", Value: cid}}, fields)
		if _, err := call(ctx, sess, "update_event", fmt.Sprintf("Updating event %d", eventID), args); err != nil {
			return "", err
		}
		return fmt.Sprintf("Event %d updated.", eventID), nil
	})
}

// DeleteEvent deletes an event.
func (s *Service) DeleteEvent(ctx context.Context, eventID int, caseID *int) (string, error) {
	return s.run(ctx, "delete_event", "deleting event", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "delete_event", fmt.Sprintf("Deleting event %d", eventID), outbound.Args{
			{Key: "event_id", Value: eventID},
			{Key: "cid", Value: opt(caseID)},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Event %d deleted.", eventID), nil
	})
}
