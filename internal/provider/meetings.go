package provider

import (
	"context"
	"strings"
	"time"

	"workcal/internal/ics"
	appLog "workcal/internal/log"
	"workcal/internal/model"
)

// MeetingSource loads the meetings that overlap [from, to).
type MeetingSource interface {
	LoadMeetings(ctx context.Context, from, to time.Time) ([]model.Meeting, error)
}

// MeetingsFromOccurrences converts timed occurrences into meetings. All-day
// events are not meetings and are skipped. An occurrence is optional when
// its feed says so or its title contains one of optionalKeywords.
func MeetingsFromOccurrences(occ []model.Occurrence, optionalKeywords []string) []model.Meeting {
	out := make([]model.Meeting, 0, len(occ))
	for _, o := range occ {
		if o.AllDay || !o.End.After(o.Start) {
			continue
		}
		out = append(out, model.Meeting{
			ID:         o.UID + "#" + o.InstanceKey,
			Title:      o.Summary,
			Start:      o.Start,
			End:        o.End,
			IsOptional: o.Optional || hasKeyword(o.Summary, optionalKeywords),
			SourceID:   o.SourceID,
		})
	}
	return out
}

func hasKeyword(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ICSMeetings loads meetings from ICS subscriptions.
type ICSMeetings struct {
	Fetcher          *ics.Fetcher
	Sources          []ics.Source
	Location         *time.Location
	OptionalKeywords []string
}

// LoadMeetings fetches every source, parses what it can and expands the
// events over [from, to). A failing feed is reported in the returned
// error while the other feeds still contribute meetings.
func (m ICSMeetings) LoadMeetings(ctx context.Context, from, to time.Time) ([]model.Meeting, error) {
	if len(m.Sources) == 0 {
		return nil, nil
	}

	results, fetchErr := m.Fetcher.FetchAll(ctx, m.Sources)

	var events []ics.ParsedEvent
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			continue
		}
		events = append(events, evs...)
	}

	expanded, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation: m.Location,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		return nil, err
	}

	meetings := MeetingsFromOccurrences(expanded.Occurrences, m.OptionalKeywords)
	appLog.Info("meetings loaded",
		"sources", len(m.Sources),
		"fetched", len(results),
		"events", len(events),
		"meetings", len(meetings),
	)
	return meetings, fetchErr
}
