package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "workcal/internal/log"
	"workcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted into.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences; an occurrence is kept
	// when it overlaps the range.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed events into concrete occurrences within
// the configured range: plain events, RRULE series with EXDATEs, and
// RECURRENCE-ID overrides (moved or cancelled instances). The result is
// sorted by start, then UID.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	bases := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	uids := make([]string, 0)
	for _, ev := range events {
		if ev.IsOverride {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := bases[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}

	occurrences := make([]model.Occurrence, 0)
	for _, uid := range uids {
		truncated := false
		for _, ev := range bases[uid] {
			if ev.Cancelled {
				continue
			}
			occ, hitCap := expandEvent(ev, overrides[uid], cfg)
			truncated = truncated || hitCap
			occurrences = append(occurrences, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if !occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].Start.Before(occurrences[j].Start)
		}
		return occurrences[i].UID < occurrences[j].UID
	})

	result.Occurrences = occurrences
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		return []model.Occurrence{makeOccurrence(ev, ev.Start, ev.End, cfg.DisplayLocation)}, false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by one event length so instances that started
	// before the range but are still running are included.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		inst, instStart, instEnd := ev, start, start.Add(dur)

		if o, ok := findOverride(overrides, start); ok {
			if o.Cancelled {
				continue
			}
			inst, instStart, instEnd = o, o.Start, o.End
		}
		if !overlaps(instStart, instEnd, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeOccurrence(inst, instStart, instEnd, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride returns the override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeOccurrence normalizes an instance into displayLoc. All-day instances
// keep their calendar date and become [00:00, 00:00 next day) in displayLoc.
func makeOccurrence(ev ParsedEvent, start, end time.Time, displayLoc *time.Location) model.Occurrence {
	if ev.AllDay {
		days := int(end.Sub(start).Hours()/24 + 0.5)
		if days < 1 {
			days = 1
		}
		y, m, d := start.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, displayLoc)
		end = start.AddDate(0, 0, days)
	} else {
		start = start.In(displayLoc)
		end = end.In(displayLoc)
	}

	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339),
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Optional:    ev.Optional,
		Start:       start,
		End:         end,
	}
}

// overlaps treats events as half-open; zero-length events count when they
// sit inside the range.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Equal(aStart) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
