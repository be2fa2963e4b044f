package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "workcal/internal/log"
)

// ParsedEvent is a VEVENT before recurrence expansion.
type ParsedEvent struct {
	Source Source

	UID string
	Seq int

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	// Optional events do not block time: TRANSP:TRANSPARENT,
	// STATUS:TENTATIVE or an Outlook busy status of FREE/TENTATIVE.
	Optional bool
	// Cancelled is STATUS:CANCELLED. On an override it removes that
	// single instance.
	Cancelled bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present)
	IsOverride bool       // true if this VEVENT overrides a recurring instance
}

// ParseICS parses a single ICS payload. Malformed VEVENTs are logged and
// skipped; only an unreadable calendar is an error.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	out.UID = propValue(ve, ical.ComponentPropertyUniqueId)
	if out.UID == "" {
		return out, errors.New("missing UID")
	}
	if n, err := strconv.Atoi(propValue(ve, ical.ComponentPropertySequence)); err == nil {
		out.Seq = n
	}

	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseICSTime(dtStart.Value)
		if err != nil {
			return out, err
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseICSTime(dtEnd.Value); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = start
		// Without DTEND (or with a broken one) the event is instantaneous.
		out.End = start
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			out.End = end
		}
	}

	status := strings.ToUpper(propValue(ve, "STATUS"))
	out.Cancelled = status == "CANCELLED"
	out.Optional = status == "TENTATIVE" ||
		strings.EqualFold(propValue(ve, "TRANSP"), "TRANSPARENT")
	switch strings.ToUpper(propValue(ve, "X-MICROSOFT-CDO-BUSYSTATUS")) {
	case "FREE", "TENTATIVE":
		out.Optional = true
	}

	out.RawRRule = propValue(ve, ical.ComponentPropertyRrule)

	// EXDATE may repeat and may hold comma separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTimeIn(part, tzidOf(p)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		if t, err := parseICSTimeIn(rid.Value, tzidOf(rid)); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// isDateValue reports VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzidOf(p *ical.IANAProperty) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return nil
}

// parseICSTime parses DATE and DATE-TIME values. Date-only values are
// returned at midnight UTC so their calendar date survives untouched;
// floating date-times use time.Local.
func parseICSTime(v string) (time.Time, error) {
	return parseICSTimeIn(v, nil)
}

func parseICSTimeIn(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		if loc == nil {
			loc = time.Local
		}
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}
