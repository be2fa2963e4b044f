package workcal

import (
	"sort"
	"time"

	"workcal/internal/model"
)

const dateKeyLayout = "2006-01-02"

// DateKey formats the calendar date of t the way Holiday.Date is written.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a "2006-01-02" date in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, key, loc)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func truncateToMinute(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, t.Location())
}

// holidayIndex maps a date key to the first holiday listed for it.
type holidayIndex map[string]model.Holiday

func indexHolidays(holidays []model.Holiday) holidayIndex {
	idx := make(holidayIndex, len(holidays))
	for _, h := range holidays {
		if _, ok := idx[h.Date]; !ok {
			idx[h.Date] = h
		}
	}
	return idx
}

// meetingIndex groups mandatory meetings by the date they start on,
// keeping input order and dropping repeated IDs within a day.
type meetingIndex map[string][]model.Meeting

func indexMeetings(meetings []model.Meeting) meetingIndex {
	idx := make(meetingIndex)
	seen := make(map[string]map[string]bool)
	for _, m := range meetings {
		if m.IsOptional {
			continue
		}
		day := DateKey(m.Start)
		if seen[day] == nil {
			seen[day] = make(map[string]bool)
		}
		key := meetingKey(m)
		if seen[day][key] {
			continue
		}
		seen[day][key] = true
		idx[day] = append(idx[day], m)
	}
	return idx
}

func (idx meetingIndex) on(day time.Time) []model.Meeting {
	return idx[DateKey(day)]
}

// meetingKey identifies a meeting for deduplication. Meetings without an
// ID fall back to their title and start.
func meetingKey(m model.Meeting) string {
	if m.ID != "" {
		return m.ID
	}
	return m.Title + "@" + m.Start.Format(time.RFC3339Nano)
}

// busySpans converts meetings into intervals sorted by start.
func busySpans(meetings []model.Meeting) []Interval {
	spans := make([]Interval, 0, len(meetings))
	for _, m := range meetings {
		spans = append(spans, Interval{Start: m.Start, End: m.End})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start.Before(spans[j].Start)
	})
	return spans
}
