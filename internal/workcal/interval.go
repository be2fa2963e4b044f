package workcal

import (
	"sort"
	"time"
)

// Interval is a half-open span of time [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End-Start; inverted intervals have no length.
func (iv Interval) Duration() time.Duration {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Minutes returns the whole minutes in the interval.
func (iv Interval) Minutes() int {
	return int(iv.Duration() / time.Minute)
}

// DayContext tells FreeIntervals where availability begins on a day.
// It is either FirstDay or FullDay.
type DayContext interface {
	dayStart(s Schedule, day time.Time) time.Time
}

// FirstDay is the day work begins; availability starts at Start if that is
// later than the scheduled start.
type FirstDay struct {
	Start time.Time
}

func (f FirstDay) dayStart(s Schedule, day time.Time) time.Time {
	start := s.start.On(day)
	if f.Start.After(start) {
		return f.Start
	}
	return start
}

// FullDay is any later day; availability starts at the scheduled start.
type FullDay struct{}

func (FullDay) dayStart(s Schedule, day time.Time) time.Time {
	return s.start.On(day)
}

// FreeIntervals returns the ordered, disjoint free working intervals of day.
// The lunch break is always treated as busy in addition to busy; busy may
// be in any order and may extend outside the working window.
func FreeIntervals(day time.Time, s Schedule, busy []Interval, dc DayContext) []Interval {
	if dc == nil {
		dc = FullDay{}
	}
	cursor := dc.dayStart(s, day)
	dayEnd := s.end.On(day)

	spans := make([]Interval, 0, len(busy)+1)
	spans = append(spans, s.Lunch(day))
	spans = append(spans, busy...)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start.Before(spans[j].Start)
	})

	free := make([]Interval, 0, len(spans)+1)
	for _, b := range spans {
		if !cursor.Before(dayEnd) {
			break
		}
		if b.Start.After(cursor) {
			gapEnd := b.Start
			if gapEnd.After(dayEnd) {
				gapEnd = dayEnd
			}
			free = appendNonEmpty(free, Interval{Start: cursor, End: gapEnd})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(dayEnd) {
		free = appendNonEmpty(free, Interval{Start: cursor, End: dayEnd})
	}
	return free
}

func appendNonEmpty(ivs []Interval, iv Interval) []Interval {
	if !iv.End.After(iv.Start) {
		return ivs
	}
	return append(ivs, iv)
}

// CompletionInstant walks intervals in order and returns the instant at
// which budget is used up. If the intervals hold less than budget, the end
// of the last interval is returned. ok is false when intervals is empty.
func CompletionInstant(intervals []Interval, budget time.Duration) (end time.Time, ok bool) {
	if len(intervals) == 0 {
		return time.Time{}, false
	}
	remaining := budget
	for _, iv := range intervals {
		d := iv.Duration()
		if remaining <= d {
			return iv.Start.Add(remaining), true
		}
		remaining -= d
	}
	return intervals[len(intervals)-1].End, true
}
