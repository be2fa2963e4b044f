package workcal

import (
	"math"
	"time"

	"workcal/internal/model"
)

// MaxWalkDays caps the number of calendar days a single calculation may
// visit.
const MaxWalkDays = 100 * 366

// Request is the input of CalculateEndDate.
type Request struct {
	Start    time.Time
	Hours    float64
	Schedule Schedule

	Holidays []model.Holiday
	Meetings []model.Meeting

	ExcludeHolidays bool
	ExcludeMeetings bool

	// OnDay, if set, is called with every visited day and its outcome.
	OnDay func(day time.Time, state DayState)
}

// DayState is the outcome of visiting one calendar day.
type DayState int

const (
	SkippedWeekend DayState = iota
	SkippedHoliday
	SkippedMeetings
	SkippedNoTimeLeft
	WorkingPartialDay
	WorkingFullDay
	Completed
)

func (s DayState) String() string {
	switch s {
	case SkippedWeekend:
		return "skipped-weekend"
	case SkippedHoliday:
		return "skipped-holiday"
	case SkippedMeetings:
		return "skipped-meetings"
	case SkippedNoTimeLeft:
		return "skipped-no-time-left"
	case WorkingPartialDay:
		return "working-partial-day"
	case WorkingFullDay:
		return "working-full-day"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// CalculateEndDate returns the instant at which req.Hours of effective
// working time have elapsed after req.Start.
func CalculateEndDate(req Request) (model.CalculationResult, error) {
	if math.IsNaN(req.Hours) || math.IsInf(req.Hours, 0) {
		return model.CalculationResult{}, InputError{Field: "estimated_hours", Err: ErrInvalidHours}
	}
	if req.Hours < 0 {
		return model.CalculationResult{}, InputError{Field: "estimated_hours", Err: ErrNegativeHours}
	}
	if err := req.Schedule.check(); err != nil {
		return model.CalculationResult{}, err
	}

	result := model.CalculationResult{
		StartDate:          req.Start,
		EndDate:            req.Start,
		ActualWorkingHours: req.Hours,
		HolidaysExcluded:   []model.Holiday{},
		MeetingsExcluded:   []model.Meeting{},
	}

	budget := time.Duration(math.Round(req.Hours*60)) * time.Minute
	if budget <= 0 {
		return result, nil
	}

	w := &walker{
		req:       req,
		holidays:  indexHolidays(req.Holidays),
		meetings:  indexMeetings(req.Meetings),
		recorded:  make(map[string]bool),
		remaining: budget,
		result:    &result,
	}

	cursor := truncateToMinute(req.Start)
	var dc DayContext = FirstDay{Start: cursor}
	for i := 0; i < MaxWalkDays; i++ {
		state := w.visit(cursor, dc)
		if req.OnDay != nil {
			req.OnDay(cursor, state)
		}
		if state == Completed {
			return result, nil
		}
		cursor = req.Schedule.start.On(nextDay(cursor))
		dc = FullDay{}
	}
	return model.CalculationResult{}, ErrWalkLimit
}

// walker carries the state of one CalculateEndDate call.
type walker struct {
	req       Request
	holidays  holidayIndex
	meetings  meetingIndex
	recorded  map[string]bool
	remaining time.Duration
	result    *model.CalculationResult
}

// visit processes a single day and reports what happened to it.
func (w *walker) visit(day time.Time, dc DayContext) DayState {
	s := w.req.Schedule

	if !s.IsWorkDay(day.Weekday()) {
		return SkippedWeekend
	}
	if w.req.ExcludeHolidays {
		if h, ok := w.holidays[DateKey(day)]; ok {
			w.result.HolidaysExcluded = append(w.result.HolidaysExcluded, h)
			return SkippedHoliday
		}
	}

	// Counted before meetings are considered, so a day fully taken by
	// meetings still counts as a working day.
	w.result.WorkingDays++

	available := availableTime(s, day, dc)
	capacity := available

	var blocking []model.Meeting
	if w.req.ExcludeMeetings {
		blocking = w.blockingMeetings(day, dc)
		for _, m := range blocking {
			available -= m.Duration()
			key := meetingKey(m)
			if !w.recorded[key] {
				w.recorded[key] = true
				w.result.MeetingsExcluded = append(w.result.MeetingsExcluded, m)
			}
		}
	}

	if capacity <= 0 {
		// First day started at or after closing time.
		return SkippedNoTimeLeft
	}
	if available <= 0 {
		return SkippedMeetings
	}

	if w.remaining <= available {
		free := FreeIntervals(day, s, busySpans(blocking), dc)
		end, ok := CompletionInstant(free, w.remaining)
		if !ok {
			end = dc.dayStart(s, day)
		}
		w.result.EndDate = end
		w.remaining = 0
		return Completed
	}

	w.remaining -= available
	if _, first := dc.(FirstDay); first {
		return WorkingPartialDay
	}
	return WorkingFullDay
}

// blockingMeetings returns the mandatory meetings starting on day. On the
// first day, meetings that ended before work starts are ignored.
func (w *walker) blockingMeetings(day time.Time, dc DayContext) []model.Meeting {
	all := w.meetings.on(day)
	fd, first := dc.(FirstDay)
	if !first {
		return all
	}
	out := make([]model.Meeting, 0, len(all))
	for _, m := range all {
		if m.End.After(fd.Start) {
			out = append(out, m)
		}
	}
	return out
}

// availableTime is the day's capacity before meetings. On the first day it
// runs from the actual start to the end of the day, less whatever part of
// lunch is still ahead.
func availableTime(s Schedule, day time.Time, dc DayContext) time.Duration {
	if _, first := dc.(FirstDay); !first {
		return time.Duration(s.DailyMinutes()) * time.Minute
	}

	from := dc.dayStart(s, day)
	dayEnd := s.end.On(day)
	if !dayEnd.After(from) {
		return 0
	}

	lunch := s.Lunch(day)
	if lunch.Start.Before(from) {
		lunch.Start = from
	}
	if lunch.End.After(dayEnd) {
		lunch.End = dayEnd
	}
	return dayEnd.Sub(from) - lunch.Duration()
}
