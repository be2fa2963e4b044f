package workcal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workcal/internal/model"
)

// Clock is a wall-clock time of day in minutes after midnight.
type Clock int

// ParseClock parses a 24-hour "HH:mm" string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidClock
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at this clock time on the calendar day of day,
// in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

// Schedule is a validated, immutable weekly work pattern.
type Schedule struct {
	start      Clock
	end        Clock
	lunchStart Clock
	lunchEnd   Clock
	workDays   [7]bool
}

// DefaultScheduleConfig is a Monday to Friday, 09:00-18:00 pattern with a
// 12:00-13:00 lunch break.
func DefaultScheduleConfig() model.ScheduleConfig {
	return model.ScheduleConfig{
		StartTime:  "09:00",
		EndTime:    "18:00",
		LunchStart: "12:00",
		LunchEnd:   "13:00",
		WorkDays:   []int{1, 2, 3, 4, 5},
	}
}

// NewSchedule validates cfg and builds a Schedule. Every problem is
// reported as a ConfigurationError before any calculation runs.
func NewSchedule(cfg model.ScheduleConfig) (Schedule, error) {
	var s Schedule
	var err error

	clocks := []struct {
		field string
		value string
		dst   *Clock
	}{
		{"start_time", cfg.StartTime, &s.start},
		{"end_time", cfg.EndTime, &s.end},
		{"lunch_start", cfg.LunchStart, &s.lunchStart},
		{"lunch_end", cfg.LunchEnd, &s.lunchEnd},
	}
	for _, c := range clocks {
		if *c.dst, err = ParseClock(c.value); err != nil {
			return Schedule{}, ConfigurationError{Field: c.field, Value: c.value, Err: err}
		}
	}

	if s.end <= s.start {
		return Schedule{}, ConfigurationError{Field: "end_time", Value: cfg.EndTime, Err: ErrEmptyWindow}
	}
	if s.lunchEnd < s.lunchStart {
		return Schedule{}, ConfigurationError{Field: "lunch_end", Value: cfg.LunchEnd, Err: ErrLunchInverted}
	}
	if s.lunchStart < s.start || s.lunchEnd > s.end {
		return Schedule{}, ConfigurationError{
			Field: "lunch",
			Value: s.lunchStart.String() + "-" + s.lunchEnd.String(),
			Err:   ErrLunchOutsideWindow,
		}
	}
	if s.DailyMinutes() <= 0 {
		return Schedule{}, ConfigurationError{Field: "lunch", Value: s.lunchStart.String() + "-" + s.lunchEnd.String(), Err: ErrNoCapacity}
	}

	if len(cfg.WorkDays) == 0 {
		return Schedule{}, ConfigurationError{Field: "work_days", Value: "[]", Err: ErrNoWorkDays}
	}
	for _, d := range cfg.WorkDays {
		if d < 0 || d > 6 {
			return Schedule{}, ConfigurationError{Field: "work_days", Value: strconv.Itoa(d), Err: ErrInvalidWeekday}
		}
		s.workDays[d] = true
	}

	return s, nil
}

// check rejects the zero Schedule, which was not built by NewSchedule.
func (s Schedule) check() error {
	if len(s.WorkDays()) == 0 {
		return ConfigurationError{Field: "work_days", Value: "[]", Err: ErrNoWorkDays}
	}
	return nil
}

// Start returns the daily start time.
func (s Schedule) Start() Clock { return s.start }

// End returns the daily end time.
func (s Schedule) End() Clock { return s.end }

// LunchStart returns the start of the lunch break.
func (s Schedule) LunchStart() Clock { return s.lunchStart }

// LunchEnd returns the end of the lunch break.
func (s Schedule) LunchEnd() Clock { return s.lunchEnd }

// IsWorkDay reports whether wd is an active weekday.
func (s Schedule) IsWorkDay(wd time.Weekday) bool {
	return s.workDays[wd]
}

// WorkDays returns the active weekdays in ascending order.
func (s Schedule) WorkDays() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d, on := range s.workDays {
		if on {
			out = append(out, time.Weekday(d))
		}
	}
	return out
}

// DailyMinutes is the working capacity of a full day.
func (s Schedule) DailyMinutes() int {
	return int(s.end-s.start) - int(s.lunchEnd-s.lunchStart)
}

// Window returns the working window [start, end) on the day of day.
func (s Schedule) Window(day time.Time) (time.Time, time.Time) {
	return s.start.On(day), s.end.On(day)
}

// Lunch returns the lunch span on the day of day.
func (s Schedule) Lunch(day time.Time) Interval {
	return Interval{Start: s.lunchStart.On(day), End: s.lunchEnd.On(day)}
}

// Config converts the schedule back into its serialisable form.
func (s Schedule) Config() model.ScheduleConfig {
	days := make([]int, 0, 7)
	for _, d := range s.WorkDays() {
		days = append(days, int(d))
	}
	return model.ScheduleConfig{
		StartTime:  s.start.String(),
		EndTime:    s.end.String(),
		LunchStart: s.lunchStart.String(),
		LunchEnd:   s.lunchEnd.String(),
		WorkDays:   days,
	}
}
