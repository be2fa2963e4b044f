package workcal

import (
	"time"

	"workcal/internal/model"
)

// PeriodRequest is the input of HoursInPeriod.
type PeriodRequest struct {
	Start    time.Time
	End      time.Time
	Schedule Schedule

	Holidays []model.Holiday
	Meetings []model.Meeting

	ExcludeHolidays bool
	ExcludeMeetings bool
}

// HoursInPeriod sums the effective working hours of every calendar day from
// req.Start to req.End inclusive. Meeting durations are subtracted from the
// day they start on whether or not they fall inside working hours, and no
// day goes below zero.
func HoursInPeriod(req PeriodRequest) (float64, error) {
	if err := req.Schedule.check(); err != nil {
		return 0, err
	}

	first := midnight(req.Start)
	last := midnight(req.End)
	if last.Before(first) {
		return 0, nil
	}

	holidays := indexHolidays(req.Holidays)
	meetings := indexMeetings(req.Meetings)
	daily := time.Duration(req.Schedule.DailyMinutes()) * time.Minute

	var total time.Duration
	for day := first; !day.After(last); day = nextDay(day) {
		if !req.Schedule.IsWorkDay(day.Weekday()) {
			continue
		}
		if req.ExcludeHolidays {
			if _, ok := holidays[DateKey(day)]; ok {
				continue
			}
		}

		capacity := daily
		if req.ExcludeMeetings {
			for _, m := range meetings.on(day) {
				capacity -= m.Duration()
			}
		}
		if capacity > 0 {
			total += capacity
		}
	}

	return total.Minutes() / 60, nil
}
