package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/workcal"
)

const maxRequestBytes = 1 << 20

// calculationRequest is the JSON body of /api/calculate and /api/hours.
//
// Absent exclusion flags fall back to the configured defaults. A non-empty
// HolidayDates or MeetingIDs narrows what may be excluded to the listed
// entries; an empty list excludes everything. Inline Holidays/Meetings
// replace the refreshed snapshot for this call only.
type calculationRequest struct {
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date,omitempty"`
	EstimatedHours *float64              `json:"estimated_hours,omitempty"`
	Schedule       *model.ScheduleConfig `json:"schedule,omitempty"`

	ExcludeHolidays *bool    `json:"exclude_holidays,omitempty"`
	ExcludeMeetings *bool    `json:"exclude_meetings,omitempty"`
	HolidayDates    []string `json:"holiday_dates,omitempty"`
	MeetingIDs      []string `json:"meeting_ids,omitempty"`

	Holidays []model.Holiday `json:"holidays,omitempty"`
	Meetings []model.Meeting `json:"meetings,omitempty"`
}

// dayDTO is one visited day of an end date calculation.
type dayDTO struct {
	Date  string `json:"date"`
	State string `json:"state"`
}

type calculateResponse struct {
	model.CalculationResult
	Days []dayDTO `json:"days"`
}

type hoursResponse struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Hours     float64   `json:"hours"`
}

type meetingsResponse struct {
	Meetings   []model.Meeting `json:"meetings"`
	RangeStart time.Time       `json:"range_start"`
	RangeEnd   time.Time       `json:"range_end"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type holidaysResponse struct {
	Year      int             `json:"year"`
	Holidays  []model.Holiday `json:"holidays"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type refreshResponse struct {
	Meetings  int       `json:"meetings"`
	Holidays  int       `json:"holidays"`
	UpdatedAt time.Time `json:"updated_at"`
}

// handleCalculate answers POST /api/calculate with the end date for
// estimated_hours of work starting at start_date.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EstimatedHours == nil {
		writeError(w, http.StatusBadRequest, "estimated_hours is required")
		return
	}

	in, err := s.resolve(req)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}

	days := make([]dayDTO, 0)
	res, err := workcal.CalculateEndDate(workcal.Request{
		Start:           in.start,
		Hours:           *req.EstimatedHours,
		Schedule:        in.schedule,
		Holidays:        in.holidays,
		Meetings:        in.meetings,
		ExcludeHolidays: in.excludeHolidays,
		ExcludeMeetings: in.excludeMeetings,
		OnDay: func(day time.Time, state workcal.DayState) {
			days = append(days, dayDTO{Date: workcal.DateKey(day), State: state.String()})
		},
	})
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}

	appLog.Debug("calculated end date",
		"request_id", RequestID(r.Context()),
		"start", res.StartDate.Format(time.RFC3339),
		"hours", res.ActualWorkingHours,
		"end", res.EndDate.Format(time.RFC3339),
		"working_days", res.WorkingDays,
	)
	writeJSON(w, http.StatusOK, calculateResponse{CalculationResult: res, Days: days})
}

// handleHours answers POST /api/hours with the working hours between
// start_date and end_date.
func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := s.resolve(req)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	end, err := ParseInstant(req.EndDate, s.loc)
	if err != nil {
		s.writeCalcError(w, r, workcal.InputError{Field: "end_date", Err: err})
		return
	}

	hours, err := workcal.HoursInPeriod(workcal.PeriodRequest{
		Start:           in.start,
		End:             end,
		Schedule:        in.schedule,
		Holidays:        in.holidays,
		Meetings:        in.meetings,
		ExcludeHolidays: in.excludeHolidays,
		ExcludeMeetings: in.excludeMeetings,
	})
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hoursResponse{StartDate: in.start, EndDate: end, Hours: hours})
}

// handleMeetings lists stored meetings for the next `days` days (default 7).
func (s *Server) handleMeetings(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 7)
	if days <= 0 {
		days = 7
	}

	snap := s.store.Get()
	y, m, d := s.now().In(s.loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, days)

	out := make([]model.Meeting, 0)
	for _, mt := range snap.Meetings {
		if mt.Start.Before(to) && mt.End.After(from) {
			out = append(out, mt)
		}
	}
	writeJSON(w, http.StatusOK, meetingsResponse{
		Meetings:   out,
		RangeStart: from,
		RangeEnd:   to,
		UpdatedAt:  snap.UpdatedAt,
	})
}

// handleHolidays lists stored holidays of `year` (default current year).
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year := s.now().In(s.loc).Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			writeError(w, http.StatusBadRequest, "year must be a four digit number")
			return
		}
		year = n
	}

	snap := s.store.Get()
	prefix := fmt.Sprintf("%04d-", year)
	out := make([]model.Holiday, 0)
	for _, h := range snap.Holidays {
		if strings.HasPrefix(h.Date, prefix) {
			out = append(out, h)
		}
	}
	writeJSON(w, http.StatusOK, holidaysResponse{Year: year, Holidays: out, UpdatedAt: snap.UpdatedAt})
}

// handleRefresh reloads meetings and holidays. Partial failures still
// publish what loaded and are reported as 502.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not configured")
		return
	}
	if err := s.refresher.Refresh(r.Context()); err != nil {
		appLog.Error("api refresh failed", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	snap := s.store.Get()
	writeJSON(w, http.StatusOK, refreshResponse{
		Meetings:  len(snap.Meetings),
		Holidays:  len(snap.Holidays),
		UpdatedAt: snap.UpdatedAt,
	})
}

// calcInput is a calculationRequest resolved against config and snapshot.
type calcInput struct {
	start           time.Time
	schedule        workcal.Schedule
	holidays        []model.Holiday
	meetings        []model.Meeting
	excludeHolidays bool
	excludeMeetings bool
}

func (s *Server) resolve(req calculationRequest) (calcInput, error) {
	in := calcInput{
		schedule:        s.schedule,
		excludeHolidays: s.cfg.ExcludeHolidays,
		excludeMeetings: s.cfg.ExcludeMeetings,
	}

	start, err := ParseInstant(req.StartDate, s.loc)
	if err != nil {
		return in, workcal.InputError{Field: "start_date", Err: err}
	}
	in.start = start

	if req.Schedule != nil {
		sched, err := workcal.NewSchedule(*req.Schedule)
		if err != nil {
			return in, err
		}
		in.schedule = sched
	}
	if req.ExcludeHolidays != nil {
		in.excludeHolidays = *req.ExcludeHolidays
	}
	if req.ExcludeMeetings != nil {
		in.excludeMeetings = *req.ExcludeMeetings
	}

	snap := s.store.Get()
	holidays := snap.Holidays
	if req.Holidays != nil {
		holidays = req.Holidays
	}
	meetings := snap.Meetings
	if req.Meetings != nil {
		meetings = inLocation(req.Meetings, s.loc)
	}
	in.holidays = selectHolidays(holidays, req.HolidayDates)
	in.meetings = selectMeetings(meetings, req.MeetingIDs)
	return in, nil
}

// inLocation returns copies of ms with Start and End in loc. Meetings are
// filed under the calendar day of their start, which depends on the zone.
func inLocation(ms []model.Meeting, loc *time.Location) []model.Meeting {
	out := make([]model.Meeting, len(ms))
	for i, m := range ms {
		m.Start = m.Start.In(loc)
		m.End = m.End.In(loc)
		out[i] = m
	}
	return out
}

// selectHolidays keeps the holidays whose date is listed. No dates keeps all.
func selectHolidays(all []model.Holiday, dates []string) []model.Holiday {
	if len(dates) == 0 {
		return all
	}
	want := make(map[string]bool, len(dates))
	for _, d := range dates {
		want[strings.TrimSpace(d)] = true
	}
	out := make([]model.Holiday, 0, len(dates))
	for _, h := range all {
		if want[h.Date] {
			out = append(out, h)
		}
	}
	return out
}

// selectMeetings keeps the meetings whose ID is listed. No IDs keeps all.
func selectMeetings(all []model.Meeting, ids []string) []model.Meeting {
	if len(ids) == 0 {
		return all
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]model.Meeting, 0, len(ids))
	for _, m := range all {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (calculationRequest, error) {
	var req calculationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}

var instantLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant accepts RFC 3339 or a zone-less local date/time, and
// returns the instant in loc.
func ParseInstant(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("value is required")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an RFC 3339 or YYYY-MM-DD[THH:mm] value", v)
}

func (s *Server) writeCalcError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case workcal.IsUserError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workcal.ErrWalkLimit):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		appLog.Error("calculation failed", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "calculation failed")
	}
}
