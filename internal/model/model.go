package model

import "time"

// ScheduleConfig is the serialisable description of a weekly work pattern.
// Times are 24-hour "HH:mm" wall-clock strings; WorkDays holds weekday
// indices where 0 is Sunday and 6 is Saturday.
//
// It is validated and turned into an immutable schedule by
// workcal.NewSchedule.
type ScheduleConfig struct {
	StartTime  string `yaml:"start_time" json:"start_time"`
	EndTime    string `yaml:"end_time" json:"end_time"`
	LunchStart string `yaml:"lunch_start" json:"lunch_start"`
	LunchEnd   string `yaml:"lunch_end" json:"lunch_end"`
	WorkDays   []int  `yaml:"work_days" json:"work_days"`
}

// Holiday is a whole calendar day that may be excluded from working time.
// Date is a plain "2006-01-02" key; it carries no time or zone.
type Holiday struct {
	Date    string `yaml:"date" json:"date"`
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Country string `yaml:"country,omitempty" json:"country,omitempty"`
	Global  bool   `yaml:"global,omitempty" json:"global,omitempty"`
}

// Meeting is a single, already expanded meeting occurrence.
// Mandatory meetings (IsOptional == false) block working time.
type Meeting struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	IsOptional bool      `json:"is_optional"`

	// SourceID is the calendar feed the meeting came from, if any.
	SourceID string `json:"source_id,omitempty"`
}

// Duration returns End-Start, or zero for inverted meetings.
func (m Meeting) Duration() time.Duration {
	if !m.End.After(m.Start) {
		return 0
	}
	return m.End.Sub(m.Start)
}

// CalculationResult is the outcome of an end date calculation.
type CalculationResult struct {
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	WorkingDays        int       `json:"working_days"`
	ActualWorkingHours float64   `json:"actual_working_hours"`
	HolidaysExcluded   []Holiday `json:"holidays_excluded"`
	MeetingsExcluded   []Meeting `json:"meetings_excluded"`
}

// Occurrence represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization). Meeting and
// holiday providers derive their values from it.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Optional is set when the feed marks the event as not blocking time
	// (TRANSP:TRANSPARENT, STATUS:TENTATIVE, or an Outlook busy status of
	// FREE or TENTATIVE).
	Optional bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
