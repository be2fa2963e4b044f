package workcal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/model"
)

func mustSchedule(t *testing.T, cfg model.ScheduleConfig) Schedule {
	t.Helper()
	s, err := NewSchedule(cfg)
	require.NoError(t, err)
	return s
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"00:00", 0},
		{"09:00", 9 * 60},
		{"12:30", 12*60 + 30},
		{"23:59", 23*60 + 59},
		{" 18:00 ", 18 * 60},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "9am", "24:00", "12:60", "12-00"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseClock(bad)
			assert.ErrorIs(t, err, ErrInvalidClock)
		})
	}
}

func TestNewSchedule_Default(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())

	assert.Equal(t, 480, s.DailyMinutes())
	assert.Equal(t, "09:00", s.Start().String())
	assert.Equal(t, "18:00", s.End().String())
	assert.True(t, s.IsWorkDay(time.Monday))
	assert.True(t, s.IsWorkDay(time.Friday))
	assert.False(t, s.IsWorkDay(time.Saturday))
	assert.False(t, s.IsWorkDay(time.Sunday))
	assert.Equal(t, DefaultScheduleConfig(), s.Config())
}

func TestNewSchedule_Errors(t *testing.T) {
	base := DefaultScheduleConfig()

	tests := []struct {
		name   string
		mutate func(c *model.ScheduleConfig)
		field  string
		want   error
	}{
		{"bad start", func(c *model.ScheduleConfig) { c.StartTime = "nine" }, "start_time", ErrInvalidClock},
		{"bad lunch end", func(c *model.ScheduleConfig) { c.LunchEnd = "" }, "lunch_end", ErrInvalidClock},
		{"end before start", func(c *model.ScheduleConfig) { c.EndTime = "08:00" }, "end_time", ErrEmptyWindow},
		{"end equals start", func(c *model.ScheduleConfig) { c.EndTime = "09:00" }, "end_time", ErrEmptyWindow},
		{"lunch inverted", func(c *model.ScheduleConfig) { c.LunchStart = "13:00"; c.LunchEnd = "12:00" }, "lunch_end", ErrLunchInverted},
		{"lunch before start", func(c *model.ScheduleConfig) { c.LunchStart = "08:00" }, "lunch", ErrLunchOutsideWindow},
		{"lunch after end", func(c *model.ScheduleConfig) { c.LunchEnd = "19:00" }, "lunch", ErrLunchOutsideWindow},
		{"lunch fills day", func(c *model.ScheduleConfig) { c.LunchStart = "09:00"; c.LunchEnd = "18:00" }, "lunch", ErrNoCapacity},
		{"no work days", func(c *model.ScheduleConfig) { c.WorkDays = nil }, "work_days", ErrNoWorkDays},
		{"weekday out of range", func(c *model.ScheduleConfig) { c.WorkDays = []int{1, 7} }, "work_days", ErrInvalidWeekday},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.WorkDays = append([]int(nil), base.WorkDays...)
			tc.mutate(&cfg)

			_, err := NewSchedule(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var ce ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.field, ce.Field)
			assert.True(t, IsUserError(err))
		})
	}
}

func TestNewSchedule_ZeroLengthLunch(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.LunchStart = "12:00"
	cfg.LunchEnd = "12:00"

	s := mustSchedule(t, cfg)
	assert.Equal(t, 540, s.DailyMinutes())
}

func TestClockOn_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	day := time.Date(2024, 1, 15, 22, 45, 0, 0, loc)

	got := Clock(9*60 + 30).On(day)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}
