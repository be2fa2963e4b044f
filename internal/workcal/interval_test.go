package workcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func TestFreeIntervals_LunchOnly(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	got := FreeIntervals(day, s, nil, FullDay{})
	require.Len(t, got, 2)
	assert.Equal(t, Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}, got[0])
	assert.Equal(t, Interval{Start: at(day, 13, 0), End: at(day, 18, 0)}, got[1])
}

func TestFreeIntervals_UnsortedAndOverlappingBusy(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	busy := []Interval{
		{Start: at(day, 15, 0), End: at(day, 16, 0)},
		{Start: at(day, 10, 0), End: at(day, 11, 0)},
		{Start: at(day, 10, 30), End: at(day, 11, 30)},
		{Start: at(day, 11, 45), End: at(day, 12, 30)}, // runs into lunch
	}

	got := FreeIntervals(day, s, busy, FullDay{})
	want := []Interval{
		{Start: at(day, 9, 0), End: at(day, 10, 0)},
		{Start: at(day, 11, 30), End: at(day, 11, 45)},
		{Start: at(day, 13, 0), End: at(day, 15, 0)},
		{Start: at(day, 16, 0), End: at(day, 18, 0)},
	}
	assert.Equal(t, want, got)
}

func TestFreeIntervals_BusyOutsideWindow(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	busy := []Interval{
		{Start: at(day, 7, 0), End: at(day, 9, 30)},
		{Start: at(day, 17, 30), End: at(day, 20, 0)},
		{Start: at(day, 19, 0), End: at(day, 21, 0)},
	}

	got := FreeIntervals(day, s, busy, FullDay{})
	want := []Interval{
		{Start: at(day, 9, 30), End: at(day, 12, 0)},
		{Start: at(day, 13, 0), End: at(day, 17, 30)},
	}
	assert.Equal(t, want, got)
}

func TestFreeIntervals_FirstDay(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("mid lunch", func(t *testing.T) {
		got := FreeIntervals(day, s, nil, FirstDay{Start: at(day, 12, 30)})
		assert.Equal(t, []Interval{{Start: at(day, 13, 0), End: at(day, 18, 0)}}, got)
	})

	t.Run("mid morning", func(t *testing.T) {
		got := FreeIntervals(day, s, nil, FirstDay{Start: at(day, 10, 15)})
		require.Len(t, got, 2)
		assert.Equal(t, at(day, 10, 15), got[0].Start)
	})

	t.Run("before opening", func(t *testing.T) {
		got := FreeIntervals(day, s, nil, FirstDay{Start: at(day, 6, 0)})
		require.Len(t, got, 2)
		assert.Equal(t, at(day, 9, 0), got[0].Start)
	})

	t.Run("after closing", func(t *testing.T) {
		got := FreeIntervals(day, s, nil, FirstDay{Start: at(day, 18, 30)})
		assert.Empty(t, got)
	})
}

func TestFreeIntervals_Coverage(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	busySets := [][]Interval{
		nil,
		{{Start: at(day, 9, 0), End: at(day, 18, 0)}},
		{{Start: at(day, 8, 0), End: at(day, 9, 15)}, {Start: at(day, 14, 0), End: at(day, 14, 45)}},
		{{Start: at(day, 16, 0), End: at(day, 17, 0)}, {Start: at(day, 16, 30), End: at(day, 18, 30)}},
	}

	for _, busy := range busySets {
		got := FreeIntervals(day, s, busy, FullDay{})

		var free time.Duration
		for i, iv := range got {
			assert.True(t, iv.Start.Before(iv.End), "interval %d must be non-empty", i)
			if i > 0 {
				assert.False(t, iv.Start.Before(got[i-1].End), "interval %d overlaps previous", i)
			}
			free += iv.Duration()
		}

		// Independent minute-by-minute count of the same window.
		var want time.Duration
		winStart, winEnd := s.Window(day)
		spans := append([]Interval{s.Lunch(day)}, busy...)
		for m := winStart; m.Before(winEnd); m = m.Add(time.Minute) {
			blocked := false
			for _, b := range spans {
				if !m.Before(b.Start) && m.Before(b.End) {
					blocked = true
					break
				}
			}
			if !blocked {
				want += time.Minute
			}
		}
		assert.Equal(t, want, free)
	}
}

func TestFreeIntervals_DoesNotMutateInput(t *testing.T) {
	s := mustSchedule(t, DefaultScheduleConfig())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	busy := []Interval{
		{Start: at(day, 15, 0), End: at(day, 16, 0)},
		{Start: at(day, 10, 0), End: at(day, 11, 0)},
	}
	before := append([]Interval(nil), busy...)

	FreeIntervals(day, s, busy, FullDay{})
	assert.Equal(t, before, busy)
}

func TestCompletionInstant(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	ivs := []Interval{
		{Start: at(day, 9, 0), End: at(day, 12, 0)},
		{Start: at(day, 13, 0), End: at(day, 18, 0)},
	}

	tests := []struct {
		name   string
		budget time.Duration
		want   time.Time
	}{
		{"inside first", 90 * time.Minute, at(day, 10, 30)},
		{"exactly first", 3 * time.Hour, at(day, 12, 0)},
		{"spills into second", 4 * time.Hour, at(day, 14, 0)},
		{"exactly all", 8 * time.Hour, at(day, 18, 0)},
		{"more than available", 10 * time.Hour, at(day, 18, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CompletionInstant(ivs, tc.budget)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := CompletionInstant(nil, time.Hour)
	assert.False(t, ok)
}
