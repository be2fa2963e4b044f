package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/model"
	"workcal/internal/workcal"
)

type newYearProvider struct {
	years []int
	err   error
}

func (p *newYearProvider) Holidays(_ context.Context, year int) ([]model.Holiday, error) {
	p.years = append(p.years, year)
	if p.err != nil {
		return nil, p.err
	}
	return []model.Holiday{{Date: fmt.Sprintf("%04d-01-01", year), Name: "New Year"}}, nil
}

func yearEndRequest(t *testing.T) workcal.Request {
	t.Helper()
	sched, err := workcal.NewSchedule(workcal.DefaultScheduleConfig())
	require.NoError(t, err)
	return workcal.Request{
		Start:           time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC),
		Hours:           24,
		Schedule:        sched,
		Holidays:        []model.Holiday{{Date: "2024-12-25", Name: "Christmas"}},
		ExcludeHolidays: true,
	}
}

func TestHolidayLoader_CalculatePastWindow(t *testing.T) {
	p := &newYearProvider{}
	hl := holidayLoader{provider: p, covered: 2024}

	res, err := hl.calculate(context.Background(), yearEndRequest(t))
	require.NoError(t, err)

	// Mon and Tue in 2024, Wed 1 Jan 2025 is a holiday, Thu completes.
	assert.Equal(t, time.Date(2025, 1, 2, 18, 0, 0, 0, time.UTC), res.EndDate)
	require.Len(t, res.HolidaysExcluded, 1)
	assert.Equal(t, "2025-01-01", res.HolidaysExcluded[0].Date)
	assert.Equal(t, []int{2025}, p.years)
	assert.Equal(t, 2025, hl.covered)
}

func TestHolidayLoader_WithinWindow(t *testing.T) {
	p := &newYearProvider{}
	hl := holidayLoader{provider: p, covered: 2025}

	res, err := hl.calculate(context.Background(), yearEndRequest(t))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC), res.EndDate)
	assert.Empty(t, p.years)
}

func TestHolidayLoader_ProviderFailure(t *testing.T) {
	p := &newYearProvider{err: errors.New("api down")}
	hl := holidayLoader{provider: p, covered: 2024}

	res, err := hl.calculate(context.Background(), yearEndRequest(t))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC), res.EndDate)
	assert.Equal(t, 2024, hl.covered)

	hs, err := hl.through(context.Background(), nil, 2026)
	assert.Error(t, err)
	assert.Empty(t, hs)
}

func TestHolidayLoader_Through(t *testing.T) {
	p := &newYearProvider{}
	hl := holidayLoader{provider: p, covered: 2024}
	base := []model.Holiday{{Date: "2024-12-25", Name: "Christmas"}}

	hs, err := hl.through(context.Background(), base, 2026)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-25", "2025-01-01", "2026-01-01"},
		[]string{hs[0].Date, hs[1].Date, hs[2].Date})
	assert.Equal(t, []int{2025, 2026}, p.years)
	assert.Len(t, base, 1)

	hs, err = (&holidayLoader{covered: 2024}).through(context.Background(), base, 2030)
	require.NoError(t, err)
	assert.Equal(t, base, hs)
}
