package holiday

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"workcal/internal/ics"
	appLog "workcal/internal/log"
	"workcal/internal/model"
)

// Provider supplies the holidays of one calendar year.
type Provider interface {
	Holidays(ctx context.Context, year int) ([]model.Holiday, error)
}

// ForYears collects holidays for every year in [from, to] from p.
func ForYears(ctx context.Context, p Provider, from, to int) ([]model.Holiday, error) {
	var all []model.Holiday
	for y := from; y <= to; y++ {
		hs, err := p.Holidays(ctx, y)
		if err != nil {
			return nil, fmt.Errorf("holidays %d: %w", y, err)
		}
		all = append(all, hs...)
	}
	return Normalize(all), nil
}

// Normalize sorts holidays by date and drops exact date+name repeats.
func Normalize(hs []model.Holiday) []model.Holiday {
	out := make([]model.Holiday, 0, len(hs))
	seen := make(map[string]bool, len(hs))
	for _, h := range hs {
		key := h.Date + "|" + h.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Fallback asks Primary first and uses Secondary when Primary fails or
// has nothing for the year.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

func (f Fallback) Holidays(ctx context.Context, year int) ([]model.Holiday, error) {
	if f.Primary != nil {
		hs, err := f.Primary.Holidays(ctx, year)
		if err == nil && len(hs) > 0 {
			return hs, nil
		}
		if err != nil {
			appLog.Warn("holiday provider failed, using fallback", "year", year, "reason", err)
		}
	}
	if f.Secondary == nil {
		return nil, errors.New("no holiday provider available")
	}
	return f.Secondary.Holidays(ctx, year)
}

// Merged combines several providers. It fails only when every member does.
type Merged []Provider

func (m Merged) Holidays(ctx context.Context, year int) ([]model.Holiday, error) {
	var all []model.Holiday
	var errs []error
	for _, p := range m {
		hs, err := p.Holidays(ctx, year)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, hs...)
	}
	if len(errs) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return Normalize(all), nil
}

// ICSProvider turns the all-day events of holiday calendars into holidays.
// A multi-day event yields one holiday per day.
type ICSProvider struct {
	Fetcher *ics.Fetcher
	Sources []ics.Source
	Country string
}

func (p ICSProvider) Holidays(ctx context.Context, year int) ([]model.Holiday, error) {
	if len(p.Sources) == 0 {
		return nil, nil
	}

	results, fetchErr := p.Fetcher.FetchAll(ctx, p.Sources)
	if len(results) == 0 {
		return nil, fetchErr
	}

	var events []ics.ParsedEvent
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			continue
		}
		events = append(events, evs...)
	}

	expanded, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}

	return FromOccurrences(expanded.Occurrences, p.Country, year), nil
}

// FromOccurrences converts all-day occurrences into holidays dated within
// year. Timed events are ignored.
func FromOccurrences(occ []model.Occurrence, country string, year int) []model.Holiday {
	var out []model.Holiday
	for _, o := range occ {
		if !o.AllDay {
			continue
		}
		for d := o.Start; d.Before(o.End); d = d.AddDate(0, 0, 1) {
			if d.Year() != year {
				continue
			}
			out = append(out, model.Holiday{
				Date:    d.Format("2006-01-02"),
				Name:    strings.TrimSpace(o.Summary),
				Type:    "calendar",
				Country: country,
				Global:  true,
			})
		}
	}
	return Normalize(out)
}
