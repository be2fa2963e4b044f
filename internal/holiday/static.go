package holiday

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workcal/internal/model"
)

// rule yields the date of a holiday in a given year.
type rule struct {
	name string
	date func(year int) time.Time
}

func fixed(month time.Month, day int) func(int) time.Time {
	return func(year int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

// nthWeekday is the n-th wd of month; n < 0 counts from the end.
func nthWeekday(month time.Month, wd time.Weekday, n int) func(int) time.Time {
	return func(year int) time.Time {
		if n > 0 {
			first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			offset := (int(wd) - int(first.Weekday()) + 7) % 7
			return first.AddDate(0, 0, offset+7*(n-1))
		}
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		offset := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -offset+7*(n+1))
	}
}

// Lunar-calendar holidays (Seollal, Chuseok, Buddha's Birthday) are not
// computable from fixed rules and must come from an ICS feed or the
// static list in the config.
var tables = map[string][]rule{
	"KR": {
		{"New Year's Day", fixed(time.January, 1)},
		{"Independence Movement Day", fixed(time.March, 1)},
		{"Children's Day", fixed(time.May, 5)},
		{"Memorial Day", fixed(time.June, 6)},
		{"Liberation Day", fixed(time.August, 15)},
		{"National Foundation Day", fixed(time.October, 3)},
		{"Hangul Day", fixed(time.October, 9)},
		{"Christmas Day", fixed(time.December, 25)},
	},
	"US": {
		{"New Year's Day", fixed(time.January, 1)},
		{"Martin Luther King, Jr. Day", nthWeekday(time.January, time.Monday, 3)},
		{"Washington's Birthday", nthWeekday(time.February, time.Monday, 3)},
		{"Memorial Day", nthWeekday(time.May, time.Monday, -1)},
		{"Juneteenth National Independence Day", fixed(time.June, 19)},
		{"Independence Day", fixed(time.July, 4)},
		{"Labor Day", nthWeekday(time.September, time.Monday, 1)},
		{"Columbus Day", nthWeekday(time.October, time.Monday, 2)},
		{"Veterans Day", fixed(time.November, 11)},
		{"Thanksgiving Day", nthWeekday(time.November, time.Thursday, 4)},
		{"Christmas Day", fixed(time.December, 25)},
	},
}

// Countries lists the country codes with a built-in table.
func Countries() []string {
	return []string{"KR", "US"}
}

// StaticProvider serves the built-in table for Country plus Extra entries.
type StaticProvider struct {
	Country string
	Extra   []model.Holiday
}

func (p StaticProvider) Holidays(_ context.Context, year int) ([]model.Holiday, error) {
	country := strings.ToUpper(strings.TrimSpace(p.Country))
	rules, ok := tables[country]
	if country != "" && !ok {
		return nil, fmt.Errorf("no built-in holiday table for %q", p.Country)
	}

	out := make([]model.Holiday, 0, len(rules)+len(p.Extra))
	for _, r := range rules {
		out = append(out, model.Holiday{
			Date:    r.date(year).Format("2006-01-02"),
			Name:    r.name,
			Type:    "public",
			Country: country,
			Global:  true,
		})
	}

	prefix := fmt.Sprintf("%04d-", year)
	for _, h := range p.Extra {
		if strings.HasPrefix(h.Date, prefix) {
			out = append(out, h)
		}
	}
	return Normalize(out), nil
}
