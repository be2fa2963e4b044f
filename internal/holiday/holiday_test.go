package holiday

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/ics"
	"workcal/internal/model"
)

type fakeProvider struct {
	holidays []model.Holiday
	err      error
	calls    int
}

func (f *fakeProvider) Holidays(_ context.Context, _ int) ([]model.Holiday, error) {
	f.calls++
	return f.holidays, f.err
}

func dates(hs []model.Holiday) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Date)
	}
	return out
}

func TestStaticProvider_KR(t *testing.T) {
	hs, err := StaticProvider{Country: "kr"}.Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-01-01", "2024-03-01", "2024-05-05", "2024-06-06",
		"2024-08-15", "2024-10-03", "2024-10-09", "2024-12-25",
	}, dates(hs))
	assert.Equal(t, "KR", hs[0].Country)
	assert.True(t, hs[0].Global)
}

func TestStaticProvider_USFloatingHolidays(t *testing.T) {
	hs, err := StaticProvider{Country: "US"}.Holidays(context.Background(), 2024)
	require.NoError(t, err)

	byName := map[string]string{}
	for _, h := range hs {
		byName[h.Name] = h.Date
	}
	assert.Equal(t, "2024-01-15", byName["Martin Luther King, Jr. Day"])
	assert.Equal(t, "2024-02-19", byName["Washington's Birthday"])
	assert.Equal(t, "2024-05-27", byName["Memorial Day"])
	assert.Equal(t, "2024-09-02", byName["Labor Day"])
	assert.Equal(t, "2024-10-14", byName["Columbus Day"])
	assert.Equal(t, "2024-11-28", byName["Thanksgiving Day"])
}

func TestStaticProvider_Extra(t *testing.T) {
	p := StaticProvider{Extra: []model.Holiday{
		{Date: "2024-02-09", Name: "Seollal"},
		{Date: "2025-01-28", Name: "Seollal"},
	}}
	hs, err := p.Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-09"}, dates(hs))
}

func TestStaticProvider_UnknownCountry(t *testing.T) {
	_, err := StaticProvider{Country: "XX"}.Holidays(context.Background(), 2024)
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	secondary := &fakeProvider{holidays: []model.Holiday{{Date: "2024-01-01", Name: "static"}}}

	t.Run("primary ok", func(t *testing.T) {
		primary := &fakeProvider{holidays: []model.Holiday{{Date: "2024-01-01", Name: "feed"}}}
		hs, err := Fallback{Primary: primary, Secondary: secondary}.Holidays(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, "feed", hs[0].Name)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &fakeProvider{err: errors.New("feed down")}
		hs, err := Fallback{Primary: primary, Secondary: secondary}.Holidays(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, "static", hs[0].Name)
	})

	t.Run("primary empty", func(t *testing.T) {
		hs, err := Fallback{Primary: &fakeProvider{}, Secondary: secondary}.Holidays(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, "static", hs[0].Name)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := Fallback{}.Holidays(ctx, 2024)
		assert.Error(t, err)
	})
}

func TestMerged(t *testing.T) {
	ctx := context.Background()
	a := &fakeProvider{holidays: []model.Holiday{{Date: "2024-05-05", Name: "b"}, {Date: "2024-01-01", Name: "a"}}}
	b := &fakeProvider{holidays: []model.Holiday{{Date: "2024-01-01", Name: "a"}}}
	broken := &fakeProvider{err: errors.New("boom")}

	hs, err := Merged{a, b, broken}.Holidays(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-05-05"}, dates(hs))

	_, err = Merged{broken}.Holidays(ctx, 2024)
	assert.Error(t, err)
}

func TestForYears(t *testing.T) {
	hs, err := ForYears(context.Background(), StaticProvider{Country: "KR"}, 2024, 2025)
	require.NoError(t, err)
	assert.Len(t, hs, 16)
	assert.Equal(t, "2024-01-01", hs[0].Date)
	assert.Equal(t, "2025-12-25", hs[len(hs)-1].Date)

	_, err = ForYears(context.Background(), &fakeProvider{err: errors.New("boom")}, 2024, 2024)
	assert.ErrorContains(t, err, "holidays 2024")
}

func TestFromOccurrences(t *testing.T) {
	occ := []model.Occurrence{
		{
			Summary: " Year end break ",
			AllDay:  true,
			Start:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			Summary: "Planning",
			Start:   time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC),
		},
	}

	hs := FromOccurrences(occ, "KR", 2024)
	require.Len(t, hs, 1)
	assert.Equal(t, model.Holiday{Date: "2024-12-31", Name: "Year end break", Type: "calendar", Country: "KR", Global: true}, hs[0])

	assert.Equal(t, []string{"2025-01-01"}, dates(FromOccurrences(occ, "KR", 2025)))
}

const holidayFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//workcal//test//EN
BEGIN:VEVENT
UID:break@example.com
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20241231
DTEND;VALUE=DATE:20250102
SUMMARY:Year end break
END:VEVENT
BEGIN:VEVENT
UID:party@example.com
DTSTAMP:20240101T000000Z
DTSTART:20241230T090000Z
DTEND:20241230T100000Z
SUMMARY:Party
END:VEVENT
END:VCALENDAR
`

func TestICSProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.ReplaceAll(holidayFeed, "\n", "\r\n")))
	}))
	defer srv.Close()

	p := ICSProvider{
		Fetcher: ics.NewFetcher(t.TempDir(), srv.Client()),
		Sources: []ics.Source{{ID: "company", URL: srv.URL + "/holidays.ics"}},
		Country: "KR",
	}

	hs, err := p.Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-31"}, dates(hs))

	hs, err = p.Holidays(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01"}, dates(hs))
}

func TestICSProvider_NoSources(t *testing.T) {
	hs, err := ICSProvider{}.Holidays(context.Background(), 2024)
	assert.NoError(t, err)
	assert.Empty(t, hs)
}
