package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/workcal"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen: 0.0.0.0:9000
exclude_meetings: false
schedule:
  start_time: "08:30"
  end_time: "17:30"
  work_days: [1, 2, 3, 4]
meetings:
  - url: https://example.com/team.ics
    name: team
holidays:
  country: US
  static:
    - date: "2024-12-24"
      name: Company Day
rate_limit:
  per_minute: 30
  burst: 0
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.True(t, cfg.ExcludeHolidays)
	assert.False(t, cfg.ExcludeMeetings)
	assert.Equal(t, "08:30", cfg.Schedule.StartTime)
	assert.Equal(t, "12:00", cfg.Schedule.LunchStart)
	assert.Equal(t, []int{1, 2, 3, 4}, cfg.Schedule.WorkDays)
	require.Len(t, cfg.Meetings, 1)
	assert.Equal(t, "team", cfg.Meetings[0].SourceID())
	assert.Equal(t, "US", cfg.Holidays.Country)
	require.Len(t, cfg.Holidays.Static, 1)
	assert.Equal(t, "Company Day", cfg.Holidays.Static[0].Name)
	assert.Equal(t, RateLimitConfig{PerMinute: 30, Burst: 1}, cfg.RateLimit)

	_, err = workcal.NewSchedule(cfg.Schedule)
	require.NoError(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad cron", `refresh: "every minute"`},
		{"bad timezone", `timezone: Mars/Olympus`},
		{"bad schedule", "schedule:\n  start_time: \"18:00\"\n  end_time: \"09:00\""},
		{"no work days", "schedule:\n  work_days: []"},
		{"bad static holiday", "holidays:\n  static:\n    - date: 24/12/2024\n      name: Eve"},
		{"not yaml", "listen: [unterminated"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:9999"
	cfg.Meetings = append(cfg.Meetings, FeedConfig{ID: "work", URL: "https://example.com/work.ics"})

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}

func TestFeedConfig_SourceID(t *testing.T) {
	assert.Equal(t, "id", FeedConfig{ID: "id", Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "n", FeedConfig{Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "u", FeedConfig{URL: "u"}.SourceID())
}
