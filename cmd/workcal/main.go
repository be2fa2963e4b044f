package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"workcal/internal/config"
	"workcal/internal/holiday"
	"workcal/internal/ics"
	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/provider"
	"workcal/internal/web"
	"workcal/internal/workcal"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	start      string
	hours      float64
	until      string
	noHolidays bool
	noMeetings bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI flags override the config file.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.noHolidays {
		conf.ExcludeHolidays = false
	}
	if flags.noMeetings {
		conf.ExcludeMeetings = false
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"meeting_feeds", len(conf.Meetings),
		"holiday_feeds", len(conf.Holidays.ICS),
		"holiday_country", conf.Holidays.Country,
		"exclude_holidays", conf.ExcludeHolidays,
		"exclude_meetings", conf.ExcludeMeetings,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := provider.NewStore()
	refresher := newRefresher(conf, store)

	if flags.once {
		if err := runOnce(ctx, conf, refresher, store, flags); err != nil {
			appLog.Error("calculation failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, refresher, store); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("workcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/workcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load calendars once, print one calculation as JSON and exit")
	flag.StringVar(&cfg.start, "start", "", "Start instant for -once (RFC 3339 or YYYY-MM-DD[THH:mm]; default now)")
	flag.Float64Var(&cfg.hours, "hours", 0, "Estimated working hours for -once")
	flag.StringVar(&cfg.until, "until", "", "End date for -once; prints working hours in [start, until] instead")
	flag.BoolVar(&cfg.noHolidays, "no-holidays", false, "Do not exclude holidays")
	flag.BoolVar(&cfg.noMeetings, "no-meetings", false, "Do not exclude meetings")

	flag.Parse()

	return cfg
}

func feedSources(feeds []config.FeedConfig) []ics.Source {
	sources := make([]ics.Source, 0, len(feeds))
	for _, f := range feeds {
		if f.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: f.SourceID(), URL: f.URL})
	}
	return sources
}

// newRefresher wires the ICS fetcher into meeting and holiday providers.
// Holiday feeds win over the built-in country table; static config
// holidays are always added.
func newRefresher(conf *config.Config, store *provider.Store) *provider.Refresher {
	fetcher := ics.NewFetcher(conf.CacheDir, nil)
	loc := conf.Location()

	holidays := holiday.Merged{
		holiday.Fallback{
			Primary: holiday.ICSProvider{
				Fetcher: fetcher,
				Sources: feedSources(conf.Holidays.ICS),
				Country: conf.Holidays.Country,
			},
			Secondary: holiday.StaticProvider{Country: conf.Holidays.Country},
		},
		holiday.StaticProvider{Extra: conf.Holidays.Static},
	}

	return &provider.Refresher{
		Meetings: provider.ICSMeetings{
			Fetcher:          fetcher,
			Sources:          feedSources(conf.Meetings),
			Location:         loc,
			OptionalKeywords: conf.OptionalKeywords,
		},
		Holidays:    holidays,
		Store:       store,
		Location:    loc,
		HorizonDays: conf.HorizonDays,
	}
}

func runOnce(ctx context.Context, conf *config.Config, refresher *provider.Refresher, store *provider.Store, flags flagConfig) error {
	if err := refresher.Refresh(ctx); err != nil {
		appLog.Warn("continuing with partially loaded calendars", "reason", err)
	}

	loc := conf.Location()
	start := time.Now().In(loc)
	if flags.start != "" {
		t, err := web.ParseInstant(flags.start, loc)
		if err != nil {
			return fmt.Errorf("-start: %w", err)
		}
		start = t
	}

	sched, err := workcal.NewSchedule(conf.Schedule)
	if err != nil {
		return err
	}
	snap := store.Get()
	_, loadedUntil := refresher.Window()
	hl := holidayLoader{provider: refresher.Holidays, covered: loadedUntil.Year()}

	var (
		out  any
		last time.Time
	)
	if flags.until != "" {
		end, err := web.ParseInstant(flags.until, loc)
		if err != nil {
			return fmt.Errorf("-until: %w", err)
		}
		holidays, err := hl.through(ctx, snap.Holidays, end.Year())
		if err != nil {
			appLog.Warn("holidays after the refresh window are missing", "reason", err)
		}
		hours, err := workcal.HoursInPeriod(workcal.PeriodRequest{
			Start:           start,
			End:             end,
			Schedule:        sched,
			Holidays:        holidays,
			Meetings:        snap.Meetings,
			ExcludeHolidays: conf.ExcludeHolidays,
			ExcludeMeetings: conf.ExcludeMeetings,
		})
		if err != nil {
			return err
		}
		out = map[string]any{"start_date": start, "end_date": end, "hours": hours}
		last = end
	} else {
		res, err := hl.calculate(ctx, workcal.Request{
			Start:           start,
			Hours:           flags.hours,
			Schedule:        sched,
			Holidays:        snap.Holidays,
			Meetings:        snap.Meetings,
			ExcludeHolidays: conf.ExcludeHolidays,
			ExcludeMeetings: conf.ExcludeMeetings,
			OnDay: func(day time.Time, state workcal.DayState) {
				appLog.Debug("day visited", "date", workcal.DateKey(day), "state", state.String())
			},
		})
		if err != nil {
			return err
		}
		out = res
		last = res.EndDate
	}

	if conf.ExcludeMeetings && !last.Before(loadedUntil) {
		appLog.Warn("result lies past the meeting horizon; later meetings were not considered",
			"horizon_end", loadedUntil.Format("2006-01-02"),
			"result", last.Format(time.RFC3339),
		)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// maxHolidayExtensions bounds how often calculate reloads holidays.
const maxHolidayExtensions = 8

// holidayLoader fetches holidays for years past the refresh window.
type holidayLoader struct {
	provider holiday.Provider
	// covered is the last year the snapshot holds holidays for.
	covered int
}

// through returns hs plus the holidays of every year after covered up to
// and including year.
func (l *holidayLoader) through(ctx context.Context, hs []model.Holiday, year int) ([]model.Holiday, error) {
	if l.provider == nil || year <= l.covered {
		return hs, nil
	}
	more, err := holiday.ForYears(ctx, l.provider, l.covered+1, year)
	if err != nil {
		return hs, err
	}
	appLog.Info("loaded holidays past the refresh window", "from", l.covered+1, "to", year, "count", len(more))
	l.covered = year
	merged := make([]model.Holiday, 0, len(hs)+len(more))
	merged = append(merged, hs...)
	return holiday.Normalize(append(merged, more...)), nil
}

// calculate runs CalculateEndDate and recalculates while the end date lands
// in a year whose holidays were not loaded yet.
func (l *holidayLoader) calculate(ctx context.Context, req workcal.Request) (model.CalculationResult, error) {
	res, err := workcal.CalculateEndDate(req)
	for i := 0; i < maxHolidayExtensions && err == nil && req.ExcludeHolidays; i++ {
		year := res.EndDate.Year()
		if year <= l.covered {
			break
		}
		hs, lerr := l.through(ctx, req.Holidays, year)
		if lerr != nil {
			appLog.Warn("holidays after the refresh window are missing", "reason", lerr, "year", year)
			break
		}
		req.Holidays = hs
		res, err = workcal.CalculateEndDate(req)
	}
	return res, err
}

func serve(ctx context.Context, conf *config.Config, refresher *provider.Refresher, store *provider.Store) error {
	srv, err := web.NewServer(conf, store, refresher)
	if err != nil {
		return err
	}

	if err := refresher.Refresh(ctx); err != nil {
		appLog.Warn("initial refresh incomplete", "reason", err)
	}

	c := cron.New(cron.WithLocation(conf.Location()))
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Warn("scheduled refresh incomplete", "reason", err)
		}
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("http server stopped")
	return nil
}
