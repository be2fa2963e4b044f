package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"workcal/internal/holiday"
	appLog "workcal/internal/log"
	"workcal/internal/model"
)

const (
	defaultHorizonDays = 90
	lookbackDays       = 7
)

// Refresher reloads meetings and holidays into a Store.
type Refresher struct {
	Meetings MeetingSource
	Holidays holiday.Provider
	Store    *Store

	// Location decides which calendar day "today" is.
	Location *time.Location
	// HorizonDays is how far ahead of today meetings are loaded.
	HorizonDays int
	// Now is overridable for tests.
	Now func() time.Time

	mu sync.Mutex
}

// Window returns the range meetings are loaded for: from a week before
// today up to HorizonDays after it.
func (r *Refresher) Window() (time.Time, time.Time) {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	horizon := r.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}

	y, m, d := r.now().In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -lookbackDays), today.AddDate(0, 0, horizon+1)
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Refresh loads meetings and holidays concurrently and publishes a new
// snapshot. A source that fails without producing anything keeps its
// previous data; the first error is returned.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, to := r.Window()
	prev := r.Store.Get()

	var (
		meetings   []model.Meeting
		holidays   []model.Holiday
		mErr, hErr error
		g          errgroup.Group
	)

	if r.Meetings != nil {
		g.Go(func() error {
			meetings, mErr = r.Meetings.LoadMeetings(ctx, from, to)
			if mErr != nil {
				appLog.Error("meeting refresh failed", mErr)
			}
			return mErr
		})
	}
	if r.Holidays != nil {
		g.Go(func() error {
			holidays, hErr = holiday.ForYears(ctx, r.Holidays, from.Year(), to.Year())
			if hErr != nil {
				appLog.Error("holiday refresh failed", hErr)
			}
			return hErr
		})
	}
	err := g.Wait()

	// Only the source that failed falls back; an empty healthy feed is
	// published as empty.
	if mErr != nil && len(meetings) == 0 {
		meetings = prev.Meetings
	}
	if hErr != nil && len(holidays) == 0 {
		holidays = prev.Holidays
	}

	r.Store.Set(Snapshot{
		Meetings:  meetings,
		Holidays:  holidays,
		UpdatedAt: r.now(),
	})
	appLog.Info("refresh completed",
		"meetings", len(meetings),
		"holidays", len(holidays),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
	)
	return err
}
