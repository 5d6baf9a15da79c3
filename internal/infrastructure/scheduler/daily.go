package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"SentimentMonitor/internal/ports"
)

// DailyScheduler fires a job once a day at a wall-clock time in a fixed location.
type DailyScheduler struct {
	hour   int
	minute int
	loc    *time.Location
	logger *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(at string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("parse daily time %q: %w", at, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NewDailyScheduler builds a scheduler for "HH:MM" in loc (time.Local when nil).
func NewDailyScheduler(at string, loc *time.Location, logger *slog.Logger) (*DailyScheduler, error) {
	hour, minute, err := ParseClock(at)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DailyScheduler{
		hour:   hour,
		minute: minute,
		loc:    loc,
		logger: logger.With("component", "scheduler"),
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first firing strictly after from.
func (d *DailyScheduler) Next(from time.Time) time.Time {
	local := from.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Start launches the loop; a second Start while running is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop, d.done = stop, done

	go func() {
		defer close(done)
		for {
			next := d.Next(d.now())
			d.logger.Info("next run scheduled", "at", next.Format(time.DateTime))
			select {
			case <-d.after(next.Sub(d.now())):
				job(next)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the loop and waits for a running job to return or ctx to expire.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
