package dates

import (
	"context"
	"fmt"
	"time"

	"github.com/example/campwatch/internal/internaltypes"
)

// HolidaySource returns observed holiday dates for the configured jurisdiction.
type HolidaySource interface {
	Holidays(ctx context.Context) ([]time.Time, error)
}

// Options selects which windows Generate emits. StartWeekday counts from
// Monday (0) to Sunday (6), so Friday is 4.
type Options struct {
	Weeks        int
	StartWeekday int
	Nights       int
	UseHolidays  bool
	WeeksFromNow int
}

func (o Options) Validate() error {
	switch {
	case o.Weeks < 0:
		return fmt.Errorf("weeks must be >= 0 (got %d): %w", o.Weeks, internaltypes.ErrConfiguration)
	case o.StartWeekday < 0 || o.StartWeekday > 6:
		return fmt.Errorf("start weekday must be 0..6 (got %d): %w", o.StartWeekday, internaltypes.ErrConfiguration)
	case o.Nights < 1:
		return fmt.Errorf("nights must be >= 1 (got %d): %w", o.Nights, internaltypes.ErrConfiguration)
	case o.WeeksFromNow < 0:
		return fmt.Errorf("weeks from now must be >= 0 (got %d): %w", o.WeeksFromNow, internaltypes.ErrConfiguration)
	}
	return nil
}

// Generator produces the windows for one cycle. Now and Location default to
// time.Now and time.Local.
type Generator struct {
	Holidays HolidaySource
	Now      func() time.Time
	Location *time.Location
}

// Generate returns Weeks base windows starting at the next StartWeekday after
// today, offset by WeeksFromNow weeks. With UseHolidays, a base window whose
// following day is a holiday is followed by a window shifted one day later
// that ends on the holiday.
func (g *Generator) Generate(ctx context.Context, opts Options) ([]Window, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	holidays := map[string]struct{}{}
	if opts.UseHolidays {
		if g.Holidays == nil {
			return nil, fmt.Errorf("holiday windows requested without a holiday source: %w", internaltypes.ErrConfiguration)
		}
		hs, err := g.Holidays.Holidays(ctx)
		if err != nil {
			return nil, fmt.Errorf("load holidays: %w", err)
		}
		for _, h := range hs {
			holidays[Day(h).Format(Layout)] = struct{}{}
		}
	}

	anchor := NextWeekday(g.today(), opts.StartWeekday)
	out := make([]Window, 0, opts.Weeks)
	for i := opts.WeeksFromNow; i < opts.WeeksFromNow+opts.Weeks; i++ {
		start := anchor.AddDate(0, 0, 7*i)
		out = append(out, NewWindow(start, opts.Nights))

		if _, ok := holidays[start.AddDate(0, 0, opts.Nights+1).Format(Layout)]; ok {
			out = append(out, NewWindow(start.AddDate(0, 0, 1), opts.Nights))
		}
	}
	return out, nil
}

func (g *Generator) today() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	return Day(now().In(loc))
}

// NextWeekday returns the first date strictly after d falling on weekday
// (Monday = 0). A d already on weekday yields the date one week later.
func NextWeekday(d time.Time, weekday int) time.Time {
	d = Day(d)
	ahead := weekday - mondayIndex(d.Weekday())
	if ahead <= 0 {
		ahead += 7
	}
	return d.AddDate(0, 0, ahead)
}

func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}
