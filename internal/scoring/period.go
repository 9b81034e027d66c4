package scoring

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned when a period string is not recognized.
var ErrInvalidPeriod = errors.New("invalid period")

// Period selects the reporting window of a scoring call.
type Period string

const (
	PeriodAll Period = "all"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// ParsePeriod parses a period query value. Empty input means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case Period7d:
		return Period7d, nil
	case Period30d:
		return Period30d, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Days returns the trailing window length, or 0 for PeriodAll.
func (p Period) Days() int {
	switch p {
	case Period7d:
		return 7
	case Period30d:
		return 30
	default:
		return 0
	}
}

// Window is a resolved reporting window. Since is zero for all-time.
type Window struct {
	Period Period
	Since  time.Time
}

// WindowFor resolves p relative to now. The lower bound is inclusive.
func WindowFor(p Period, now time.Time) Window {
	days := p.Days()
	if days == 0 {
		return Window{Period: PeriodAll}
	}
	return Window{Period: p, Since: now.UTC().AddDate(0, 0, -days)}
}

// AllTime reports whether the window covers all history.
func (w Window) AllTime() bool {
	return w.Since.IsZero()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return w.AllTime() || !t.Before(w.Since)
}
