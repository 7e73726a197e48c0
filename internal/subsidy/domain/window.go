package subsidy

import (
	"math"
	"time"

	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// DateLayout is the compact date form used on the command line and in file names.
const DateLayout = "20060102"

// lastSampleOffset is the offset of the final sample of the end date from its midnight.
const lastSampleOffset = 24*time.Hour - telemetry.SamplingInterval

// BillingWindow is an inclusive range of calendar days.
type BillingWindow struct {
	Start time.Time
	End   time.Time
}

// NewBillingWindow truncates both dates to midnight and rejects an inverted range.
func NewBillingWindow(start, end time.Time) (BillingWindow, error) {
	if start.IsZero() {
		return BillingWindow{}, &InputError{Field: "start date", Err: ErrInvalidInput}
	}
	if end.IsZero() {
		return BillingWindow{}, &InputError{Field: "end date", Err: ErrInvalidInput}
	}
	w := BillingWindow{Start: midnight(start), End: midnight(end)}
	if w.Start.After(w.End) {
		return BillingWindow{}, &InputError{Field: "billing window", Err: ErrStartAfterEnd}
	}
	return w, nil
}

// ParseBillingWindow parses two YYYYMMDD dates.
func ParseBillingWindow(start, end string) (BillingWindow, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return BillingWindow{}, &InputError{Field: "start date", Err: err}
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return BillingWindow{}, &InputError{Field: "end date", Err: err}
	}
	return NewBillingWindow(s, e)
}

// FirstSample is the earliest reading timestamp inside the window.
func (w BillingWindow) FirstSample() time.Time { return w.Start }

// LastSample is the latest reading timestamp inside the window: the final
// half-hour slot of the end date.
func (w BillingWindow) LastSample() time.Time { return w.End.Add(lastSampleOffset) }

// Contains reports whether ts falls inside [FirstSample, LastSample].
func (w BillingWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.FirstSample()) && !ts.After(w.LastSample())
}

// Select returns the part of the series that falls inside the window.
func (w BillingWindow) Select(series *telemetry.ReadingSeries) *telemetry.ReadingSeries {
	return series.Between(w.FirstSample(), w.LastSample())
}

// Days returns the inclusive number of calendar days.
func (w BillingWindow) Days() int {
	return int(math.Round(w.End.Sub(w.Start).Hours()/24)) + 1
}

// Key is the period identifier used for output directories and file names.
func (w BillingWindow) Key() string {
	return w.Start.Format(DateLayout) + "_" + w.End.Format(DateLayout)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
