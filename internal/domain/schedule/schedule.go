// Package schedule holds the calendar arithmetic behind savings plans:
// due dates for daily/weekly/monthly recurrences, the number of periods in a
// date range and the per-period deduction amount.
//
// All dates are calendar days normalized to midnight UTC.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// Frequency is how often a savings deduction recurs.
type Frequency string

const (
	FrequencyOneTime Frequency = "one_time"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency normalizes and validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", errors.ErrInvalidSchedule, s)
	}
}

// Schedule is an immutable recurrence over an inclusive date range.
// A one-time schedule has a single occurrence on its start date.
type Schedule struct {
	frequency Frequency
	startDate time.Time
	endDate   time.Time
}

// New validates and builds a Schedule.
// For one-time schedules the end date is ignored and set to the start date.
func New(frequency Frequency, start, end time.Time) (Schedule, error) {
	if _, err := ParseFrequency(string(frequency)); err != nil {
		return Schedule{}, err
	}
	if start.IsZero() {
		return Schedule{}, errors.ValidationError{Field: "startDate", Message: "start date is required"}
	}

	start = Date(start)
	if frequency == FrequencyOneTime {
		return Schedule{frequency: frequency, startDate: start, endDate: start}, nil
	}

	if end.IsZero() {
		return Schedule{}, errors.ValidationError{Field: "endDate", Message: "end date is required for recurring plans"}
	}
	end = Date(end)
	if end.Before(start) {
		return Schedule{}, errors.ValidationError{Field: "endDate", Message: "end date must not be before start date"}
	}

	return Schedule{frequency: frequency, startDate: start, endDate: end}, nil
}

// Reconstruct rebuilds a Schedule from stored values without validation.
func Reconstruct(frequency Frequency, start, end time.Time) Schedule {
	return Schedule{frequency: frequency, startDate: Date(start), endDate: Date(end)}
}

func (s Schedule) Frequency() Frequency {
	return s.frequency
}

func (s Schedule) StartDate() time.Time {
	return s.startDate
}

func (s Schedule) EndDate() time.Time {
	return s.endDate
}

// IsRecurring reports whether the scheduler should process this schedule.
func (s Schedule) IsRecurring() bool {
	return s.frequency != FrequencyOneTime
}

// Contains reports whether day falls inside [start, end].
func (s Schedule) Contains(day time.Time) bool {
	day = Date(day)
	return !day.Before(s.startDate) && !day.After(s.endDate)
}

// Occurrence returns the k-th due date (k = 0 is the start date).
//
// Monthly recurrences keep the start day-of-month and clamp to the last day of
// shorter months: a plan started on Jan 31 is due Feb 28 (or 29), Mar 31, Apr 30.
func (s Schedule) Occurrence(k int) time.Time {
	switch s.frequency {
	case FrequencyDaily:
		return s.startDate.AddDate(0, 0, k)
	case FrequencyWeekly:
		return s.startDate.AddDate(0, 0, 7*k)
	case FrequencyMonthly:
		return addMonthsClamped(s.startDate, k)
	default:
		return s.startDate
	}
}

// NumberOfPeriods counts the occurrences inside [start, end]. Never less than 1.
func (s Schedule) NumberOfPeriods() int64 {
	if !s.IsRecurring() {
		return 1
	}
	n := s.firstOccurrenceAfter(s.endDate)
	if n < 1 {
		return 1
	}
	return int64(n)
}

// NextDue returns the first occurrence strictly after lastDeduction, or the
// start date when nothing has been deducted yet. ok is false when that
// occurrence lies past the end date.
func (s Schedule) NextDue(lastDeduction *time.Time) (due time.Time, ok bool) {
	if lastDeduction == nil {
		due = s.startDate
	} else {
		due = s.Occurrence(s.firstOccurrenceAfter(Date(*lastDeduction)))
	}
	return due, !due.After(s.endDate)
}

// IsDue reports whether a deduction is due on asOf and returns the occurrence
// it settles. Missed occurrences are returned oldest first, one per call.
func (s Schedule) IsDue(lastDeduction *time.Time, asOf time.Time) (time.Time, bool) {
	due, ok := s.NextDue(lastDeduction)
	if !ok {
		return time.Time{}, false
	}
	if due.After(Date(asOf)) {
		return time.Time{}, false
	}
	return due, true
}

// firstOccurrenceAfter returns the smallest k with Occurrence(k) > day.
func (s Schedule) firstOccurrenceAfter(day time.Time) int {
	if day.Before(s.startDate) {
		return 0
	}

	switch s.frequency {
	case FrequencyDaily:
		return daysBetween(s.startDate, day) + 1
	case FrequencyWeekly:
		return daysBetween(s.startDate, day)/7 + 1
	case FrequencyMonthly:
		k := (day.Year()-s.startDate.Year())*12 + int(day.Month()) - int(s.startDate.Month())
		// Occurrence(k) falls in the same month as day.
		if s.Occurrence(k).After(day) {
			return k
		}
		return k + 1
	default:
		return 1
	}
}

// DeductionAmount splits target evenly across the schedule's periods,
// rounding each deduction up to the currency's minor unit.
func DeductionAmount(target valueobjects.Money, s Schedule) (valueobjects.Money, error) {
	return target.DivideRoundUp(s.NumberOfPeriods())
}

// Date truncates t to its calendar day at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func addMonthsClamped(start time.Time, k int) time.Time {
	firstOfMonth := time.Date(start.Year(), start.Month()+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
	day := start.Day()
	if last := daysIn(firstOfMonth); day > last {
		day = last
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
