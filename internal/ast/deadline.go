package ast

import "time"

// Deadline is the due value of a Task property: a calendar Date, a precise
// DateTime, or a raw string the grammar could not interpret as either.
type Deadline struct {
	Kind     DeadlineKind
	Date     time.Time // valid when Kind == DeadlineDate (time-of-day truncated)
	DateTime time.Time // valid when Kind == DeadlineDateTime
	Raw      string    // valid when Kind == DeadlineUninterpretable
}

const (
	dateLayout         = "2006-01-02"
	dateTimeLayoutSec  = "2006-01-02T15:04:05"
	dateTimeLayoutMin  = "2006-01-02T15:04"
)

// ParseDeadline implements the grammar's deadline rule: YYYY-MM-DD is a
// Date, YYYY-MM-DDTHH:MM[:SS] is a DateTime, anything else is recorded
// verbatim as Uninterpretable.
func ParseDeadline(raw string) Deadline {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Deadline{Kind: DeadlineDate, Date: t}
	}
	if t, err := time.Parse(dateTimeLayoutSec, raw); err == nil {
		return Deadline{Kind: DeadlineDateTime, DateTime: t}
	}
	if t, err := time.Parse(dateTimeLayoutMin, raw); err == nil {
		return Deadline{Kind: DeadlineDateTime, DateTime: t}
	}
	return Deadline{Kind: DeadlineUninterpretable, Raw: raw}
}

// calendarDate returns the comparable y/m/d of a Date or DateTime deadline.
func (d Deadline) calendarDate() time.Time {
	if d.Kind == DeadlineDateTime {
		y, m, day := d.DateTime.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	y, m, day := d.Date.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Compare orders deadlines ascending: same-day Date sorts before DateTime,
// Uninterpretable always sorts last.
func (d Deadline) Compare(other Deadline) int {
	if d.Kind == DeadlineUninterpretable && other.Kind == DeadlineUninterpretable {
		if d.Raw == other.Raw {
			return 0
		}
		if d.Raw < other.Raw {
			return -1
		}
		return 1
	}
	if d.Kind == DeadlineUninterpretable {
		return 1
	}
	if other.Kind == DeadlineUninterpretable {
		return -1
	}

	dDate, oDate := d.calendarDate(), other.calendarDate()
	if dDate.Before(oDate) {
		return -1
	}
	if dDate.After(oDate) {
		return 1
	}
	// Same calendar date: a bare Date sorts before a DateTime that day.
	if d.Kind == other.Kind {
		if d.Kind == DeadlineDateTime {
			switch {
			case d.DateTime.Before(other.DateTime):
				return -1
			case d.DateTime.After(other.DateTime):
				return 1
			}
		}
		return 0
	}
	if d.Kind == DeadlineDate {
		return -1
	}
	return 1
}
