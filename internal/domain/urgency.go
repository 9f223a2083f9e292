package domain

import "time"

// Urgency ranks how soon a task is due. Lower values are more urgent.
type Urgency int

// Urgency buckets.
const (
	// UrgencyOverdue covers tasks due today or already past due.
	UrgencyOverdue Urgency = 0
	// UrgencySoon covers tasks due tomorrow or the day after.
	UrgencySoon Urgency = 1
	// UrgencyUpcoming covers tasks due in three or four days.
	UrgencyUpcoming Urgency = 2
	// UrgencyLater covers tasks due five or more days out.
	UrgencyLater Urgency = 3
)

// Valid reports whether u is one of the defined buckets.
func (u Urgency) Valid() bool {
	return u >= UrgencyOverdue && u <= UrgencyLater
}

// UrgencyClassifier maps a due timestamp to an urgency bucket by comparing
// calendar days in a fixed reference location. Time of day is ignored.
type UrgencyClassifier struct {
	loc *time.Location
}

// NewUrgencyClassifier returns a classifier that compares calendar days in loc.
// A nil location means UTC.
func NewUrgencyClassifier(loc *time.Location) UrgencyClassifier {
	if loc == nil {
		loc = time.UTC
	}
	return UrgencyClassifier{loc: loc}
}

// Location returns the reference location used for day boundaries.
func (c UrgencyClassifier) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Classify returns the urgency bucket of due relative to now.
//
// Both instants are normalized to midnight of their calendar day first, with
// today being the calendar day of now:
//
//	due day <  today+1                  -> 0
//	today+1 <= due day <= today+2       -> 1
//	today+2 <  due day <= today+4       -> 2
//	otherwise                           -> 3
func (c UrgencyClassifier) Classify(due, now time.Time) Urgency {
	dueDay := c.midnight(due, 0)

	tomorrow := c.midnight(now, 1)
	day2 := c.midnight(now, 2)
	day4 := c.midnight(now, 4)

	switch {
	case dueDay.Before(tomorrow):
		return UrgencyOverdue
	case !dueDay.After(day2):
		return UrgencySoon
	case !dueDay.After(day4):
		return UrgencyUpcoming
	default:
		return UrgencyLater
	}
}

// midnight returns the start of the calendar day of t in the reference
// location, shifted by days. time.Date normalizes day overflow and keeps
// day boundaries correct across DST transitions.
func (c UrgencyClassifier) midnight(t time.Time, days int) time.Time {
	loc := c.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, loc)
}
