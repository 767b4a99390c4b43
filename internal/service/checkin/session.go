package checkin

import "time"

// Session is the coarse time-of-day bucket a check-in is counted under.
type Session string

const (
	SessionDay   Session = "Day"
	SessionNight Session = "Night"
)

// Day runs from 06:00 through 16:59 business time.
const (
	dayStartHour = 6
	dayEndHour   = 16
)

// Sessions lists every label in reporting order.
var Sessions = []Session{SessionDay, SessionNight}

// SessionFor maps an hour of the day to its session. Hours outside 0-23 are
// Night.
func SessionFor(hour int) Session {
	if hour >= dayStartHour && hour <= dayEndHour {
		return SessionDay
	}
	return SessionNight
}

// SessionAt buckets t by its wall clock hour in loc.
func SessionAt(t time.Time, loc *time.Location) Session {
	return SessionFor(t.In(loc).Hour())
}

// Valid reports whether s is a known session label.
func (s Session) Valid() bool {
	return s == SessionDay || s == SessionNight
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the real time.
var SystemClock Clock = ClockFunc(time.Now)
