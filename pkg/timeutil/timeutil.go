// Package timeutil provides wall-clock arithmetic for HH:mm slot times and
// timezone-aware composition of calendar days with wall-clock times.
package timeutil

import (
	"fmt"
	"regexp"
	"time"

	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// EndOfDaySentinel marks a window that closes at midnight of the next day.
// It is accepted only as an end bound and never persisted; callers normalise
// it to "00:00" before storage.
const EndOfDaySentinel = "24:00"

var hhmmPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ToMinutes parses a strict HH:mm wall-clock string into minutes since
// midnight. The 24:00 sentinel is rejected here; use ToEndMinutes for end
// bounds.
func ToMinutes(hhmm string) (int, error) {
	if !hhmmPattern.MatchString(hhmm) {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("invalid time %q", hhmm))
	}
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("invalid time %q", hhmm))
	}
	return h*60 + m, nil
}

// ToEndMinutes parses an end-of-window time, additionally accepting the 24:00
// sentinel as minute 1440.
func ToEndMinutes(hhmm string) (int, error) {
	if hhmm == EndOfDaySentinel {
		return MinutesPerDay, nil
	}
	return ToMinutes(hhmm)
}

// FormatMinutes renders minutes since midnight as HH:mm. Minute 1440 maps to
// "00:00", matching how midnight-closing slots are persisted.
func FormatMinutes(mins int) string {
	mins %= MinutesPerDay
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// SpanMinutes returns the duration in minutes of a [start, end) slot. An end
// of "00:00" is treated as midnight of the following day.
func SpanMinutes(start, end string) (int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToEndMinutes(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		if e == 0 {
			e = MinutesPerDay
		} else {
			return 0, appErrors.Clone(appErrors.ErrInvalidPeriod, fmt.Sprintf("end %q not after start %q", end, start))
		}
	}
	return e - s, nil
}

// IntervalsOverlap reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any point.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// ComposeZonedDateTime resolves a wall-clock HH:mm on the calendar day
// carried by `day` within the named IANA timezone to an absolute instant.
// The year, month and day are read as stored, never converted through
// another zone: a date column scanned at UTC midnight keeps its calendar
// day even when the slot's timezone lies west of UTC. DST gaps and
// overlaps follow the zone's rules via time.Date.
func ComposeZonedDateTime(day time.Time, hhmm, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, fmt.Sprintf("unknown timezone %q", timezone))
	}
	mins, err := ToEndMinutes(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, mins, 0, 0, loc), nil
}

// DayStart returns midnight of the carried calendar day in the named
// timezone. Use this for calendar-day values (date columns, parsed
// YYYY-MM-DD params), where the stored year, month and day are authoritative
// regardless of the location they were scanned in.
func DayStart(day time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, fmt.Sprintf("unknown timezone %q", timezone))
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

// DayEnd returns the last nanosecond of the carried calendar day in the
// named timezone.
func DayEnd(day time.Time, timezone string) (time.Time, error) {
	start, err := DayStart(day, timezone)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// StartOfDay truncates an absolute instant to midnight of its calendar day
// in the named timezone. Use this for real instants (clocks); calendar-day
// values go through DayStart instead.
func StartOfDay(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, fmt.Sprintf("unknown timezone %q", timezone))
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}
