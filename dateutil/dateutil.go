// Package dateutil supplements value.DateDistance/value.DateRange with the
// string parsing helpers spec.md §3/§8/§9 assume but does not fully spell
// out: parsing "+5d"/"-2mo" distance literals and building Dates from
// IANA-zoned wall-clock strings.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arolang/aro/value"
)

// ParseDistance parses a signed amount+unit literal like "+5d", "-2mo",
// "3h" into a value.DateDistance. The spec fixes the source's ambiguous
// table: "m" is minutes, "mo" is months (spec §9).
func ParseDistance(raw string) (value.DateDistance, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return value.DateDistance{}, fmt.Errorf("dateutil: empty distance literal")
	}
	sign := 1
	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		sign = -1
		s = s[1:]
	}

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
		i++
	}
	if i == 0 {
		return value.DateDistance{}, fmt.Errorf("dateutil: missing numeric amount in %q", raw)
	}
	amount, err := strconv.Atoi(s[:i])
	if err != nil {
		return value.DateDistance{}, err
	}
	unit := strings.ToLower(s[i:])

	var du value.DateUnit
	switch unit {
	case "s", "sec", "secs", "second", "seconds":
		du = value.UnitSecond
	case "m", "min", "mins", "minute", "minutes":
		du = value.UnitMinute
	case "h", "hr", "hrs", "hour", "hours":
		du = value.UnitHour
	case "d", "day", "days":
		du = value.UnitDay
	case "w", "week", "weeks":
		du = value.UnitWeek
	case "mo", "month", "months":
		du = value.UnitMonth
	case "y", "yr", "yrs", "year", "years":
		du = value.UnitYear
	default:
		return value.DateDistance{}, fmt.Errorf("dateutil: unknown unit %q in %q", unit, raw)
	}
	return value.DateDistance{Amount: sign * amount, Unit: du}, nil
}

// ParseDate parses a wall-clock string in an IANA timezone. layout defaults
// to RFC3339 if empty; tz defaults to "UTC" if empty.
func ParseDate(raw, layout, tz string) (value.Date, error) {
	if layout == "" {
		layout = time.RFC3339
	}
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return value.Date{}, err
	}
	t, err := time.ParseInLocation(layout, raw, loc)
	if err != nil {
		return value.Date{}, err
	}
	return value.Date{When: t, Timezone: tz}, nil
}

// ParseRange builds a value.DateRange from two date literals sharing tz.
func ParseRange(startRaw, endRaw, layout, tz string) (value.DateRange, error) {
	start, err := ParseDate(startRaw, layout, tz)
	if err != nil {
		return value.DateRange{}, err
	}
	end, err := ParseDate(endRaw, layout, tz)
	if err != nil {
		return value.DateRange{}, err
	}
	return value.DateRange{Start: start, End: end}, nil
}

// Offset applies a parsed distance literal to d, returning a new Date in
// the same timezone (spec §8 boundary behavior: offsets cross month/year
// boundaries correctly via value.DateDistance.Apply, e.g.
// "2025-12-30 + 5d -> 2026-01-04").
func Offset(d value.Date, distanceLiteral string) (value.Date, error) {
	dist, err := ParseDistance(distanceLiteral)
	if err != nil {
		return value.Date{}, err
	}
	return value.Date{When: dist.Apply(d.When), Timezone: d.Timezone}, nil
}
