// Package chrono parses and formats the ISO-like date/time/datetime
// literals of spec.md §3, ported from original_source/frid/chrono.py's
// parse_timeonly/parse_datetime/strfr_timeonly/strfr_datetime. The
// Quantity-based DateTimeDiff/DateTimeSpec arithmetic in that file is a
// documented Non-goal and is not ported.
package chrono

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"frid"
)

const (
	dateOnlyRe = `(\d\d\d\d)-([01]\d)-([0-3]\d)`
	timeZoneRe = `[+-](\d\d)(?::?(\d\d))?|Z`
	timeCurtRe = `([012]\d):?([0-5]\d)(?::?([0-6]\d)(?:\.(\d+))?)?(` + timeZoneRe + `)?`
)

var (
	dateTimeRegexp = regexp.MustCompile(`^` + dateOnlyRe + `\s*[Tt_ ]\s*` + timeCurtRe + `$`)
	dateOnlyRegexp = regexp.MustCompile(`^` + dateOnlyRe + `$`)
	timeCurtRegexp = regexp.MustCompile(`^` + timeCurtRe + `$`)
)

// ParseTime parses an ISO time-of-day literal where the colon between
// hour/minute/second is optional (e.g. "13:04:05.250+02:00" or
// "130405.25Z"). Returns false if s does not match.
func ParseTime(s string) (frid.TimeValue, bool) {
	m := timeCurtRegexp.FindStringSubmatch(s)
	if m == nil {
		return frid.TimeValue{}, false
	}
	return parseTimeMatch(m)
}

// parseTimeMatch decodes a regexp match whose groups are
// [whole, hour, minute, second, fracStr, tzWhole, tzHour, tzMinute].
func parseTimeMatch(m []string) (frid.TimeValue, bool) {
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	nanos := 0
	if m[4] != "" {
		frac := m[4]
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, _ := strconv.Atoi(frac)
		for len(frac) < 9 {
			frac += "0"
			n *= 10
		}
		nanos = n
	}
	tv := frid.TimeValue{Hour: hour, Minute: minute, Second: second, Nanosecond: nanos}
	tzWhole := m[5]
	if tzWhole == "" {
		return tv, true
	}
	if tzWhole == "Z" {
		tv.HasOffset = true
		tv.IsUTC = true
		return tv, true
	}
	tzHour, _ := strconv.Atoi(m[6])
	tzMinute := 0
	if m[7] != "" {
		tzMinute, _ = strconv.Atoi(m[7])
	}
	offset := tzHour*60 + tzMinute
	if strings.HasPrefix(tzWhole, "-") {
		offset = -offset
	}
	tv.HasOffset = true
	tv.OffsetMinutes = offset
	return tv, true
}

// ParseDate parses an ISO calendar date "YYYY-MM-DD".
func ParseDate(s string) (frid.DateValue, bool) {
	m := dateOnlyRegexp.FindStringSubmatch(s)
	if m == nil {
		return frid.DateValue{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return frid.DateValue{Year: y, Month: mo, Day: d}, true
}

// ParseDateTime parses a date, a time, or a combined date-time literal and
// returns the matching Value (Kind Date, Time, or DateTime). Returns false
// if s matches none of the three forms.
func ParseDateTime(s string) (frid.Value, bool) {
	if strings.HasPrefix(s, "0T") || strings.HasPrefix(s, "0t") {
		rest := s[2:]
		if tv, ok := ParseTime(rest); ok {
			return frid.Time(tv), true
		}
		return frid.Value{}, false
	}
	if m := dateTimeRegexp.FindStringSubmatch(s); m != nil {
		date := frid.DateValue{}
		date.Year, _ = strconv.Atoi(m[1])
		date.Month, _ = strconv.Atoi(m[2])
		date.Day, _ = strconv.Atoi(m[3])
		tv, ok := parseTimeMatch(m[3:])
		if !ok {
			return frid.Value{}, false
		}
		return frid.DateTime(frid.DateTimeValue{Date: date, Time: tv}), true
	}
	if d, ok := ParseDate(s); ok {
		return frid.Date(d), true
	}
	if tv, ok := ParseTime(s); ok {
		return frid.Time(tv), true
	}
	return frid.Value{}, false
}

// FormatDate renders d as "YYYY-MM-DD".
func FormatDate(d frid.DateValue) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FormatTime renders t as "HH:MM:SS[.nnn][Z|+HH:MM]" (no leading "0T"
// prefix unless withPrefix is true). precision is the number of
// fractional-second digits to keep (0 omits the fraction); a negative
// precision truncates to minutes (-1) or hours (-2).
func FormatTime(t frid.TimeValue, precision int, withPrefix bool) (string, error) {
	var out string
	switch {
	case precision == -2:
		out = fmt.Sprintf("%02d", t.Hour)
	case precision == -1:
		out = fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
	case precision >= 0:
		out = fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
		if precision > 0 {
			micro := fmt.Sprintf("%09d", t.Nanosecond)[:9]
			if precision < len(micro) {
				micro = micro[:precision]
			} else {
				for len(micro) < precision {
					micro += "0"
				}
			}
			out += "." + micro
		}
	default:
		return "", fmt.Errorf("chrono: invalid precision %d, must be >= -2", precision)
	}
	if withPrefix {
		out = "0T" + out
	}
	if !t.HasOffset {
		return out, nil
	}
	if t.IsUTC {
		return out + "Z", nil
	}
	sign := "+"
	off := t.OffsetMinutes
	if off < 0 {
		sign = "-"
		off = -off
	}
	return out + fmt.Sprintf("%s%02d:%02d", sign, off/60, off%60), nil
}

// FormatDateTime renders v (Kind Date, Time, or DateTime) in extended ISO
// form, e.g. "2024-01-02T13:04:05.250Z".
func FormatDateTime(v frid.Value, precision int) (string, error) {
	switch v.Kind() {
	case frid.KindDate:
		return FormatDate(v.Date()), nil
	case frid.KindTime:
		return FormatTime(v.Time(), precision, true)
	case frid.KindDateTime:
		dt := v.DateTime()
		ts, err := FormatTime(dt.Time, precision, false)
		if err != nil {
			return "", err
		}
		return FormatDate(dt.Date) + "T" + ts, nil
	default:
		return "", fmt.Errorf("chrono: value kind %s is not a date/time type", v.Kind())
	}
}
