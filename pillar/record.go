/*
Package pillar holds the birth-moment records moved by the upgrade tool.

PURPOSE:
  Legacy is one row of the old Pillars table; Record is the same row with the
  Gregorian timestamp and the lunar date decomposed into integers. Normalize
  is the pure transformation between the two.

FAILURE POLICY:
  Normalize decomposes the timestamp first, then the lunar string.
  - timestamp failure: *TimestampError (the caller treats it as fatal)
  - lunar failure:     *lunar.ParseError (the caller skips the row)
  The order matters: a row broken in both ways is a timestamp failure.

SEE ALSO:
  - lunar/lunar.go: the lunar string grammar
  - upgrade/upgrade.go: applies the failure policy
*/
package pillar

import (
	"fmt"
	"time"

	"github.com/gugo-beep/bazi-backend/lunar"
)

// TimestampLayout is the only accepted gregorian_datetime format.
const TimestampLayout = "2006-01-02 15:04:05"

// Set is the four stem-branch pillar labels. They are opaque to this tool.
type Set struct {
	Year  string
	Month string
	Day   string
	Hour  string
}

// Legacy is a row of the old Pillars table.
type Legacy struct {
	GregorianDatetime string
	Pillars           Set
	LunarDateStr      string
	TaiYuan           string
	MingGong          string
	ShenGong          string
}

// Record is a row of the new Pillars table.
type Record struct {
	GregorianDatetime string
	GregorianYear     int
	GregorianMonth    int
	GregorianDay      int
	Hour              int

	LunarDateStr string
	Lunar        lunar.Date

	Pillars  Set
	TaiYuan  string
	MingGong string
	ShenGong string
}

// ParseTimestamp parses s strictly as TimestampLayout. time.Parse tolerates a
// fractional second after the seconds field, so the value must also round-trip.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, &TimestampError{Value: s, Err: err}
	}
	if t.Format(TimestampLayout) != s {
		return time.Time{}, &TimestampError{Value: s, Err: errTrailing}
	}
	return t, nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Normalize derives the new-schema record from a legacy row.
func Normalize(l Legacy) (Record, error) {
	t, err := ParseTimestamp(l.GregorianDatetime)
	if err != nil {
		return Record{}, err
	}

	d, err := lunar.Parse(l.LunarDateStr)
	if err != nil {
		return Record{}, err
	}

	return Record{
		GregorianDatetime: l.GregorianDatetime,
		GregorianYear:     t.Year(),
		GregorianMonth:    int(t.Month()),
		GregorianDay:      t.Day(),
		Hour:              t.Hour(),
		LunarDateStr:      l.LunarDateStr,
		Lunar:             d,
		Pillars:           l.Pillars,
		TaiYuan:           l.TaiYuan,
		MingGong:          l.MingGong,
		ShenGong:          l.ShenGong,
	}, nil
}

// String joins the labels with spaces. The upgrade skip log carries it.
func (s Set) String() string {
	return fmt.Sprintf("%s %s %s %s", s.Year, s.Month, s.Day, s.Hour)
}
