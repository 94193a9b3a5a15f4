/*
Package lunar parses and formats domestic lunar-calendar date strings.

PURPOSE:
  The legacy pillar table stores the lunar date as ideographic text, e.g.
  "一九九零年腊月初一" or "一九九零年闰腊月初一". This package turns that text
  into a Date tuple (year, month, day, leap) and back.

GRAMMAR (positional, no delimiter scanning):
  runes [0,5)        year window: ideographic digits, the implied 年 is skipped
  runes [5,len-2)    month segment: optional leading 闰, month name, 月
  runes [len-2,len)  day name: 初一 .. 三十

  The offsets are fixed. Historical rows were sliced this way, so the parser
  must never search for 年 or re-align the year window.

EXAMPLES:
  d, err := lunar.Parse("一九九零年闰腊月初一")
  // d == lunar.Date{Year: 1990, Month: 12, Day: 1, Leap: true}

  s, _ := lunar.Format(d)
  // s == "一九九〇年闰腊月初一"

SEE ALSO:
  - errors.go: ParseError and sentinel causes
  - pillar/record.go: Normalize, the caller during migration
*/
package lunar

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// LOOKUP TABLES - constants indexed by rune position
// =============================================================================

const (
	// digitRunes maps a digit rune to its index. 零 is accepted as a second zero.
	digitRunes = "〇一二三四五六七八九"
	altZero    = '零'

	// monthRunes holds month names for months 1..12 in order.
	monthRunes = "正二三四五六七八九十冬腊"

	// dayNames holds the 30 two-rune day names for days 1..30 in order.
	dayNames = "初一初二初三初四初五初六初七初八初九初十" +
		"十一十二十三十四十五十六十七十八十九二十" +
		"廿一廿二廿三廿四廿五廿六廿七廿八廿九三十"

	yearMarker  = "年"
	monthMarker = "月"
	leapMarker  = "闰"
)

const (
	yearWindow = 5
	dayWidth   = 2
	minLength  = yearWindow + 1 + dayWidth
)

// Date is a lunar date decomposed into integers.
type Date struct {
	Year  int
	Month int // 1..12
	Day   int // 1..30
	Leap  bool
}

// LeapFlag returns the leap marker as stored in the database (0 or 1).
func (d Date) LeapFlag() int {
	if d.Leap {
		return 1
	}
	return 0
}

// String returns the canonical textual form, or a Go-syntax fallback when the
// tuple cannot be encoded.
func (d Date) String() string {
	s, err := Format(d)
	if err != nil {
		return fmt.Sprintf("lunar.Date{%d-%d-%d leap=%t}", d.Year, d.Month, d.Day, d.Leap)
	}
	return s
}

// =============================================================================
// PARSE
// =============================================================================

// Parse converts a textual lunar date into a Date.
// Every failure is a *ParseError carrying the input and the cause.
func Parse(s string) (Date, error) {
	runes := []rune(s)
	if len(runes) < minLength {
		return Date{}, &ParseError{Input: s, Err: ErrTooShort}
	}

	year, err := parseYear(runes[:yearWindow])
	if err != nil {
		return Date{}, &ParseError{Input: s, Err: err}
	}

	day, err := parseDay(string(runes[len(runes)-dayWidth:]))
	if err != nil {
		return Date{}, &ParseError{Input: s, Err: err}
	}

	month, leap, err := parseMonth(string(runes[yearWindow : len(runes)-dayWidth]))
	if err != nil {
		return Date{}, &ParseError{Input: s, Err: err}
	}

	return Date{Year: year, Month: month, Day: day, Leap: leap}, nil
}

// parseYear concatenates the digits found in the year window. Non-digit runes
// (normally the trailing 年) are skipped without validation.
func parseYear(window []rune) (int, error) {
	year, digits := 0, 0
	for _, r := range window {
		v, ok := digitValue(r)
		if !ok {
			continue
		}
		year = year*10 + v
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoYearDigits, string(window))
	}
	return year, nil
}

func parseMonth(segment string) (int, bool, error) {
	rest, leap := strings.CutPrefix(segment, leapMarker)
	name := strings.ReplaceAll(rest, monthMarker, "")

	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if i := runeIndex(monthRunes, r); i >= 0 {
			return i + 1, leap, nil
		}
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownMonth, name)
}

func parseDay(name string) (int, error) {
	pair := []rune(name)
	names := []rune(dayNames)
	for i := 0; i+1 < len(names); i += dayWidth {
		if names[i] == pair[0] && names[i+1] == pair[1] {
			return i/dayWidth + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDay, name)
}

func digitValue(r rune) (int, bool) {
	if r == altZero {
		return 0, true
	}
	if i := runeIndex(digitRunes, r); i >= 0 {
		return i, true
	}
	return 0, false
}

// runeIndex returns the rune position (not byte offset) of r in s, or -1.
func runeIndex(s string, r rune) int {
	i := 0
	for _, c := range s {
		if c == r {
			return i
		}
		i++
	}
	return -1
}

// =============================================================================
// FORMAT
// =============================================================================

// Format encodes d in the same grammar Parse accepts. The year is written as
// four digits with 〇 for zero so that it fills the year window exactly.
func Format(d Date) (string, error) {
	if d.Year < 0 || d.Year > 9999 {
		return "", fmt.Errorf("%w: year %d", ErrOutOfRange, d.Year)
	}
	if d.Month < 1 || d.Month > 12 {
		return "", fmt.Errorf("%w: month %d", ErrOutOfRange, d.Month)
	}
	if d.Day < 1 || d.Day > 30 {
		return "", fmt.Errorf("%w: day %d", ErrOutOfRange, d.Day)
	}

	digits := []rune(digitRunes)
	months := []rune(monthRunes)
	days := []rune(dayNames)

	var b strings.Builder
	for _, c := range fmt.Sprintf("%04d", d.Year) {
		b.WriteRune(digits[c-'0'])
	}
	b.WriteString(yearMarker)
	if d.Leap {
		b.WriteString(leapMarker)
	}
	b.WriteRune(months[d.Month-1])
	b.WriteString(monthMarker)
	b.WriteString(string(days[(d.Day-1)*dayWidth : d.Day*dayWidth]))
	return b.String(), nil
}
