package lunar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("lunar date parse failed")

	// ErrTooShort is returned when the input cannot hold year, month and day segments.
	ErrTooShort = errors.New("lunar date too short")

	// ErrNoYearDigits is returned when the year window holds no ideographic digit.
	ErrNoYearDigits = errors.New("no year digits")

	// ErrUnknownMonth is returned when the month token is not one of the 12 month names.
	ErrUnknownMonth = errors.New("unknown month name")

	// ErrUnknownDay is returned when the trailing two runes are not a day name.
	ErrUnknownDay = errors.New("unknown day name")

	// ErrOutOfRange is returned by Format for tuples the grammar cannot express.
	ErrOutOfRange = errors.New("lunar date out of range")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ParseError reports the offending input and the underlying cause.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse lunar date %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
