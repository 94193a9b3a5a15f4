package pillar

import (
	"errors"
	"fmt"
)

// ErrTimestamp is returned when gregorian_datetime is not TimestampLayout.
var ErrTimestamp = errors.New("invalid gregorian timestamp")

var errTrailing = errors.New("does not match layout " + TimestampLayout)

// TimestampError carries the value that failed to parse.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrTimestamp, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	return []error{ErrTimestamp, e.Err}
}
