package stats

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is the root of every failure the engine reports.
// Use errors.Is to test for it or for one of the specific errors below.
var ErrInvariantViolation = errors.New("invariant violation")

var (
	// ErrClockSkew means an interval would end before it starts
	ErrClockSkew = fmt.Errorf("%w: clock skew", ErrInvariantViolation)

	// ErrInvalidStatus means a sample carried a status outside online/offline/unknown
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrInvariantViolation)

	// ErrCalendarRange means an offline interval fell outside the seeded calendar
	ErrCalendarRange = fmt.Errorf("%w: date outside calendar range", ErrInvariantViolation)
)
