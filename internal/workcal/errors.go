package workcal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidClock indicates a time of day that is not "HH:mm".
	ErrInvalidClock = errors.New("invalid time of day, want HH:mm")

	// ErrEmptyWindow indicates an end time that is not after the start time.
	ErrEmptyWindow = errors.New("end time must be after start time")

	// ErrLunchInverted indicates a lunch end before the lunch start.
	ErrLunchInverted = errors.New("lunch end must not be before lunch start")

	// ErrLunchOutsideWindow indicates a lunch window not contained in the working window.
	ErrLunchOutsideWindow = errors.New("lunch window must lie within working hours")

	// ErrNoWorkDays indicates an empty weekday set.
	ErrNoWorkDays = errors.New("at least one work day is required")

	// ErrInvalidWeekday indicates a weekday index outside 0..6.
	ErrInvalidWeekday = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")

	// ErrNoCapacity indicates a schedule whose lunch consumes the whole day.
	ErrNoCapacity = errors.New("schedule has no working minutes per day")

	// ErrNegativeHours indicates a negative estimated duration.
	ErrNegativeHours = errors.New("estimated hours must not be negative")

	// ErrInvalidHours indicates an estimated duration that is NaN or infinite.
	ErrInvalidHours = errors.New("estimated hours must be a finite number")

	// ErrWalkLimit is returned when the day walk exceeds MaxWalkDays.
	ErrWalkLimit = errors.New("working time could not be allocated within the walk limit")
)

// ConfigurationError reports a malformed schedule field.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("schedule %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e ConfigurationError) Unwrap() error {
	return e.Err
}

// InputError reports an invalid calculation argument.
type InputError struct {
	Field string
	Err   error
}

func (e InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e InputError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err is a configuration or input problem the
// caller can fix, as opposed to an internal failure.
func IsUserError(err error) bool {
	var ce ConfigurationError
	var ie InputError
	return errors.As(err, &ce) || errors.As(err, &ie)
}
