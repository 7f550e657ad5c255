package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a stage that did not receive enough samples.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUpstreamData marks a failure of the series loader. It is not recovered.
	ErrUpstreamData = errors.New("series source unavailable")
)

// InsufficientDataError reports how many samples a stage needed and how many it got.
type InsufficientDataError struct {
	Stage    string
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: at least %d days of history required, got %d", e.Stage, e.Required, e.Got)
}

// Is makes errors.Is(err, ErrInsufficientData) hold.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Message is the caller-facing explanation rendered in empty states.
func (e *InsufficientDataError) Message() string {
	return fmt.Sprintf("at least %d days of history required", e.Required)
}
