package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is the sentinel for invalid planning input
	ErrConfiguration = errors.New("invalid planning configuration")

	// ErrUnreadableValues is the sentinel for solutions missing variable values
	ErrUnreadableValues = errors.New("solution has unreadable values")

	// ErrNoSolution is returned when extraction is asked for a solve without values
	ErrNoSolution = errors.New("solve produced no solution")
)

// ConfigError lists every problem found while validating the input
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, strings.Join(e.Issues, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// ExtractionError reports variables the solver returned no value for
type ExtractionError struct {
	Count   int
	Samples []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %d unreadable (e.g. %s)", ErrUnreadableValues, e.Count, strings.Join(e.Samples, ", "))
}

func (e *ExtractionError) Unwrap() error {
	return ErrUnreadableValues
}
