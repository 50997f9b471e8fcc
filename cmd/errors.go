package cmd

import (
	"errors"
	"fmt"
)

const (
	exitFailure             = 1
	exitScoreBelowThreshold = 2
)

// ValidationError reports a target URL rejected before probing.
type ValidationError struct {
	URL string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ScoreBelowThresholdError signals that an analysis finished but its total
// score missed the --fail-under bar.
type ScoreBelowThresholdError struct {
	URL       string
	Score     int
	Threshold int
}

func (e *ScoreBelowThresholdError) Error() string {
	return fmt.Sprintf("total score %d for %s is below threshold %d", e.Score, e.URL, e.Threshold)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var below *ScoreBelowThresholdError
	if errors.As(err, &below) {
		return exitScoreBelowThreshold
	}
	return exitFailure
}
