package model

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid threshold or weight value. It is
// fatal at startup; no partial run happens with a broken configuration.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
}

// InferenceError reports that the event classifier was unavailable or failed
// for a batch of documents. The affected documents are skipped and recorded
// in the run report; the batch as a whole continues.
type InferenceError struct {
	Err error
}

// Error implements the error interface
func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

// Unwrap exposes the underlying inference failure
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// ErrNoData marks a patient whose documents all failed processing; the
// aggregator produces an empty timeline with this status instead of crashing.
var ErrNoData = errors.New("no successfully processed documents for patient")
