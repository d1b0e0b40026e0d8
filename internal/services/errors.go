package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a name with fewer than two code points.
	ErrInvalidInput = errors.New("name_divider: invalid input")
	// ErrUnknownMode indicates a division mode the engine was not built with.
	ErrUnknownMode = errors.New("name_divider: unknown mode")
	// ErrBatchTooLarge indicates a batch exceeding the configured maximum.
	ErrBatchTooLarge = errors.New("name_divider: batch too large")
	// ErrEngineUnavailable indicates the division engine has not been loaded.
	ErrEngineUnavailable = errors.New("name_divider: engine unavailable")

	errDividerCalculatorRequired = errors.New("name_divider: calculator is required")
	errDividerAlgorithmRequired  = errors.New("name_divider: algorithm label is required")
)

// BatchError reports the first name in a batch that could not be divided.
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("names[%d] %q: %v", e.Index, e.Name, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
