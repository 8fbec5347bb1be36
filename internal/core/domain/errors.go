package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Job Errors.

	// ErrFileNotFound indicates an input file could not be opened.
	ErrFileNotFound = errors.New("file not found")

	// ErrMalformedInput indicates an input file could not be decoded.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStorage indicates a storage write failed.
	ErrStorage = errors.New("storage error")

	// ErrTimeout indicates a unit exceeded its wall-clock budget.
	ErrTimeout = errors.New("timeout")

	// ErrPanic indicates a unit hit an unrecovered fault.
	ErrPanic = errors.New("internal fault")

	// Batch Errors.

	// ErrNoUnits indicates discovery found nothing to process.
	ErrNoUnits = errors.New("no input units")

	// ErrInterrupted indicates the run was stopped by an external interrupt.
	ErrInterrupted = errors.New("interrupted")

	// ErrBatchFailed indicates at least one unit failed.
	ErrBatchFailed = errors.New("batch failed")
)
