package common

import "errors"

var (
	// ErrAppRequired is returned when CommandDeps.App is nil
	ErrAppRequired = errors.New("application is required")

	// ErrPrinterRequired is returned when CommandDeps.Printer is nil
	ErrPrinterRequired = errors.New("printer is required")

	// ErrInvalidDeps is returned when dependencies fail validation
	ErrInvalidDeps = errors.New("invalid dependencies")

	// ErrCancelled is returned when the user declines a confirmation prompt
	ErrCancelled = errors.New("cancelled by user")

	// ErrUnhealthy is returned when a diagnosis contains a failed check
	ErrUnhealthy = errors.New("one or more checks failed")
)
