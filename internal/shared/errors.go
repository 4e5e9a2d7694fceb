package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Submission errors
	ErrEmptyPrompt = fmt.Errorf("please enter a prompt")
	ErrTransport   = fmt.Errorf("recommendation request failed")
	ErrService     = fmt.Errorf("recommendation service error")
	ErrStale       = fmt.Errorf("response superseded by a newer request")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
