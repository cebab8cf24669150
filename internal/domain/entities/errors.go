package entities

import "errors"

// Domain errors
var (
	// Input errors
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrInvalidPatient  = errors.New("invalid patient reference")
	ErrPatientNotFound = errors.New("patient not found")

	// Storage errors
	ErrHandoffNotFound = errors.New("handoff not found")

	// Collaborator errors
	ErrExtractionUnavailable = errors.New("extraction service unavailable")
	ErrMalformedExtraction   = errors.New("malformed extraction response")

	// Background processing errors
	ErrQueueFull         = errors.New("handoff queue is full")
	ErrWorkersNotRunning = errors.New("handoff workers are not running")
)
