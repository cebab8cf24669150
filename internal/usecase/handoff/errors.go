package handoff

import (
	stdErrors "errors"
	"fmt"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// InputError is the only error a run surfaces to its caller
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func newInputError(field string, err error) *InputError {
	return &InputError{Field: field, Err: err}
}

// IsInputError reports whether err is caused by bad caller input
func IsInputError(err error) bool {
	var ie *InputError
	return stdErrors.As(err, &ie)
}

// PipelineError records the stage at which a run entered FAILED
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// validateTranscript enforces the preconditions for starting a run
func validateTranscript(t entities.Transcript) error {
	if t.PatientID <= 0 {
		return newInputError("patient_id", entities.ErrInvalidPatient)
	}
	if t.IsBlank() {
		return newInputError("transcript", entities.ErrEmptyTranscript)
	}
	if t.HandoffTime.IsZero() {
		return newInputError("handoff_time", fmt.Errorf("handoff time is required"))
	}
	return nil
}
