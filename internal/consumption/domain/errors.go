package domain

import "errors"

// ErrMalformedInput is the umbrella for every message the pipeline drops
// before persistence.
var ErrMalformedInput = errors.New("malformed_input")

var (
	ErrMalformedTopic = &inputError{code: "malformed_topic"}
	ErrNotANumber     = &inputError{code: "not_a_number"}
	ErrUnknownHome    = &inputError{code: "unknown_home"}
)

var (
	ErrPersistenceFailure = errors.New("persistence_failure")
	ErrInvalidHomeID      = errors.New("invalid_home_id")
	ErrInvalidWindow      = errors.New("invalid_window")
	ErrRecordNotFound     = errors.New("record_not_found")
)

type inputError struct {
	code string
}

func (e *inputError) Error() string { return e.code }

func (e *inputError) Is(target error) bool { return target == ErrMalformedInput }

// Reason returns the low-cardinality reason for a malformed input error.
func Reason(err error) string {
	var ie *inputError
	if errors.As(err, &ie) {
		return ie.code
	}
	if errors.Is(err, ErrMalformedInput) {
		return ErrMalformedInput.Error()
	}
	return "unknown"
}
