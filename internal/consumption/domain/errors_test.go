package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputErrorsAreMalformedInput(t *testing.T) {
	for _, err := range []error{ErrMalformedTopic, ErrNotANumber, ErrUnknownHome} {
		assert.True(t, errors.Is(err, ErrMalformedInput), err.Error())
		assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrMalformedInput))
	}
	assert.False(t, errors.Is(ErrPersistenceFailure, ErrMalformedInput))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "malformed_topic", Reason(fmt.Errorf("x: %w", ErrMalformedTopic)))
	assert.Equal(t, "not_a_number", Reason(ErrNotANumber))
	assert.Equal(t, "unknown", Reason(errors.New("boom")))
}
