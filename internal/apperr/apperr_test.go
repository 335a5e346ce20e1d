package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsValidation(Validation("bad input")))
	assert.True(t, IsConflict(Conflict("already exists")))
	assert.True(t, IsNotFound(NotFound("missing")))
	assert.True(t, IsAuthorization(Authorization("denied")))

	assert.False(t, IsValidation(Conflict("already exists")))
	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsConflict(nil))
}

func TestMessageFormatting(t *testing.T) {
	err := NotFound("membership %d not found", 42)
	assert.Equal(t, "membership 42 not found", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindNotFound, cause, "lookup failed")

	assert.Equal(t, "lookup failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsNotFound(err))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Conflict("duplicate membership")
	outer := fmt.Errorf("subscribe: %w", inner)

	assert.True(t, IsConflict(outer))
	assert.False(t, IsValidation(outer))
}
