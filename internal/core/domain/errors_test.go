package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(KindUpstream, "/v3/x", "boom"))

	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrConfigMissing)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "op: msg", NewError(KindValidation, "op", "msg").Error())
	assert.Equal(t, "op: cause", WrapError(KindUpstream, "op", errors.New("cause")).Error())
	assert.Equal(t, "rate_limited", ErrRateLimited.Error())
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(KindUpstream, "/v3/x", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsRateLimitedError(ErrRateLimited))
	assert.True(t, IsConfigMissingError(NewError(KindConfigMissing, "client", "missing")))
	assert.True(t, IsValidationError(fmt.Errorf("x: %w", NewError(KindValidation, "", "bad"))))
	assert.False(t, IsValidationError(nil))
}
