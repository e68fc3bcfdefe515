package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	err := New(ErrTypeValidation, "source column missing")
	assert.Equal(t, "validation: source column missing", err.Error())
	assert.Nil(t, err.Cause)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrTypeRemote, "describe failed")

	assert.Contains(t, err.Error(), "describe failed")
	assert.Contains(t, err.Error(), "connection refused")
	require.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	err := Newf(ErrTypeEmbedding, "function %q failed", "upper")
	assert.True(t, IsType(err, ErrTypeEmbedding))
	assert.False(t, IsType(err, ErrTypeRemote))
	assert.False(t, IsType(errors.New("plain"), ErrTypeEmbedding))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrTypeDatabase, GetType(New(ErrTypeDatabase, "bad")))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
}

func TestIsTypeUnwrapsNestedErrors(t *testing.T) {
	inner := New(ErrTypeValidation, "missing column")
	outer := Wrap(inner, ErrTypeRemote, "write rejected")

	// errors.As finds the outermost structured error first
	assert.True(t, IsType(outer, ErrTypeRemote))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("source column not found in schema", "text")
	assert.Contains(t, err.Message, "(column: text)")
	assert.NotEmpty(t, err.Suggestions)
}
