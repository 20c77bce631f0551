package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTry(t *testing.T) {
	pe, unwound := try(func() {})
	assert.Nil(t, pe)
	assert.False(t, unwound)

	pe, unwound = try(func() { panic(unwind{}) })
	assert.Nil(t, pe)
	assert.True(t, unwound)

	cause := errors.New("boom")
	pe, unwound = try(func() { panic(cause) })
	assert.False(t, unwound)
	if assert.NotNil(t, pe) {
		assert.Same(t, cause, pe.Value)
		assert.ErrorIs(t, pe, cause)
		assert.ErrorIs(t, pe, ErrPanicked)
		assert.NotEmpty(t, pe.Stack)
	}
}

func TestPanicErrorWithoutError(t *testing.T) {
	pe := &PanicError{Value: 42}
	assert.Nil(t, pe.Unwrap())
	assert.Equal(t, "async: task panicked: 42", pe.Error())
	assert.False(t, errors.Is(pe, ErrAborted))
}
