package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidRequestf(t *testing.T) {
	err := InvalidRequestf("unknown source %q", "monster")

	assert.Equal(t, `unknown source "monster"`, err.Error())
	assert.True(t, IsInvalidRequest(err))
	assert.True(t, IsInvalidRequest(Wrap(err, "decode body")))
	assert.False(t, IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	err := Wrap(ErrNotFound, "application for job 42")

	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(New("boom")))
}

func TestWrapKeepsStack(t *testing.T) {
	err := Wrap(New("disk full"), "commit batch")

	assert.Contains(t, err.Error(), "commit batch")
	assert.Contains(t, err.Error(), "disk full")
	assert.NotNil(t, GetStack(err))
}
