package gpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSurfaceErrorClassifies(t *testing.T) {
	cases := map[string]SurfaceErrorKind{
		"Surface texture is Outdated": SurfaceErrorOutdated,
		"surface lost":                SurfaceErrorLost,
		"acquire Timeout":             SurfaceErrorTimeout,
		"OutOfMemory":                 SurfaceErrorOutOfMemory,
		"something else":              SurfaceErrorUnknown,
	}
	for msg, kind := range cases {
		t.Run(msg, func(t *testing.T) {
			se := NewSurfaceError(errors.New(msg))
			assert.Equal(t, kind, se.Kind)
			assert.ErrorIs(t, se, ErrSurfaceAcquire)
		})
	}
}

func TestNewSurfaceErrorKeepsExisting(t *testing.T) {
	orig := &SurfaceError{Kind: SurfaceErrorLost}
	wrapped := fmt.Errorf("frame: %w", orig)

	assert.Same(t, orig, NewSurfaceError(wrapped))
}

func TestSurfaceErrorRecoverable(t *testing.T) {
	assert.True(t, (&SurfaceError{Kind: SurfaceErrorOutdated}).Recoverable())
	assert.True(t, (&SurfaceError{Kind: SurfaceErrorTimeout}).Recoverable())
	assert.False(t, (&SurfaceError{Kind: SurfaceErrorOutOfMemory}).Recoverable())
}
