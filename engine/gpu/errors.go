package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// SurfaceErrorKind classifies a failure to acquire a presentation image.
type SurfaceErrorKind int

const (
	SurfaceErrorUnknown SurfaceErrorKind = iota
	// SurfaceErrorLost means the surface must be recreated.
	SurfaceErrorLost
	// SurfaceErrorOutdated means the surface must be reconfigured, usually after a resize.
	SurfaceErrorOutdated
	SurfaceErrorTimeout
	SurfaceErrorOutOfMemory
)

func (k SurfaceErrorKind) String() string {
	switch k {
	case SurfaceErrorLost:
		return "lost"
	case SurfaceErrorOutdated:
		return "outdated"
	case SurfaceErrorTimeout:
		return "timeout"
	case SurfaceErrorOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// ErrSurfaceAcquire is matched by every *SurfaceError through errors.Is.
var ErrSurfaceAcquire = errors.New("surface acquire failed")

// SurfaceError is returned by Surface.Acquire when no presentation image is available.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Err  error
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("surface acquire failed: %s", e.Kind)
	}
	return fmt.Sprintf("surface acquire failed: %s: %v", e.Kind, e.Err)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}

func (e *SurfaceError) Is(target error) bool {
	return target == ErrSurfaceAcquire
}

// Recoverable reports whether reconfiguring the surface and retrying next frame can succeed.
func (e *SurfaceError) Recoverable() bool {
	return e.Kind == SurfaceErrorLost || e.Kind == SurfaceErrorOutdated || e.Kind == SurfaceErrorTimeout
}

// NewSurfaceError wraps a backend acquire error, classifying it by its message.
//
// Parameters:
//   - err: the error reported by the backend
//
// Returns:
//   - *SurfaceError: the classified error
func NewSurfaceError(err error) *SurfaceError {
	var se *SurfaceError
	if errors.As(err, &se) {
		return se
	}
	return &SurfaceError{Kind: classifySurfaceError(err), Err: err}
}

func classifySurfaceError(err error) SurfaceErrorKind {
	if err == nil {
		return SurfaceErrorUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "outdated"):
		return SurfaceErrorOutdated
	case strings.Contains(msg, "lost"):
		return SurfaceErrorLost
	case strings.Contains(msg, "timeout"):
		return SurfaceErrorTimeout
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		return SurfaceErrorOutOfMemory
	default:
		return SurfaceErrorUnknown
	}
}
