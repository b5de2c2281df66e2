package api

import (
	"errors"
	"fmt"
)

var (
	// ErrOffline means the request never reached the server: the caller
	// can be sure the operation was not applied.
	ErrOffline = errors.New("server unreachable")

	// ErrAmbiguous means the request may have reached the server but no
	// response was observed: the operation may or may not have been
	// applied. Callers dedup by remote id on the next pass.
	ErrAmbiguous = errors.New("request outcome unknown")

	// ErrUnauthorized is returned on a 401. The stored token has already
	// been cleared by the time the caller sees this.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is any non-2xx response other than 401.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// ServerSide reports whether the failure came from the server rather than
// from the request itself (5xx vs 4xx). Login and registration surface
// this distinction to the user.
func (e *StatusError) ServerSide() bool {
	return e.Code >= 500
}
