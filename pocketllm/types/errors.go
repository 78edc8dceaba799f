// pocketllm/types/errors.go
package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the cache/session core and the portal surface.
//
// Read paths degrade: a missing value comes back as an absent result, and a
// failed backend read surfaces ErrBackendUnavailable alongside the best
// available local data. Write paths (create, delete, clear, send) always
// propagate so the caller knows the authoritative operation did not happen.
var (
	// ErrBackendUnavailable covers transport-level failures: network errors,
	// timeouts, 5xx responses without a structured body.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNotFound reports an absent session or message on paths that must
	// signal absence as an error (HTTP 404 mapping, ownership checks).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput reports an empty or malformed conversation before any
	// remote call is attempted.
	ErrInvalidInput = errors.New("invalid input")
)

// RemoteError carries a defined rejection from the backend (auth failure,
// rate limit, validation error) with the backend's message intact.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote rejected (%d): %s", e.StatusCode, e.Message)
}

// AsRemoteError unwraps err into a RemoteError if one is in the chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
