package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the ledger and by Store implementations.
// Handlers compare them with errors.Is and map them to HTTP statuses.
var (
	ErrInvalidLayout    = errors.New("invalid spot layout")
	ErrBuildingNotFound = errors.New("building not found")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrSpotOccupied     = errors.New("spot already occupied")
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrSessionNotFound  = errors.New("parking session not found")
	ErrForbidden        = errors.New("forbidden")

	// ErrCodeTaken is returned by a Store when the release code is already
	// held by another active session.  The ledger retries with a new code.
	ErrCodeTaken = errors.New("release code already in use")
	// ErrCodeExhausted means every retry produced a colliding code.
	ErrCodeExhausted = errors.New("could not allocate a release code")
)

// AuthorizationError reports an operation attempted by an actor whose
// role does not allow it.  It unwraps to ErrForbidden.
type AuthorizationError struct {
	Op      string
	Role    string
	Allowed []string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: role %q not allowed (want %s)", e.Op, e.Role, strings.Join(e.Allowed, " or "))
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }
