package service

import (
	"errors"
)

// Sentinel error kinds returned by the core services. Callers match with
// errors.Is and surface the wrapped message; the API layer maps kinds to
// status codes without re-deriving state.
var (
	// ErrNotFound indicates an unknown session or identity
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates a role guard failure
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates a transition guard failure
	ErrInvalidState = errors.New("invalid state")

	// ErrNoEligibleCandidates indicates a draw attempted with zero eligible tickets
	ErrNoEligibleCandidates = errors.New("no eligible candidates")

	// ErrAmbiguousOverrideTarget indicates an override input resolving to
	// zero or multiple candidates
	ErrAmbiguousOverrideTarget = errors.New("ambiguous override target")
)
