package shared

import "errors"

// Cross-domain sentinel errors.
var (
	// ErrNotFound - the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoIdentity - the operation requires an authenticated learner.
	ErrNoIdentity = errors.New("no learner identity established")

	// ErrUnauthorized - the remote store rejected our credentials.
	// Terminal for the attempt; there is no refresh flow.
	ErrUnauthorized = errors.New("unauthorized")
)
