package errors

// Kind is a machine-readable failure category attached to every error
// that crosses a package boundary into the HTTP layer.
type Kind string

const (
	// InvalidInput is a schema or range violation at the request boundary.
	InvalidInput Kind = "invalid_input"

	// NotFound is a referenced entity that does not exist.
	NotFound Kind = "not_found"

	// Unauthorized is a missing or invalid credential.
	Unauthorized Kind = "unauthorized"

	// Forbidden is a valid credential without the required role.
	Forbidden Kind = "forbidden"

	// Conflict is a unique constraint violation or a state incompatible
	// with the requested operation (e.g. already paid).
	Conflict Kind = "conflict"

	// InsufficientFunds is a wallet debit that would take the balance
	// below zero.
	InsufficientFunds Kind = "insufficient_funds"

	// Contention is a storage transaction that exhausted its retry
	// budget under concurrent writers.
	Contention Kind = "contention"

	// Blocked is an operation attempted by a rider whose
	// paymentBlocked or deactivated flag is set.
	Blocked Kind = "blocked"

	// Timeout is a deadline exceeded before the operation completed.
	Timeout Kind = "timeout"

	// Internal is an uncategorized failure; treated as a bug to fix,
	// not a condition callers should branch on.
	Internal Kind = "internal"
)

// Retryable reports whether a client encountering this Kind should
// retry the request, optionally after a backoff.
func (k Kind) Retryable() bool {
	switch k {
	case Contention, Timeout:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a Kind to the HTTP status code the wire boundary
// writes for it.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput:
		return 400
	case Unauthorized:
		return 401
	case Forbidden, Blocked:
		return 403
	case NotFound:
		return 404
	case Conflict, InsufficientFunds:
		return 409
	case Contention:
		return 503
	case Timeout:
		return 504
	default:
		return 500
	}
}
