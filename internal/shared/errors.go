package shared

import "errors"

var (
	// ErrNotFound reports a missing account or record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing reports a state-changing request without a token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch reports a token not issued for the current session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
