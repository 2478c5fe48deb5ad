package errors

import "errors"

// Taxonomy of failures crossing the service boundary. Handlers map these
// onto HTTP status codes and a uniform response envelope; services wrap
// them with fmt.Errorf("...: %w", err) to add context.

var ErrValidation = errors.New("malformed request")
var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")
var ErrNotFound = errors.New("resource not found")

// State errors: the ticket or booking exists but is not in a state that
// permits the requested transition.
var ErrAlreadyCancelled = errors.New("ticket is already cancelled")
var ErrAlreadyUsed = errors.New("ticket is already used")
var ErrShowStarted = errors.New("show has already started")
var ErrShowEnded = errors.New("show has ended")

// ErrInvalidQR covers every token decryption and parse failure. Crypto
// internals are never exposed to a scanning client, so all of them
// collapse into this one error.
var ErrInvalidQR = errors.New("invalid QR code")
