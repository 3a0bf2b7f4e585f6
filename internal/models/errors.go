package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied is returned when the acting user is neither an admin
	// nor a party to the shipment they are trying to read.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials is returned on login when the phone/role pair is
	// unknown or the password does not match. The two cases are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidTransition is returned when a lifecycle operation is attempted
	// against a shipment whose current status does not allow it.
	ErrInvalidTransition = errors.New("invalid shipment status transition")

	// ErrNoRouteRule is returned by the pricing resolver when no rule exists
	// for the exact ordered (origin, destination) city pair.
	ErrNoRouteRule = errors.New("no pricing rule found for this route")

	// ErrDuplicateRule is returned when creating or updating a pricing rule
	// would leave two rules for the same ordered city pair.
	ErrDuplicateRule = errors.New("a pricing rule for this route already exists")

	// ErrPhoneInUse is returned when registering or creating a user with a
	// phone number that already belongs to an account.
	ErrPhoneInUse = errors.New("phone number already in use")
)

// ValidationError reports missing or malformed input. It maps to a 400
// response and no state change.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) error { return &ValidationError{Message: msg} }

// ConflictError reports a referential-integrity block, e.g. deleting a city
// that a hub still points at. It maps to a 400 response.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError builds a ConflictError with the given message.
func NewConflictError(msg string) error { return &ConflictError{Message: msg} }
