package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Messaging errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyContent         = errors.New("message content is empty")
	ErrSelfMessage          = errors.New("cannot send a message to yourself")

	// Collaborator errors
	ErrPetNotFound  = errors.New("pet not found")
	ErrUserNotFound = errors.New("user not found")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Reserved for idempotency-key resubmission
	ErrConflict = errors.New("conflict")

	// Transient errors (network/timeout), retryable by callers
	ErrTransient = errors.New("transient failure")
)

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrSelfMessage)
}

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConversationNotFound) ||
		errors.Is(err, ErrPetNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotParticipant)
}
