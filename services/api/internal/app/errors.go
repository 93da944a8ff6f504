package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	// ErrUserDisabled is returned when an account is disabled.
	// Handlers should generally NOT expose this to clients to avoid account enumeration.
	ErrUserDisabled = errors.New("user disabled")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrNameRequired             = errors.New("name required")
	ErrEmailAlreadyExists       = errors.New("email already exists")

	ErrNewPasswordRequired     = errors.New("new password required")
	ErrCurrentPasswordRequired = errors.New("current password required")

	ErrVerseNotFound      = errors.New("verse not found")
	ErrReflectionNotFound = errors.New("reflection not found")
	ErrReflectionRequired = errors.New("reflection text required")
	ErrProfileNotFound    = errors.New("profile not found")

	ErrProRequired = errors.New("pro subscription required")
	ErrNoCustomer  = errors.New("no payment customer on file")

	ErrGenerationDisabled = errors.New("verse generation is not configured")
	ErrQueueDisabled      = errors.New("generation queue is not configured")
	ErrPhotosDisabled     = errors.New("photo storage is not configured")
)
