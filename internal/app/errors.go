package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	// ErrUnknownUser is returned when an operation targets a user ID that is
	// not registered. Deleted or never-registered IDs are indistinguishable.
	ErrUnknownUser = errors.New("user not found")

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrEmailInvalid       = errors.New("valid email required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrNameRequired       = errors.New("name required")
	ErrBioTooLong         = errors.New("bio must be at most 500 characters")

	ErrSelfMessage    = errors.New("cannot message yourself")
	ErrEmptyContent   = errors.New("message content required")
	ErrContentTooLong = errors.New("message content too long")

	ErrTripNotFound      = errors.New("trip not found")
	ErrTripTitleRequired = errors.New("trip title required")
	ErrTripDatesRequired = errors.New("trip destination and start date required")
)
