package identity

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotLoggedIn indicates no acting user is set.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidInput indicates invalid input for identity operations.
	ErrInvalidInput = errors.New("invalid identity input")
)
