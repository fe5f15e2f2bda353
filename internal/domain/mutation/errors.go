package mutation

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied indicates the cached permissions refuse the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrReducerMiss indicates the card or list is not in the local snapshot.
	ErrReducerMiss = errors.New("entity not found in local board state")
	// ErrStaleToken indicates a response arrived for a superseded operation.
	ErrStaleToken = errors.New("operation token is no longer active")
	// ErrBoardNotLoaded indicates the board has no local snapshot yet.
	ErrBoardNotLoaded = errors.New("board not loaded")
	// ErrInvalidInput indicates invalid arguments for a mutation.
	ErrInvalidInput = errors.New("invalid mutation input")
	// ErrClosed indicates the service has been closed.
	ErrClosed = errors.New("mutation service closed")
)

// Error is a failed mutation. Token is empty when the operation never
// reached the optimistic stage.
type Error struct {
	Op    string
	Token string
	Err   error
}

func (e *Error) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Token, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
