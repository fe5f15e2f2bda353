package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/kanbansync/internal/domain/identity"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL with the error text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *repository.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Code: "VALIDATION_FAILED", Message: verr.FirstMessage(), Details: verr.Fields, RecoveryHint: "Fix the named fields and retry"}
	case errors.Is(err, mutation.ErrPermissionDenied):
		return &APIError{Code: "PERMISSION_DENIED", Message: "your role on this board does not allow this", RecoveryHint: "Check get_permissions"}
	case errors.Is(err, mutation.ErrReducerMiss):
		return &APIError{Code: "STALE_VIEW", Message: "entity not in the local board; a refetch was started", RecoveryHint: "Call get_board and retry"}
	case errors.Is(err, mutation.ErrInvalidInput), errors.Is(err, identity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, mutation.ErrBoardNotLoaded):
		return &APIError{Code: "BOARD_NOT_LOADED", Message: "board not loaded", RecoveryHint: "Call get_board first"}
	case errors.Is(err, mutation.ErrClosed):
		return &APIError{Code: "SHUTTING_DOWN", Message: "server is shutting down"}
	case errors.Is(err, identity.ErrUserNotFound):
		return &APIError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, identity.ErrNotLoggedIn):
		return &APIError{Code: "NOT_LOGGED_IN", Message: "no acting user", RecoveryHint: "Call switch_user"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "not found", RecoveryHint: "Call get_board to refresh ids"}
	case errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "modified concurrently", RecoveryHint: "Call get_board with refresh and retry"}
	case errors.Is(err, repository.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "the store refused the operation"}
	case errors.Is(err, repository.ErrNetwork):
		return &APIError{Code: "NETWORK_ERROR", Message: "store unreachable", RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}
