package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/rpggio/kanbansync/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func invalid(field, message string) error {
	return repository.NewValidationError(field, message)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
