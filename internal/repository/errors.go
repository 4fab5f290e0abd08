package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when a row with the same key already exists
var ErrConflict = errors.New("already exists")

func isConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
