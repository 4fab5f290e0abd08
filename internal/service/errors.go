package service

import "errors"

var (
	// ErrNotFound is returned when an event or competitor does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for requests the service cannot act on
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when creating something that already exists
	ErrConflict = errors.New("already exists")
	// ErrNoData is returned by point queries on a competitor without samples
	ErrNoData = errors.New("no positions")
)
