package errors

import "fmt"

var (
	ErrEmptyUsername     = fmt.Errorf("username cannot be empty")
	ErrDuplicateUsername = fmt.Errorf("username is already in use")
	ErrAlreadyRegistered = fmt.Errorf("connection already registered")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrInvalidPayload    = fmt.Errorf("invalid payload")
	ErrUnknownEvent      = fmt.Errorf("unknown event")
	ErrUnknownStore      = fmt.Errorf("unknown store backend")
)
