// Package common defines shared sentinel errors and small helpers used across
// the storage, service and transport layers. Callers should use errors.Is to
// match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrorValidation     = errors.New("validation error")
	ErrAlreadyConfirmed = errors.New("email already confirmed")
)
