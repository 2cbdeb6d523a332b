package domain

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrProvider             = errors.New("content provider failed")
	ErrNotFound             = errors.New("article not found")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)
