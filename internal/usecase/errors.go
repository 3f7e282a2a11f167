package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMemberEliminated     = errors.New("member is eliminated")
	ErrConfirmationRequired = errors.New("confirmation required")
)
