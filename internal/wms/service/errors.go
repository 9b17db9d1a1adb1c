package service

import "errors"

// Service-level sentinels. Handlers map these onto HTTP statuses with
// errors.Is; repository.ErrNotFound plays the not-found role.
var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
)
