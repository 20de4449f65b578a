package errors

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileRequired = errors.New("user has no profile data to match on")
	ErrChannelCreation = errors.New("channel creation failed")
)
