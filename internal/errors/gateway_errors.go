package errors

import "errors"

var (
	ErrProtocol             = errors.New("malformed or unrecognized packet")
	ErrAuthentication       = errors.New("authentication failed")
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
	ErrNotAuthenticated     = errors.New("connection not authenticated")
	ErrConnectionClosed     = errors.New("connection closed")
	ErrSlowConsumer         = errors.New("send buffer full")
)
