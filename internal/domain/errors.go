package domain

import "github.com/cwrk-planet/watch-party/pkg/errs"

var (
	ErrRoomNotFound       = errs.New(errs.ErrNotFound, "room not found")
	ErrUsernameRequired   = errs.New(errs.ErrInvalidInput, "username is required")
	ErrMessageRequired    = errs.New(errs.ErrInvalidInput, "username and message are required")
	ErrMessageTooLong     = errs.New(errs.ErrInvalidInput, "message too long")
	ErrRateLimited        = errs.New(errs.ErrRateLimited, "you are sending messages too quickly, please wait before sending another message")
	ErrCodeSpaceExhausted = errs.New(errs.ErrUnavailable, "no free room code")
)
