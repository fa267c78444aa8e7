package service

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("operation not allowed in current post status")
	ErrPostImmutable     = errors.New("published posts cannot be modified")
	ErrPastScheduleTime  = errors.New("scheduled time must be in the future")
	ErrNoTargets         = errors.New("post has no resolvable target accounts")
	ErrInvalidInput      = errors.New("invalid input")
)
