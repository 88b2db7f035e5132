package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto HTTP codes;
// ownership failures are reported as not-found so unauthorised callers learn
// nothing about what exists.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)
