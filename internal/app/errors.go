package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidInput = errors.New("invalid compile request")
	ErrDuplicate    = errors.New("duplicate compile request")
	ErrBackpressure = errors.New("compile queue unavailable")
	ErrJobNotFound  = errors.New("job not found")
)
