package repository

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLimit = errors.New("invalid standings limit")
	ErrInvalidInput = errors.New("invalid standings input")
)
