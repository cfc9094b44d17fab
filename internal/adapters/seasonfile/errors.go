package seasonfile

import "errors"

// Sentinel kinds for season file errors.
var (
	ErrDecode  = errors.New("decode season file")
	ErrInvalid = errors.New("invalid season file")
)
