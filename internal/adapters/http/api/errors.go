package api

import "errors"

// ErrMethodNotAllowed is reported for non-GET requests to read-only routes.
var ErrMethodNotAllowed = errors.New("method not allowed")
