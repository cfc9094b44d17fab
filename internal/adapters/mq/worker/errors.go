package worker

import "errors"

// ErrStopped is reported for queued jobs a forced shutdown never ran.
var ErrStopped = errors.New("worker pool stopped before job ran")
