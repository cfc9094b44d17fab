package metrics

import "errors"

// Error kinds used as the "kind" label of compile and component errors.
const (
	KindValidation = "validation"
	KindRule       = "rule"
	KindQueue      = "queue"
	KindStore      = "store"
	KindInternal   = "internal"
)

// ErrDisabled is returned by CollectSystem when recording is off.
var ErrDisabled = errors.New("metrics disabled")
