package model

import "errors"

// Sentinel kinds for malformed domain values.
var (
	ErrUnknownEvent     = errors.New("unknown event name")
	ErrUnknownReference = errors.New("unknown reference type")
	ErrUnknownTiming    = errors.New("unknown prediction timing")
	ErrUnknownRuleKind  = errors.New("unknown league rule kind")
)
