package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidKind     = errors.New("invalid refresh kind")
	ErrRefreshInFlight = errors.New("refresh already in flight")
	ErrQueueSaturated  = errors.New("refresh queue saturated")
)
