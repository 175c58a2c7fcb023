package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrRequestFilled  = errors.New("staffing request already filled")
	ErrAlreadyDecided = errors.New("log entry already decided")
)
