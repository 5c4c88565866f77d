package syncstate

import "errors"

// Sentinel errors for the sync-state service layer.
var (
	ErrInvalidQuery    = errors.New("invalid sync query")
	ErrLeadNotFound    = errors.New("lead not found")
	ErrNoDispatcher    = errors.New("no dispatcher for platform")
	ErrReconcileLocked = errors.New("reconcile already running on another instance")
)
