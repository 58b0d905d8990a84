package hotswap

import "errors"

var (
	// ErrInvalidTarget is reported when the target backend is unknown or
	// lacks a required feature.
	ErrInvalidTarget = errors.New("invalid swap target")
	// ErrSwapInProgress rejects a request while another one is queued or
	// running.
	ErrSwapInProgress = errors.New("swap already in progress")
	// ErrEventBufferOverflow is reported when more events arrived during a
	// swap than the buffer can hold.
	ErrEventBufferOverflow = errors.New("event buffer overflow")
	// ErrTimeout is reported when the swap budget was exceeded.
	ErrTimeout = errors.New("swap timed out")
	// ErrUnrecoverable means both target and rollback construction failed
	// and no window exists.
	ErrUnrecoverable = errors.New("unrecoverable swap failure: no window")
	ErrCancelled     = errors.New("swap cancelled")
	ErrCaptureFailed = errors.New("window state capture failed")
	ErrNotStarted    = errors.New("orchestrator has no window")
	// ErrNotCancellable is returned by Cancel once the old window may
	// already be gone.
	ErrNotCancellable = errors.New("swap cannot be cancelled in its current state")
	ErrAlreadyStarted = errors.New("orchestrator already started")
)
