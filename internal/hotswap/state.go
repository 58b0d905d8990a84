package hotswap

// State is a step of the swap state machine.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCapturingState
	StateBuffering
	StateDestroying
	StateConstructing
	StateRestoring
	StateReplaying
	StateCompleted
	StateRolledBack
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateValidating:     "validating",
	StateCapturingState: "capturing-state",
	StateBuffering:      "buffering",
	StateDestroying:     "destroying",
	StateConstructing:   "constructing",
	StateRestoring:      "restoring",
	StateReplaying:      "replaying",
	StateCompleted:      "completed",
	StateRolledBack:     "rolled-back",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s ends a swap.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateRolledBack || s == StateFailed
}

// Busy reports whether a swap is running in s.
func (s State) Busy() bool {
	return s != StateIdle && !s.Terminal()
}

// Cancellable reports whether Cancel is honored in s.
func (s State) Cancellable() bool {
	return s == StateValidating || s == StateCapturingState
}

// Destructive reports whether the old window may already be destroyed in s.
func (s State) Destructive() bool {
	return s >= StateDestroying && s <= StateReplaying
}

// Status is the terminal result reported to the caller.
type Status int

const (
	StatusCompleted Status = iota
	StatusRolledBack
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusRolledBack:
		return "rolled-back"
	default:
		return "failed"
	}
}
