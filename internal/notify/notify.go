// Package notify provides the one-shot signal telling an application that
// its graphics context was recreated and dependent resources must be rebuilt.
package notify

import "sync"

// Notifier is armed after every successful window construction and consumed
// by the application. Arms that land before a Consume collapse into one
// signal for the newest context.
type Notifier struct {
	mu       sync.Mutex
	armed    uint64
	consumed uint64
}

// Arm records a new context generation and returns it.
func (n *Notifier) Arm() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.armed++
	return n.armed
}

// Consume reports true once per armed generation.
func (n *Notifier) Consume() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.consumed == n.armed {
		return false
	}
	n.consumed = n.armed
	return true
}

// Pending reports whether an armed generation has not been consumed yet.
func (n *Notifier) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.consumed != n.armed
}

// Generation is the number of times Arm has been called.
func (n *Notifier) Generation() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.armed
}
