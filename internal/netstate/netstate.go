// Package netstate carries the host environment's connectivity signal into
// the core. The core never probes the network itself; the host observes
// online/offline transitions and reports them here.
package netstate

import "sync"

// Monitor is the connectivity observation consumed by the sync engine.
type Monitor interface {
	// Online reports the current connectivity observation.
	Online() bool

	// Changes delivers connectivity transitions: true for offline->online,
	// false for online->offline.
	Changes() <-chan bool
}

// Tracker is a Monitor the host flips as its environment reports
// connectivity events. Starts online.
type Tracker struct {
	mu      sync.Mutex
	online  bool
	changes chan bool
}

// NewTracker creates a Tracker in the online state.
func NewTracker() *Tracker {
	return &Tracker{
		online:  true,
		changes: make(chan bool, 16),
	}
}

// Online reports the current connectivity observation.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// Changes delivers connectivity transitions.
func (t *Tracker) Changes() <-chan bool {
	return t.changes
}

// SetOnline records a connectivity observation. Only actual transitions are
// delivered; repeated observations of the same state are dropped, as is any
// transition the consumer has not caught up with (the consumer re-reads
// Online() when it handles one).
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.online == online {
		return
	}
	t.online = online

	select {
	case t.changes <- online:
	default:
	}
}
