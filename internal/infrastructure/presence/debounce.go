package presence

import (
	"sync"
	"time"
)

type pendingLeave struct {
	timer       *time.Timer
	fingerprint string
	sessionID   string
	fire        func()
}

// RelayDebouncer delays relay leave announcements so that a relay restart
// does not churn every connected peer.
//
// A leave is held for the debounce window. If the same relay rejoins with
// an unchanged credential fingerprint inside the window, the leave is
// dropped entirely. If it rejoins with a different fingerprint, the held
// leave fires immediately so peers tear down the stale credentials before
// the new join is announced.
type RelayDebouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingLeave
}

// NewRelayDebouncer creates a debouncer with the given hold window.
func NewRelayDebouncer(window time.Duration) *RelayDebouncer {
	return &RelayDebouncer{
		window:  window,
		pending: make(map[string]*pendingLeave),
	}
}

// Leave schedules the leave announcement for the key. A previously held
// leave for the same key fires first, since two distinct connections have
// now gone away. sessionID names the presence entry the leave would
// release; a silent rejoin takes it over instead.
func (d *RelayDebouncer) Leave(key, fingerprint, sessionID string, fire func()) {
	d.mu.Lock()
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		delete(d.pending, key)
		d.mu.Unlock()
		prev.fire()
		d.mu.Lock()
	}

	entry := &pendingLeave{fingerprint: fingerprint, sessionID: sessionID, fire: fire}
	entry.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.pending[key] != entry {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fire()
	})
	d.pending[key] = entry
	d.mu.Unlock()
}

// Join records that the key reconnected and reports whether the caller
// should announce the join. A rejoin that cancels a held leave with the
// same fingerprint is invisible to peers: Join returns the held session ID
// and false, and the caller must rebind to that presence entry so the
// dropped leave never orphans it. In every other case the join must be
// announced, and any held leave with a different fingerprint has already
// fired by the time Join returns.
func (d *RelayDebouncer) Join(key, fingerprint string) (string, bool) {
	d.mu.Lock()
	entry, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return "", true
	}

	entry.timer.Stop()
	delete(d.pending, key)
	d.mu.Unlock()

	if entry.fingerprint == fingerprint {
		return entry.sessionID, false
	}
	entry.fire()
	return "", true
}

// Flush fires every held leave immediately. Used on shutdown so peers are
// not left waiting out the window.
func (d *RelayDebouncer) Flush() {
	d.mu.Lock()
	entries := make([]*pendingLeave, 0, len(d.pending))
	for key, entry := range d.pending {
		entry.timer.Stop()
		entries = append(entries, entry)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, entry := range entries {
		entry.fire()
	}
}
