package state

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/five82/regsync/internal/portal"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Session             portal.Session
	HasSession          bool
	LoginState          portal.State
	LoginPath           string // path being probed, or the one that authenticated
	Classes             json.RawMessage
	LastAck             *portal.Ack
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int
}

// Offline reports whether the last failure was a transport failure.
func (s Snapshot) Offline() bool {
	return s.LastError != nil && portal.IsTransport(s.LastError)
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetLoginState records a login state transition.
func (s *Store) SetLoginState(st portal.State, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LoginState = st
	s.snapshot.LoginPath = path
	s.snapshot.LastUpdated = time.Now()
}

// SetSession stores a fresh session after a successful login.
func (s *Store) SetSession(sess portal.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Session = sess
	s.snapshot.HasSession = true
	s.snapshot.LoginState = portal.StateAuthenticated
	s.snapshot.Classes = nil
	s.snapshot.LastAck = nil
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetClasses stores the class list returned by the registry.
func (s *Store) SetClasses(classes json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Classes = cloneRaw(classes)
	s.snapshot.LastUpdated = time.Now()
}

// RecordResult stores the outcome of an operation. When err is non-nil the
// previous data is kept but the error is recorded for visibility.
func (s *Store) RecordResult(ack *portal.Ack, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	if ack != nil {
		dup := *ack
		dup.Payload = cloneRaw(ack.Payload)
		s.snapshot.LastAck = &dup
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Clear forgets the session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{LastUpdated: time.Now()}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Classes = cloneRaw(s.snapshot.Classes)
	if s.snapshot.LastAck != nil {
		dup := *s.snapshot.LastAck
		dup.Payload = cloneRaw(s.snapshot.LastAck.Payload)
		snap.LastAck = &dup
	}
	return snap
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	dup := make(json.RawMessage, len(raw))
	copy(dup, raw)
	return dup
}
