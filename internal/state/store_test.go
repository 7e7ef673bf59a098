package state

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/portal"
)

func TestStore_SetSessionAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.SetSession(portal.Session{UserID: "7", AuthToken: "tok"})
	s.SetClasses([]byte(`[{"ClassId":"5"}]`))

	snap := s.Snapshot()
	if !snap.HasSession || snap.Session.UserID != "7" {
		t.Fatalf("snapshot session = %#v, want user 7", snap.Session)
	}
	if snap.LoginState != portal.StateAuthenticated {
		t.Fatalf("LoginState = %v, want authenticated", snap.LoginState)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Classes[2] = 'X'
	if got := string(s.Snapshot().Classes); got != `[{"ClassId":"5"}]` {
		t.Fatalf("Snapshot should clone classes; got %s", got)
	}
}

func TestStore_RecordResultErrorKeepsSession(t *testing.T) {
	var s Store
	s.SetSession(portal.Session{UserID: "7", AuthToken: "tok"})
	s.RecordResult(&portal.Ack{StatusCode: 200, Payload: []byte(`"ok"`)}, nil)

	origErr := &portal.TransportError{Op: endpoints.OpSubmitAbsence, Err: errors.New("dial tcp: timeout")}
	s.RecordResult(nil, origErr)
	s.RecordResult(nil, origErr)

	snap := s.Snapshot()
	if !snap.HasSession {
		t.Fatalf("session dropped on error")
	}
	if snap.LastAck == nil || snap.LastAck.StatusCode != 200 {
		t.Fatalf("LastAck = %#v, want previous ack kept", snap.LastAck)
	}
	if !errors.Is(snap.LastError, portal.ErrTransport) {
		t.Fatalf("LastError = %v, want transport error", snap.LastError)
	}
	if snap.ConsecutiveFailures != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2", snap.ConsecutiveFailures)
	}
	if !snap.Offline() {
		t.Fatalf("Offline() = false, want true after transport failure")
	}

	s.RecordResult(&portal.Ack{StatusCode: 200}, nil)
	snap = s.Snapshot()
	if snap.LastError != nil || snap.ConsecutiveFailures != 0 {
		t.Fatalf("success did not reset error state: %#v", snap)
	}
}

func TestStore_ClearAndLoginState(t *testing.T) {
	var s Store
	s.SetLoginState(portal.StateProbing, "/Login")
	if snap := s.Snapshot(); snap.LoginState != portal.StateProbing || snap.LoginPath != "/Login" {
		t.Fatalf("snapshot = %#v, want probing /Login", snap)
	}

	s.SetSession(portal.Session{UserID: "7", AuthToken: "tok"})
	s.Clear()
	if snap := s.Snapshot(); snap.HasSession || snap.LoginState != portal.StateUnauthenticated {
		t.Fatalf("Clear left %#v", snap)
	}
}
