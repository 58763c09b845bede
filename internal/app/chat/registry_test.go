package chat

import (
	"reflect"
	"sync"
	"testing"
)

func newBareSession() *Session {
	return newSession(newStubConn(), sessionOptions{queueSize: 4})
}

func TestRegistry_RegisterRejectsDuplicateNickname(t *testing.T) {
	r := NewRegistry()
	alice := newBareSession()
	other := newBareSession()

	if !r.Register(alice, "alice") {
		t.Fatal("first register failed")
	}
	if r.Register(other, "alice") {
		t.Fatal("duplicate nickname registered")
	}
	if other.State() != StateConnected || other.Nickname() != "" {
		t.Fatalf("rejected session changed: state=%s nickname=%q", other.State(), other.Nickname())
	}

	// case-sensitive exact match
	if !r.Register(other, "Alice") {
		t.Fatal("nickname differing in case was rejected")
	}
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()

	s := newBareSession()
	if r.Register(s, "") {
		t.Fatal("empty nickname registered")
	}

	if !r.Register(s, "alice") {
		t.Fatal("register failed")
	}
	if r.Register(s, "alice2") {
		t.Fatal("session registered twice")
	}

	closed := newBareSession()
	closed.Close()
	if r.Register(closed, "bob") {
		t.Fatal("closed session registered")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_ConcurrentRegisterSingleWinner(t *testing.T) {
	r := NewRegistry()

	const contenders = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := newBareSession()
			<-start
			if r.Register(s, "alice") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if got := r.Snapshot(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("Snapshot = %v", got)
	}
}

func TestRegistry_UnregisterFreesNickname(t *testing.T) {
	r := NewRegistry()
	alice := newBareSession()
	r.Register(alice, "alice")

	nickname, ok := r.Unregister(alice)
	if !ok || nickname != "alice" {
		t.Fatalf("Unregister = %q, %v", nickname, ok)
	}
	if _, ok := r.Unregister(alice); ok {
		t.Fatal("second Unregister reported a binding")
	}
	if _, ok := r.Unregister(newBareSession()); ok {
		t.Fatal("Unregister of an unknown session reported a binding")
	}

	if !r.Register(newBareSession(), "alice") {
		t.Fatal("released nickname could not be reused")
	}
}

func TestRegistry_SnapshotSortedAndLookup(t *testing.T) {
	r := NewRegistry()
	sessions := map[string]*Session{}
	for _, nick := range []string{"carol", "alice", "bob"} {
		s := newBareSession()
		sessions[nick] = s
		r.Register(s, nick)
	}

	if got := r.Snapshot(); !reflect.DeepEqual(got, []string{"alice", "bob", "carol"}) {
		t.Fatalf("Snapshot = %v", got)
	}

	s, ok := r.Lookup("bob")
	if !ok || s != sessions["bob"] {
		t.Fatal("Lookup(bob) returned the wrong session")
	}
	if _, ok := r.Lookup("dave"); ok {
		t.Fatal("Lookup(dave) found a session")
	}

	seen := 0
	r.ForEach(func(*Session) { seen++ })
	if seen != 3 {
		t.Fatalf("ForEach visited %d sessions, want 3", seen)
	}

	if got := NewRegistry().Snapshot(); got == nil || len(got) != 0 {
		t.Fatalf("empty Snapshot = %#v, want empty non-nil slice", got)
	}
}
