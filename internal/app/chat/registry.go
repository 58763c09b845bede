package chat

import (
	"sort"
	"sync"
)

// Registry maps authenticated sessions to their nicknames and back.
// A nickname is held by at most one session and the empty nickname is never registered.
type Registry struct {
	// mu guards both maps; broadcast iteration holds it too.
	mu         sync.RWMutex
	bySession  map[*Session]string
	byNickname map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		bySession:  make(map[*Session]string),
		byNickname: make(map[string]*Session),
	}
}

// Register binds nickname to s. It fails when the nickname is empty or taken, or when s
// already holds a nickname or has been released. The session is moved to StateAuthenticated
// under the registry lock, so no observer sees one without the other.
func (r *Registry) Register(s *Session, nickname string) bool {
	if nickname == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNickname[nickname]; taken {
		return false
	}
	if _, bound := r.bySession[s]; bound {
		return false
	}
	if !s.authenticate(nickname) {
		return false
	}

	r.bySession[s] = nickname
	r.byNickname[nickname] = s
	return true
}

// Unregister releases the nickname held by s. It reports false for sessions that were never
// registered, or were already unregistered.
func (r *Registry) Unregister(s *Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nickname, ok := r.bySession[s]
	if !ok {
		return "", false
	}

	delete(r.bySession, s)
	if r.byNickname[nickname] == s {
		delete(r.byNickname, nickname)
	}
	return nickname, true
}

// Snapshot returns the registered nicknames in ascending order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	nicknames := make([]string, 0, len(r.byNickname))
	for nickname := range r.byNickname {
		nicknames = append(nicknames, nickname)
	}
	r.mu.RUnlock()

	sort.Strings(nicknames)
	return nicknames
}

// Lookup returns the session holding nickname.
func (r *Registry) Lookup(nickname string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byNickname[nickname]
	return s, ok
}

// Len returns the number of registered nicknames.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNickname)
}

// ForEach calls fn for every registered session while holding the registry lock.
// fn must not call back into the Registry.
func (r *Registry) ForEach(fn func(*Session)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.bySession {
		fn(s)
	}
}
