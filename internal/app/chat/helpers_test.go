package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"linechat/internal/app/protocol"
)

// stubConn is a Conn that never delivers input; tests read a session's queue directly.
type stubConn struct {
	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
	writes [][]byte
}

func newStubConn() *stubConn {
	return &stubConn{closed: make(chan struct{})}
}

func (c *stubConn) ReadLine() ([]byte, error) {
	<-c.closed
	return nil, ErrSessionClosed
}

func (c *stubConn) WriteLine(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), line...))
	return nil
}

func (c *stubConn) SetReadDeadline(time.Time) error  { return nil }
func (c *stubConn) SetWriteDeadline(time.Time) error { return nil }
func (c *stubConn) RemoteAddr() string               { return "127.0.0.1:40000" }

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	srv := NewServer(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return srv
}

// addSession creates a live session whose goroutines are not started.
func addSession(t *testing.T, srv *Server, queueSize int) *Session {
	t.Helper()

	sess := newSession(newStubConn(), sessionOptions{queueSize: queueSize})
	srv.mu.Lock()
	srv.sessions[sess] = struct{}{}
	srv.mu.Unlock()
	return sess
}

func login(t *testing.T, srv *Server, sess *Session, nickname string) {
	t.Helper()

	srv.handleEvent(inboundEvent{session: sess, msg: protocol.Login(nickname)})
	if sess.State() != StateAuthenticated {
		t.Fatalf("login %q: state = %s, want authenticated", nickname, sess.State())
	}
}

// drain returns every message queued for sess so far.
func drain(t *testing.T, sess *Session) []protocol.Message {
	t.Helper()

	var out []protocol.Message
	for {
		select {
		case line := <-sess.send:
			msg, err := protocol.Decode(line)
			if err != nil {
				t.Fatalf("queued line %q does not decode: %v", line, err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func expectMessages(t *testing.T, sess *Session, want ...protocol.Message) {
	t.Helper()

	got := drain(t, sess)
	if len(got) != len(want) {
		t.Fatalf("got %d messages %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if !equalMessage(got[i], want[i]) {
			t.Fatalf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func equalMessage(a, b protocol.Message) bool {
	if a.Type != b.Type || a.Nickname != b.Nickname || a.Reason != b.Reason ||
		a.Sender != b.Sender || a.Message != b.Message || len(a.Users) != len(b.Users) {
		return false
	}
	for i := range a.Users {
		if a.Users[i] != b.Users[i] {
			return false
		}
	}
	return true
}
