/*
Package chat contains the server side of the line-based chat protocol: sessions, the nickname
registry, the broadcaster and the server core that drives them.

This file defines the Session struct, the server-side handle of one live connection. A session
owns a reader goroutine that decodes inbound lines and posts them to the server's event queue,
and a writer goroutine that drains a bounded outbound queue, so a slow peer only stalls itself.
*/
package chat

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"linechat/internal/app/protocol"
	"linechat/internal/pkg/logx"
	"linechat/internal/pkg/randx"
)

// State is the position of a session in its lifecycle.
type State int

const (
	// StateConnected is a live session that has not logged in yet.
	StateConnected State = iota

	// StateAuthenticated is a session holding a registered nickname.
	StateAuthenticated

	// StateClosed is a released session.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var (
	// ErrSessionClosed is returned when sending to a session that has been released.
	ErrSessionClosed = errors.New("chat: session closed")

	// ErrSendQueueFull is returned when a session's outbound queue is full (slow consumer).
	ErrSendQueueFull = errors.New("chat: session send queue full")
)

// sessionOptions carries the per-connection limits taken from the server Config.
type sessionOptions struct {
	queueSize   int
	writeWait   time.Duration
	idleTimeout time.Duration
}

// Session is the server-side state of one client connection.
type Session struct {
	// ID identifies the session in logs for its whole lifetime.
	ID string

	// underlying line transport.
	conn Conn

	// a buffered channel of encoded lines waiting to be written.
	send chan []byte

	// closed by Close; stops both goroutines.
	done      chan struct{}
	closeOnce sync.Once

	// mu protects nickname and state.
	mu       sync.RWMutex
	nickname string
	state    State

	writeWait   time.Duration
	idleTimeout time.Duration

	// structured logger with session context.
	logger zerolog.Logger
}

func newSession(conn Conn, opts sessionOptions) *Session {
	id := randx.SessionID()

	return &Session{
		ID:          id,
		conn:        conn,
		send:        make(chan []byte, opts.queueSize),
		done:        make(chan struct{}),
		state:       StateConnected,
		writeWait:   opts.writeWait,
		idleTimeout: opts.idleTimeout,
		logger: logx.Logger().With().
			Str("component", "session").
			Str("session_id", id).
			Str("remote_ip", logx.AnonymizeIP(conn.RemoteAddr())).
			Logger(),
	}
}

// Nickname returns the registered nickname, or "" before login.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Done is closed once the session has been released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// authenticate binds nickname and moves Connected to Authenticated. It succeeds at most once.
func (s *Session) authenticate(nickname string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected || s.nickname != "" {
		return false
	}
	s.nickname = nickname
	s.state = StateAuthenticated
	return true
}

// Send encodes m and queues it for this session.
func (s *Session) Send(m protocol.Message) error {
	line, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return s.SendEncoded(line)
}

// SendEncoded queues an already encoded line. It never blocks: a full queue yields
// ErrSendQueueFull and a released session ErrSessionClosed.
func (s *Session) SendEncoded(line []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- line:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSendQueueFull
	}
}

// Close releases the transport and stops the session goroutines. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()

		close(s.done)

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Transport close error.")
		}
	})
}

// writeLoop drains the outbound queue until the session is released or a write fails.
func (s *Session) writeLoop() {
	for {
		select {
		case line := <-s.send:
			if s.writeWait > 0 {
				if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil {
					s.logger.Warn().Err(err).Msg("Failed to set write deadline.")
					s.Close()
					return
				}
			}

			if err := s.conn.WriteLine(line); err != nil {
				if !s.isClosed() {
					s.logger.Warn().Err(err).Msg("Write failed, closing session.")
				}
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// readLoop reads lines until the transport fails, posting decoded messages through post.
// Undecodable lines are logged and discarded. It always ends with exactly one closed event.
func (s *Session) readLoop(post func(inboundEvent) bool) {
	defer func() {
		s.Close()
		post(inboundEvent{session: s, closed: true})
	}()

	for {
		if s.idleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to set read deadline.")
				return
			}
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			s.logReadError(err)
			return
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			var decErr *protocol.DecodeError
			kind := "malformed"
			if errors.As(err, &decErr) {
				kind = decErr.Kind.String()
			}
			DecodeErrorsTotal.WithLabelValues(kind).Inc()

			s.logger.Warn().Err(err).
				Int("line_bytes", len(line)).
				Msg("Discarding undecodable line.")
			continue
		}

		if !post(inboundEvent{session: s, msg: msg}) {
			return
		}
	}
}

func (s *Session) logReadError(err error) {
	var netErr net.Error

	switch {
	case s.isClosed():
		s.logger.Debug().Msg("Reader stopped after session close.")
	case errors.Is(err, io.EOF):
		s.logger.Info().Msg("Peer closed the connection.")
	case errors.As(err, &netErr) && netErr.Timeout():
		s.logger.Info().Dur("idle_timeout", s.idleTimeout).Msg("Session idle timeout reached.")
	default:
		s.logger.Warn().Err(err).Msg("Read failed, closing session.")
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// deliver queues line for s. A slow consumer is disconnected so it cannot hold back others;
// its own close event then drives the regular disconnect handling.
func deliver(s *Session, line []byte) bool {
	err := s.SendEncoded(line)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSendQueueFull):
		SlowConsumerDisconnects.Inc()
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Send queue full, disconnecting slow consumer.")
		go s.Close()
	default:
		s.logger.Debug().Err(err).Msg("Dropped message for released session.")
	}
	return false
}

// sendTo encodes m and delivers it to a single session.
func sendTo(s *Session, m protocol.Message) bool {
	line, err := protocol.Encode(m)
	if err != nil {
		s.logger.Error().Err(err).Str("msg_type", string(m.Type)).Msg("Failed to encode message.")
		return false
	}
	return deliver(s, line)
}
