/*
Package chat contains the server side of the line-based chat protocol: sessions, the nickname
registry, the broadcaster and the server core that drives them.

This file defines the Server struct, which accepts connections, applies admission control,
and owns the inbound-event queue consumed by the single dispatch goroutine.
*/
package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"linechat/internal/app/protocol"
	"linechat/internal/pkg/errs"
	"linechat/internal/pkg/limiter"
	"linechat/internal/pkg/logx"
)

const (
	defaultSendQueueSize  = 256
	defaultEventQueueSize = 1024
	defaultMaxLineBytes   = 8192
	defaultMaxNicknameLen = 32

	// maxAcceptBackoff caps the retry delay after temporary Accept errors.
	maxAcceptBackoff = time.Second
)

// ErrServerClosed is returned by Attach and Serve once Shutdown has been called.
var ErrServerClosed = errors.New("chat: server closed")

// Config holds the limits applied by a Server. Zero values fall back to defaults,
// except MaxSessions, WriteTimeout and IdleTimeout where zero disables the limit.
type Config struct {
	MaxSessions    int
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	SendQueueSize  int
	MaxLineBytes   int
	MaxNicknameLen int
	EventQueueSize int
}

func (c Config) withDefaults() Config {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = defaultEventQueueSize
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = defaultMaxLineBytes
	}
	if c.MaxNicknameLen <= 0 {
		c.MaxNicknameLen = defaultMaxNicknameLen
	}
	return c
}

// inboundEvent is one unit of work for the dispatch goroutine: either a decoded message
// from a session, or the notice that the session's transport is gone.
type inboundEvent struct {
	session *Session
	msg     protocol.Message
	closed  bool
}

// Stats is a point-in-time view of the server.
type Stats struct {
	Sessions int
	Online   int
	Uptime   time.Duration
}

// Server is the chat server core.
type Server struct {
	cfg         Config
	registry    *Registry
	broadcaster *Broadcaster

	// admission is optional; nil disables per-IP rate limiting.
	admission *limiter.IPRateLimiter

	// events is the inbound-event queue drained by run.
	events chan inboundEvent

	ctx    context.Context
	cancel context.CancelFunc

	// mu protects sessions and listeners.
	mu        sync.Mutex
	sessions  map[*Session]struct{}
	listeners map[net.Listener]struct{}

	// wg tracks session and rejection goroutines.
	wg       sync.WaitGroup
	loopDone chan struct{}

	startedAt time.Time
	logger    zerolog.Logger
}

// NewServer creates a Server and starts its dispatch loop. admission may be nil.
func NewServer(cfg Config, admission *limiter.IPRateLimiter) *Server {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	registry := NewRegistry()
	s := &Server{
		cfg:         cfg,
		registry:    registry,
		broadcaster: NewBroadcaster(registry),
		admission:   admission,
		events:      make(chan inboundEvent, cfg.EventQueueSize),
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[*Session]struct{}),
		listeners:   make(map[net.Listener]struct{}),
		loopDone:    make(chan struct{}),
		startedAt:   time.Now(),
		logger:      logx.Component("server"),
	}

	go s.run()

	return s
}

// run consumes the inbound-event queue until the server shuts down.
// Events are handled one at a time in arrival order.
func (s *Server) run() {
	defer close(s.loopDone)

	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-s.ctx.Done():
			s.logger.Info().Msg("Dispatch loop stopped.")
			return
		}
	}
}

// post hands an event to the dispatch loop, blocking while the queue is full.
// It reports false once the server is shutting down.
func (s *Server) post(ev inboundEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// ListenAndServe listens on the TCP address addr and serves chat connections.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown is called, in which case it returns nil.
func (s *Server) Serve(l net.Listener) error {
	if !s.trackListener(l) {
		l.Close()
		return ErrServerClosed
	}
	defer s.untrackListener(l)

	s.logger.Info().Str("addr", l.Addr().String()).Msg("Chat server is listening.")

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if backoff == 0 {
					backoff = 5 * time.Millisecond
				} else {
					backoff *= 2
				}
				if backoff > maxAcceptBackoff {
					backoff = maxAcceptBackoff
				}
				s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Temporary accept error.")
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		if _, err := s.Attach(NewTCPConn(conn, s.cfg.MaxLineBytes)); err != nil {
			s.logger.Debug().Err(err).Msg("Connection not attached.")
		}
	}
}

// AttachWebSocket serves an upgraded WebSocket connection as a chat session. remoteAddr
// is the client address used for admission and logging, usually http.Request.RemoteAddr.
func (s *Server) AttachWebSocket(ws *websocket.Conn, remoteAddr string) (*Session, error) {
	return s.Attach(NewWSConn(ws, remoteAddr, s.cfg.MaxLineBytes))
}

// Attach admits conn as a new session in StateConnected and starts its goroutines.
// A connection refused by admission control receives a login_failed line and is closed.
func (s *Server) Attach(conn Conn) (*Session, error) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		conn.Close()
		return nil, ErrServerClosed
	}
	if s.admission != nil && !s.admission.AllowAddr(conn.RemoteAddr()) {
		defer s.mu.Unlock()
		RejectedConnectionsTotal.WithLabelValues("rate_limited").Inc()
		return nil, s.reject(conn, errs.NewError(errs.ErrConnectRateExceeded))
	}
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		defer s.mu.Unlock()
		RejectedConnectionsTotal.WithLabelValues("server_full").Inc()
		return nil, s.reject(conn, errs.NewError(errs.ErrServerFull))
	}

	sess := newSession(conn, sessionOptions{
		queueSize:   s.cfg.SendQueueSize,
		writeWait:   s.cfg.WriteTimeout,
		idleTimeout: s.cfg.IdleTimeout,
	})
	s.sessions[sess] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()

	ConnectedSessions.Inc()
	sess.logger.Info().Msg("Session connected.")

	go func() {
		defer s.wg.Done()
		sess.writeLoop()
	}()
	go func() {
		defer s.wg.Done()
		sess.readLoop(s.post)
	}()

	return sess, nil
}

// reject writes a single login_failed line to conn in the background and closes it.
// The caller holds s.mu.
func (s *Server) reject(conn Conn, cause *errs.CustomError) error {
	s.logger.Warn().
		Str("remote_ip", logx.AnonymizeIP(conn.RemoteAddr())).
		Int("code", cause.Code).
		Msg("Connection rejected at admission.")

	line, err := protocol.Encode(protocol.LoginFailed(cause.Message))
	if err != nil {
		conn.Close()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer conn.Close()

		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := conn.WriteLine(line); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to write rejection.")
		}
	}()

	return cause
}

// Kick closes the session holding nickname. The regular disconnect handling then
// unregisters it and broadcasts user_left.
func (s *Server) Kick(nickname string) bool {
	sess, ok := s.registry.Lookup(nickname)
	if !ok {
		return false
	}

	sess.logger.Info().Str("nickname", nickname).Msg("Session kicked by admin.")
	sess.Close()
	return true
}

// Online returns the sorted nicknames of authenticated sessions.
func (s *Server) Online() []string {
	return s.registry.Snapshot()
}

// Stats returns the current session counts and uptime.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()

	return Stats{
		Sessions: sessions,
		Online:   s.registry.Len(),
		Uptime:   time.Since(s.startedAt),
	}
}

// Shutdown stops accepting connections, closes every session and waits for the session
// goroutines to finish, or for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	for l := range s.listeners {
		if err := l.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Listener close error.")
		}
	}
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	s.logger.Info().Int("sessions", len(sessions)).Msg("Shutting down chat server.")

	for _, sess := range sessions {
		sess.Close()
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-s.loopDone
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return fmt.Errorf("chat server shutdown: %w", ctx.Err())
	}

	s.release()
	s.logger.Info().Msg("Chat server stopped.")
	return nil
}

// release drops the bookkeeping of sessions whose close events were not dispatched
// because the loop had already stopped.
func (s *Server) release() {
	s.mu.Lock()
	for sess := range s.sessions {
		delete(s.sessions, sess)
		ConnectedSessions.Dec()
		if _, ok := s.registry.Unregister(sess); ok {
			OnlineUsers.Dec()
		}
	}
	s.mu.Unlock()
}

func (s *Server) trackListener(l net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) untrackListener(l net.Listener) {
	s.mu.Lock()
	delete(s.listeners, l)
	s.mu.Unlock()
}
