package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"linechat/internal/app/protocol"
	"linechat/internal/pkg/errs"
)

// handleEvent applies one inbound event to the session state machine.
// It only runs on the dispatch goroutine.
func (s *Server) handleEvent(ev inboundEvent) {
	label := "closed"
	if !ev.closed {
		label = string(ev.msg.Type)
		MessagesTotal.WithLabelValues(label).Inc()
	}

	start := time.Now()
	defer func() {
		EventProcessingDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	if ev.closed {
		s.handleClosed(ev.session)
		return
	}

	switch ev.msg.Type {
	case protocol.TypeLogin:
		s.handleLogin(ev.session, ev.msg.Nickname)
	case protocol.TypeChatMessage:
		s.handleChat(ev.session, ev.msg.Message)
	default:
		ev.session.logger.Debug().
			Str("msg_type", string(ev.msg.Type)).
			Str("state", ev.session.State().String()).
			Msg("Discarding message not accepted from clients.")
	}
}

// handleLogin binds a nickname to a Connected session. A rejected login leaves the
// session Connected so the client may retry.
func (s *Server) handleLogin(sess *Session, nickname string) {
	if state := sess.State(); state != StateConnected {
		sess.logger.Debug().Str("state", state.String()).Msg("Discarding login outside the connected state.")
		return
	}

	if cause := s.validateNickname(nickname); cause != nil {
		s.refuseLogin(sess, nickname, cause)
		return
	}

	if !s.registry.Register(sess, nickname) {
		if sess.State() != StateConnected {
			return
		}
		s.refuseLogin(sess, nickname, errs.NewError(errs.ErrNicknameTaken))
		return
	}

	OnlineUsers.Inc()
	sess.logger.Info().Str("nickname", nickname).Int("online", s.registry.Len()).Msg("User logged in.")

	sendTo(sess, protocol.LoginSuccess())
	s.broadcaster.Broadcast(protocol.UserJoined(nickname), nil)
	sendTo(sess, protocol.UserList(s.registry.Snapshot()))
}

func (s *Server) validateNickname(nickname string) *errs.CustomError {
	if strings.TrimSpace(nickname) == "" {
		return errs.NewError(errs.ErrNicknameEmpty)
	}
	if utf8.RuneCountInString(nickname) > s.cfg.MaxNicknameLen {
		return errs.NewError(errs.ErrNicknameTooLong, s.cfg.MaxNicknameLen)
	}
	return nil
}

func (s *Server) refuseLogin(sess *Session, nickname string, cause *errs.CustomError) {
	sess.logger.Info().
		Str("nickname", nickname).
		Int("code", cause.Code).
		Msg("Login refused.")

	sendTo(sess, protocol.LoginFailed(cause.Message))
}

// handleChat relays a chat line to every authenticated session, the sender included.
func (s *Server) handleChat(sess *Session, text string) {
	if state := sess.State(); state != StateAuthenticated {
		sess.logger.Debug().Str("state", state.String()).Msg("Discarding chat message before login.")
		return
	}
	if text == "" {
		return
	}

	s.broadcaster.Broadcast(protocol.Chat(sess.Nickname(), text), nil)
}

// handleClosed releases a session whose transport is gone. It runs once per session.
func (s *Server) handleClosed(sess *Session) {
	s.mu.Lock()
	_, live := s.sessions[sess]
	delete(s.sessions, sess)
	s.mu.Unlock()

	if !live {
		return
	}
	ConnectedSessions.Dec()

	nickname, ok := s.registry.Unregister(sess)
	if !ok {
		sess.logger.Info().Msg("Session closed before login.")
		return
	}

	OnlineUsers.Dec()
	sess.logger.Info().Str("nickname", nickname).Int("online", s.registry.Len()).Msg("User left.")

	s.broadcaster.Broadcast(protocol.UserLeft(nickname), nil)
}
