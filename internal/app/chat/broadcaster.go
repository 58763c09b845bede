package chat

import (
	"github.com/rs/zerolog"

	"linechat/internal/app/protocol"
	"linechat/internal/pkg/logx"
)

// Broadcaster fans a message out to every authenticated session.
type Broadcaster struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewBroadcaster creates a Broadcaster over registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logx.Component("broadcaster"),
	}
}

// Broadcast encodes m once and queues it for every registered session except exclude,
// which may be nil. Delivery is best-effort: a session whose queue is full is closed and
// the others still receive the message. It returns the number of sessions reached.
func (b *Broadcaster) Broadcast(m protocol.Message, exclude *Session) int {
	line, err := protocol.Encode(m)
	if err != nil {
		b.logger.Error().Err(err).Str("msg_type", string(m.Type)).Msg("Failed to encode broadcast message.")
		return 0
	}

	delivered := 0
	b.registry.ForEach(func(s *Session) {
		if s == exclude {
			return
		}
		if deliver(s, line) {
			delivered++
		}
	})

	b.logger.Debug().
		Str("msg_type", string(m.Type)).
		Int("recipients", delivered).
		Msg("Broadcast delivered.")

	return delivered
}
