/*
Package client implements the client side of the line-based chat protocol.

A Client owns one connection to a chat server, drives the login handshake and keeps the local
view of the chat: an append-only log of chat and presence lines and the roster of online users.
Status changes are reported on the Events channel.
*/
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"linechat/internal/app/protocol"
	"linechat/internal/pkg/logx"
)

const (
	defaultEventBuffer = 256

	// defaultMaxLineBytes covers a user_list of a server at its default limits (1024
	// sessions, 32-rune nicknames) even when every rune is JSON-escaped. Servers configured
	// beyond that need WithMaxLineBytes.
	defaultMaxLineBytes = 1 << 20

	defaultWriteTimeout = 10 * time.Second
)

var (
	// ErrEmptyNickname is returned by Connect for an empty or whitespace-only nickname.
	ErrEmptyNickname = errors.New("client: nickname must not be empty")

	// ErrAlreadyConnected is returned by Connect while a connection is open or being opened.
	ErrAlreadyConnected = errors.New("client: already connected")
)

// State is the position of the client in the login handshake.
type State int

const (
	// StateDisconnected is the initial state and the state after any disconnect.
	StateDisconnected State = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateAwaitingLogin means the login request was sent and no reply has arrived yet.
	StateAwaitingLogin

	// StateInChat means the server accepted the nickname; chat and presence lines are logged.
	StateInChat
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateInChat:
		return "in_chat"
	}
	return "unknown"
}

// Dialer opens the transport connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.events = make(chan Event, n)
		}
	}
}

// WithMaxLineBytes bounds the size of a single inbound line.
func WithMaxLineBytes(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxLineBytes = n
		}
	}
}

// Client is a chat client. All methods are safe for concurrent use.
type Client struct {
	dialer       Dialer
	events       chan Event
	maxLineBytes int
	writeTimeout time.Duration

	// mu protects every field below.
	mu         sync.Mutex
	state      State
	nickname   string
	roster     []string
	log        []LogEntry
	conn       net.Conn
	cancelDial context.CancelFunc

	// gen identifies the current connection so a stale reader cannot tear down a newer one.
	gen uint64

	// writeMu serializes writes on conn.
	writeMu sync.Mutex

	logger zerolog.Logger
}

// New creates a disconnected Client.
func New(opts ...Option) *Client {
	c := &Client{
		dialer:       &net.Dialer{Timeout: 5 * time.Second},
		events:       make(chan Event, defaultEventBuffer),
		maxLineBytes: defaultMaxLineBytes,
		writeTimeout: defaultWriteTimeout,
		state:        StateDisconnected,
		logger:       logx.Component("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the channel on which status events are delivered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current handshake state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nickname returns the nickname of the current connection, or "" when disconnected.
func (c *Client) Nickname() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nickname
}

// Roster returns a copy of the online users as last reported by the server.
func (c *Client) Roster() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.roster...)
}

// Log returns a copy of the chat log.
func (c *Client) Log() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogEntry(nil), c.log...)
}

// Connect opens a connection to host:port and sends the login request for nickname.
// It returns once the login has been sent; the outcome arrives as an Event.
func (c *Client) Connect(ctx context.Context, host string, port int, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return ErrEmptyNickname
	}

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.cancelDial = cancel
	c.mu.Unlock()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c.logger.Info().Str("addr", addr).Str("nickname", nickname).Msg("Connecting to chat server.")

	conn, err := c.dialer.DialContext(dialCtx, "tcp", addr)
	if err == nil && dialCtx.Err() != nil {
		conn.Close()
		err = dialCtx.Err()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.cancelDial = nil
		c.emit(Event{Kind: EventConnectionFailed, Err: err})
		c.mu.Unlock()

		c.logger.Warn().Err(err).Str("addr", addr).Msg("Connection failed.")
		return fmt.Errorf("connect to %s: %w", addr, err)
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.conn = conn
	c.nickname = nickname
	c.state = StateAwaitingLogin
	c.cancelDial = nil
	c.mu.Unlock()

	go c.readLoop(conn, gen)

	if err := c.write(conn, protocol.Login(nickname)); err != nil {
		c.teardown(gen)
		return fmt.Errorf("send login: %w", err)
	}
	return nil
}

// SendChat sends text as a chat message. It is a no-op for blank text or when the client
// is not logged in.
func (c *Client) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	conn, gen, state := c.conn, c.gen, c.state
	c.mu.Unlock()

	if conn == nil || state != StateInChat {
		return nil
	}

	if err := c.write(conn, protocol.Chat("", text)); err != nil {
		c.teardown(gen)
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

// Close disconnects from the server. It is a no-op when already disconnected.
func (c *Client) Close() {
	c.mu.Lock()
	if c.state == StateConnecting {
		if c.cancelDial != nil {
			c.cancelDial()
		}
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.mu.Unlock()

	c.teardown(gen)
}

func (c *Client) write(conn net.Conn, m protocol.Message) error {
	line, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err = conn.Write(line)
	return err
}

func (c *Client) readLoop(conn net.Conn, gen uint64) {
	defer c.teardown(gen)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), c.maxLineBytes)

	for scanner.Scan() {
		msg, err := protocol.Decode(scanner.Bytes())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Discarding undecodable server line.")
			continue
		}
		c.handle(msg, gen)
	}

	if err := scanner.Err(); err != nil && c.current(gen) {
		c.logger.Warn().Err(err).Msg("Connection read failed.")
	}
}

// current reports whether gen is the live connection.
func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && c.state != StateDisconnected
}

func (c *Client) handle(m protocol.Message, gen uint64) {
	c.mu.Lock()

	if c.gen != gen || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}

	switch c.state {
	case StateAwaitingLogin:
		switch m.Type {
		case protocol.TypeLoginSuccess:
			c.state = StateInChat
			c.emit(Event{Kind: EventLoginSucceeded})
			c.logger.Info().Str("nickname", c.nickname).Msg("Logged in.")
		case protocol.TypeLoginFailed:
			c.emit(Event{Kind: EventLoginFailed, Reason: m.Reason})
			c.logger.Info().Str("reason", m.Reason).Msg("Login refused by server.")
			c.mu.Unlock()
			c.teardown(gen)
			return
		default:
			c.logger.Debug().Str("msg_type", string(m.Type)).Msg("Ignoring message before login.")
		}

	case StateInChat:
		switch m.Type {
		case protocol.TypeChatMessage:
			c.appendLog(m.Type, m.Sender, m.Message)
		case protocol.TypeUserJoined:
			c.appendLog(m.Type, m.Nickname, "")
			if !slices.Contains(c.roster, m.Nickname) {
				c.roster = append(c.roster, m.Nickname)
				c.emit(Event{Kind: EventRosterUpdated})
			}
		case protocol.TypeUserLeft:
			c.appendLog(m.Type, m.Nickname, "")
			if i := slices.Index(c.roster, m.Nickname); i >= 0 {
				c.roster = slices.Delete(c.roster, i, i+1)
				c.emit(Event{Kind: EventRosterUpdated})
			}
		case protocol.TypeUserList:
			c.roster = append([]string(nil), m.Users...)
			c.emit(Event{Kind: EventRosterUpdated})
		default:
			c.logger.Debug().Str("msg_type", string(m.Type)).Msg("Ignoring unexpected message.")
		}
	}

	c.mu.Unlock()
}

// appendLog records an entry; the caller holds mu.
func (c *Client) appendLog(t protocol.Type, nickname, text string) {
	entry := LogEntry{Time: time.Now(), Type: t, Nickname: nickname, Text: text}
	c.log = append(c.log, entry)
	c.emit(Event{Kind: EventLogAppended, Entry: &entry})
}

// teardown moves the connection identified by gen to StateDisconnected. Only the first call
// for a connection has an effect.
func (c *Client) teardown(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state == StateDisconnected || c.state == StateConnecting {
		c.mu.Unlock()
		return
	}

	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.nickname = ""
	c.roster = nil
	c.emit(Event{Kind: EventDisconnected})
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.logger.Info().Msg("Disconnected from chat server.")
}

// emit delivers ev without blocking; the caller holds mu so events keep their order.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn().Str("event", ev.Kind.String()).Msg("Event channel full, dropping event.")
	}
}
