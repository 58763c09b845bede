package client

import (
	"fmt"
	"time"

	"linechat/internal/app/protocol"
)

// EventKind identifies a status change reported by a Client.
type EventKind int

const (
	// EventConnectionFailed reports that the server could not be reached. Err holds the cause.
	EventConnectionFailed EventKind = iota + 1

	// EventLoginSucceeded reports that the server accepted the nickname.
	EventLoginSucceeded

	// EventLoginFailed reports that the server refused the nickname. Reason holds the server's text.
	EventLoginFailed

	// EventDisconnected reports the end of a connection, local or remote. It is emitted once
	// per connection.
	EventDisconnected

	// EventLogAppended reports a new chat log entry. Entry holds a copy of it.
	EventLogAppended

	// EventRosterUpdated reports a change of the roster.
	EventRosterUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventConnectionFailed:
		return "connection_failed"
	case EventLoginSucceeded:
		return "login_succeeded"
	case EventLoginFailed:
		return "login_failed"
	case EventDisconnected:
		return "disconnected"
	case EventLogAppended:
		return "log_appended"
	case EventRosterUpdated:
		return "roster_updated"
	}
	return "unknown"
}

// Event is a status notification from a Client.
type Event struct {
	Kind   EventKind
	Reason string
	Err    error
	Entry  *LogEntry
}

// LogEntry is one line of the chat log: a chat message or a presence change.
type LogEntry struct {
	Time time.Time
	Type protocol.Type

	// Nickname is the sender of a chat message or the user who joined or left.
	Nickname string

	// Text is the chat message body; empty for presence entries.
	Text string
}

// String renders the entry the way a terminal client shows it.
func (e LogEntry) String() string {
	ts := e.Time.Format("15:04:05")

	switch e.Type {
	case protocol.TypeChatMessage:
		return fmt.Sprintf("[%s] %s: %s", ts, e.Nickname, e.Text)
	case protocol.TypeUserJoined:
		return fmt.Sprintf("[%s] %s joined the chat", ts, e.Nickname)
	case protocol.TypeUserLeft:
		return fmt.Sprintf("[%s] %s left the chat", ts, e.Nickname)
	}
	return fmt.Sprintf("[%s] %s", ts, e.Text)
}
