/*
Package protocol implements the chat wire format: one compact JSON object per line,
terminated by '\n', discriminated by its "type" field.

The package is stateless. Encode renders a Message into exactly the field set of its
type; Decode parses a single line and reports problems as *DecodeError, never panicking.
*/
package protocol

// Type is the discriminant of a wire message.
type Type string

const (
	// TypeLogin is sent by a client to claim a nickname.
	TypeLogin Type = "login"

	// TypeLoginSuccess acknowledges a login to the requesting client.
	TypeLoginSuccess Type = "login_success"

	// TypeLoginFailed rejects a login; Reason carries the explanation.
	TypeLoginFailed Type = "login_failed"

	// TypeUserJoined is broadcast when a session authenticates.
	TypeUserJoined Type = "user_joined"

	// TypeUserLeft is broadcast when an authenticated session goes away.
	TypeUserLeft Type = "user_left"

	// TypeChatMessage carries chat text. Clients send only Message; the server fills Sender.
	TypeChatMessage Type = "chat_message"

	// TypeUserList carries the roster snapshot sent to a newly joined client.
	TypeUserList Type = "user_list"
)

// Known reports whether t is one of the protocol message types.
func (t Type) Known() bool {
	switch t {
	case TypeLogin, TypeLoginSuccess, TypeLoginFailed,
		TypeUserJoined, TypeUserLeft, TypeChatMessage, TypeUserList:
		return true
	}
	return false
}

// Message is the tagged record exchanged on the wire.
// Only the fields belonging to Type are meaningful; the rest stay zero.
type Message struct {
	Type     Type
	Nickname string   // login, user_joined, user_left
	Reason   string   // login_failed
	Sender   string   // chat_message (server to client)
	Message  string   // chat_message
	Users    []string // user_list
}

// Login builds a login request.
func Login(nickname string) Message {
	return Message{Type: TypeLogin, Nickname: nickname}
}

// LoginSuccess builds a login acknowledgement.
func LoginSuccess() Message {
	return Message{Type: TypeLoginSuccess}
}

// LoginFailed builds a login rejection with the given reason.
func LoginFailed(reason string) Message {
	return Message{Type: TypeLoginFailed, Reason: reason}
}

// UserJoined builds the join notification for nickname.
func UserJoined(nickname string) Message {
	return Message{Type: TypeUserJoined, Nickname: nickname}
}

// UserLeft builds the leave notification for nickname.
func UserLeft(nickname string) Message {
	return Message{Type: TypeUserLeft, Nickname: nickname}
}

// Chat builds a chat message. An empty sender yields the client-to-server form.
func Chat(sender, text string) Message {
	return Message{Type: TypeChatMessage, Sender: sender, Message: text}
}

// UserList builds a roster message.
func UserList(users []string) Message {
	return Message{Type: TypeUserList, Users: users}
}
