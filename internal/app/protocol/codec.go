package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnencodable is returned by Encode for a message whose Type is not a protocol type.
var ErrUnencodable = errors.New("protocol: message type cannot be encoded")

// DecodeErrorKind classifies why a line could not be decoded.
type DecodeErrorKind int

const (
	// Malformed covers non-JSON input, non-object records, a missing or non-string
	// type, wrongly typed fields and missing required fields.
	Malformed DecodeErrorKind = iota + 1

	// UnknownType is a well-formed record whose type is not part of the protocol.
	UnknownType
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case UnknownType:
		return "unknown_type"
	}
	return "invalid"
}

// DecodeError reports a line that Decode rejected.
type DecodeError struct {
	Kind DecodeErrorKind
	Type Type  // set for UnknownType and for missing fields of a known type
	Err  error // underlying cause, if any
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind == UnknownType:
		return fmt.Sprintf("protocol: unknown message type %q", e.Type)
	case e.Err != nil && e.Type != "":
		return fmt.Sprintf("protocol: malformed %s message: %v", e.Type, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("protocol: malformed message: %v", e.Err)
	}
	return "protocol: malformed message"
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wire shapes, one per field set

type wireTypeOnly struct {
	Type Type `json:"type"`
}

type wireNickname struct {
	Type     Type   `json:"type"`
	Nickname string `json:"nickname"`
}

type wireReason struct {
	Type   Type   `json:"type"`
	Reason string `json:"reason"`
}

type wireChat struct {
	Type    Type   `json:"type"`
	Sender  string `json:"sender,omitempty"`
	Message string `json:"message"`
}

type wireUsers struct {
	Type  Type     `json:"type"`
	Users []string `json:"users"`
}

// Encode renders m as one compact JSON record terminated by '\n'.
func Encode(m Message) ([]byte, error) {
	var v any

	switch m.Type {
	case TypeLogin, TypeUserJoined, TypeUserLeft:
		v = wireNickname{Type: m.Type, Nickname: m.Nickname}
	case TypeLoginSuccess:
		v = wireTypeOnly{Type: m.Type}
	case TypeLoginFailed:
		v = wireReason{Type: m.Type, Reason: m.Reason}
	case TypeChatMessage:
		v = wireChat{Type: m.Type, Sender: m.Sender, Message: m.Message}
	case TypeUserList:
		users := m.Users
		if users == nil {
			users = []string{}
		}
		v = wireUsers{Type: m.Type, Users: users}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnencodable, m.Type)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encoder.Encode writes the compact record followed by '\n'.
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Type, err)
	}
	return buf.Bytes(), nil
}

// Decode parses exactly one line. A trailing "\n" or "\r\n" is tolerated.
// Field names are matched exactly; "Nickname" is not "nickname".
func Decode(line []byte) (Message, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(bytes.TrimSpace(line)) == 0 {
		return Message{}, &DecodeError{Kind: Malformed, Err: errors.New("empty line")}
	}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Message{}, &DecodeError{Kind: Malformed, Err: err}
	}
	if rec == nil {
		return Message{}, &DecodeError{Kind: Malformed, Err: errors.New("not an object")}
	}

	typ, err := rec.str("type")
	if err != nil {
		return Message{}, &DecodeError{Kind: Malformed, Err: err}
	}

	t := Type(typ)
	if !t.Known() {
		return Message{}, &DecodeError{Kind: UnknownType, Type: t}
	}

	m := Message{Type: t}

	switch t {
	case TypeLogin, TypeUserJoined, TypeUserLeft:
		m.Nickname, err = rec.str("nickname")
	case TypeLoginSuccess:
		// no fields
	case TypeLoginFailed:
		m.Reason, err = rec.str("reason")
	case TypeChatMessage:
		if rec.has("sender") {
			m.Sender, err = rec.str("sender")
		}
		if err == nil {
			m.Message, err = rec.str("message")
		}
	case TypeUserList:
		m.Users, err = rec.strs("users")
	}

	if err != nil {
		return Message{}, &DecodeError{Kind: Malformed, Type: t, Err: err}
	}
	return m, nil
}

// record is a decoded JSON object keyed by exact field name.
type record map[string]json.RawMessage

func (r record) has(field string) bool {
	_, ok := r[field]
	return ok
}

func (r record) raw(field string) (json.RawMessage, error) {
	v, ok := r[field]
	if !ok {
		return nil, fmt.Errorf("missing %q", field)
	}
	if bytes.Equal(v, []byte("null")) {
		return nil, fmt.Errorf("%q is null", field)
	}
	return v, nil
}

func (r record) str(field string) (string, error) {
	v, err := r.raw(field)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%q: %w", field, err)
	}
	return s, nil
}

func (r record) strs(field string) ([]string, error) {
	v, err := r.raw(field)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, fmt.Errorf("%q: %w", field, err)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if bytes.Equal(item, []byte("null")) {
			return nil, fmt.Errorf("%q[%d] is null", field, i)
		}
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("%q[%d]: %w", field, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
