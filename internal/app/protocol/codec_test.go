package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	messages := []Message{
		Login("alice"),
		Login(""),
		LoginSuccess(),
		LoginFailed("nickname already in use"),
		UserJoined("bob"),
		UserLeft("bob"),
		Chat("alice", "hi"),
		Chat("", "client side form"),
		Chat("carol", `quotes " and <tags> & newlines
inside`),
		UserList([]string{"alice", "bob"}),
		UserList([]string{}),
		Chat("ünï", "日本語"),
	}

	for _, m := range messages {
		line, err := Encode(m)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", m, err)
		}
		if !bytes.HasSuffix(line, []byte("\n")) {
			t.Fatalf("Encode(%+v) = %q, missing newline terminator", m, line)
		}
		if bytes.Count(line, []byte("\n")) != 1 {
			t.Fatalf("Encode(%+v) = %q, must be exactly one line", m, line)
		}

		got, err := Decode(line)
		if err != nil {
			t.Fatalf("Decode(%q): %v", line, err)
		}
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, m)
		}
	}
}

func TestEncodeExactFieldSets(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Login("alice"), `{"type":"login","nickname":"alice"}` + "\n"},
		{LoginSuccess(), `{"type":"login_success"}` + "\n"},
		{LoginFailed("nickname already in use"), `{"type":"login_failed","reason":"nickname already in use"}` + "\n"},
		{UserJoined("bob"), `{"type":"user_joined","nickname":"bob"}` + "\n"},
		{UserLeft("bob"), `{"type":"user_left","nickname":"bob"}` + "\n"},
		{Chat("", "hi"), `{"type":"chat_message","message":"hi"}` + "\n"},
		{Chat("alice", "hi"), `{"type":"chat_message","sender":"alice","message":"hi"}` + "\n"},
		{UserList(nil), `{"type":"user_list","users":[]}` + "\n"},
		{UserList([]string{"alice", "bob"}), `{"type":"user_list","users":["alice","bob"]}` + "\n"},
		// fields of other variants never leak onto the wire
		{Message{Type: TypeLoginSuccess, Nickname: "x", Users: []string{"y"}}, `{"type":"login_success"}` + "\n"},
	}

	for _, tt := range tests {
		got, err := Encode(tt.msg)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", tt.msg, err)
		}
		if string(got) != tt.want {
			t.Errorf("Encode(%+v) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := Encode(Message{Type: "shout"})
	if !errors.Is(err, ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind DecodeErrorKind
	}{
		{"empty", "", Malformed},
		{"blank", "   \r\n", Malformed},
		{"not json", "hello there", Malformed},
		{"truncated", `{"type":"login","nick`, Malformed},
		{"array", `["login"]`, Malformed},
		{"string", `"login"`, Malformed},
		{"null", `null`, Malformed},
		{"missing type", `{"nickname":"alice"}`, Malformed},
		{"null type", `{"type":null}`, Malformed},
		{"numeric type", `{"type":7}`, Malformed},
		{"trailing data", `{"type":"login_success"} {"type":"login_success"}`, Malformed},
		{"login missing nickname", `{"type":"login"}`, Malformed},
		{"login wrong field type", `{"type":"login","nickname":42}`, Malformed},
		{"login_failed missing reason", `{"type":"login_failed"}`, Malformed},
		{"chat missing message", `{"type":"chat_message","sender":"alice"}`, Malformed},
		{"chat numeric sender", `{"type":"chat_message","sender":1,"message":"x"}`, Malformed},
		{"user_list missing users", `{"type":"user_list"}`, Malformed},
		{"user_list null users", `{"type":"user_list","users":null}`, Malformed},
		{"user_list object users", `{"type":"user_list","users":{"a":1}}`, Malformed},
		{"upper case keys", `{"TYPE":"login","NICKNAME":"mallory"}`, Malformed},
		{"login upper case nickname", `{"type":"login","Nickname":"mallory"}`, Malformed},
		{"login null nickname", `{"type":"login","nickname":null}`, Malformed},
		{"chat upper case message", `{"type":"chat_message","MESSAGE":"hi","Sender":"spoof"}`, Malformed},
		{"chat null sender", `{"type":"chat_message","sender":null,"message":"x"}`, Malformed},
		{"user_list null entry", `{"type":"user_list","users":["a",null,"a"]}`, Malformed},
		{"user_list numeric entry", `{"type":"user_list","users":["a",2]}`, Malformed},
		{"user_list upper case users", `{"type":"user_list","Users":["a"]}`, Malformed},
		{"unknown type", `{"type":"private_message","to":"bob"}`, UnknownType},
		{"empty type", `{"type":""}`, UnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if decErr.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v (err: %v)", decErr.Kind, tt.kind, err)
			}
			if decErr.Error() == "" {
				t.Fatal("empty error text")
			}
		})
	}
}

func TestDecodeIgnoresUnlistedFields(t *testing.T) {
	got, err := Decode([]byte(`{"type":"user_joined","nickname":"bob","color":"red","ts":12}` + "\r\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, UserJoined("bob")) {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeUnknownTypeCarriesType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"shout"}`))
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Type != "shout" {
		t.Fatalf("expected unknown type shout, got %v", err)
	}
}

func TestTypeKnown(t *testing.T) {
	for _, typ := range []Type{TypeLogin, TypeLoginSuccess, TypeLoginFailed, TypeUserJoined, TypeUserLeft, TypeChatMessage, TypeUserList} {
		if !typ.Known() {
			t.Errorf("%q should be known", typ)
		}
	}
	if Type("LOGIN").Known() {
		t.Error("type matching must be case-sensitive")
	}
}
