package client

import (
	"context"
	"net"
	"reflect"
	"strconv"
	"testing"
	"time"

	"linechat/internal/app/chat"
	"linechat/internal/app/protocol"
)

func startChatServer(t *testing.T) (string, int) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := chat.NewServer(chat.Config{}, nil)
	go srv.Serve(l)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	host, portStr, _ := net.SplitHostPort(l.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func lastEntry(c *Client) (LogEntry, bool) {
	log := c.Log()
	if len(log) == 0 {
		return LogEntry{}, false
	}
	return log[len(log)-1], true
}

func TestScenario_AliceAndBob(t *testing.T) {
	host, port := startChatServer(t)
	ctx := context.Background()

	alice := New()
	t.Cleanup(alice.Close)
	if err := alice.Connect(ctx, host, port, "alice"); err != nil {
		t.Fatalf("alice connect: %v", err)
	}
	waitEvent(t, alice, EventLoginSucceeded)
	eventually(t, "alice roster", func() bool {
		return reflect.DeepEqual(alice.Roster(), []string{"alice"})
	})

	// a second "alice" is refused and the refused client disconnects
	impostor := New()
	t.Cleanup(impostor.Close)
	if err := impostor.Connect(ctx, host, port, "alice"); err != nil {
		t.Fatalf("impostor connect: %v", err)
	}
	ev := waitEvent(t, impostor, EventLoginFailed)
	if ev.Reason != "nickname already in use" {
		t.Fatalf("reason = %q", ev.Reason)
	}
	waitEvent(t, impostor, EventDisconnected)
	if got := alice.Roster(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("alice roster changed: %v", got)
	}

	bob := New()
	t.Cleanup(bob.Close)
	if err := bob.Connect(ctx, host, port, "bob"); err != nil {
		t.Fatalf("bob connect: %v", err)
	}
	waitEvent(t, bob, EventLoginSucceeded)
	eventually(t, "bob roster", func() bool {
		return reflect.DeepEqual(bob.Roster(), []string{"alice", "bob"})
	})
	eventually(t, "alice sees bob", func() bool {
		return reflect.DeepEqual(alice.Roster(), []string{"alice", "bob"})
	})

	if err := alice.SendChat("hi"); err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	for _, c := range []*Client{alice, bob} {
		eventually(t, "chat delivery", func() bool {
			e, ok := lastEntry(c)
			return ok && e.Type == protocol.TypeChatMessage && e.Nickname == "alice" && e.Text == "hi"
		})
	}

	alice.Close()
	waitEvent(t, alice, EventDisconnected)

	eventually(t, "bob sees alice leave", func() bool {
		e, ok := lastEntry(bob)
		return ok && e.Type == protocol.TypeUserLeft && e.Nickname == "alice"
	})
	if got := bob.Roster(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("bob roster = %v, want [bob]", got)
	}
}

func TestScenario_MessagesKeepOrder(t *testing.T) {
	host, port := startChatServer(t)
	ctx := context.Background()

	alice, bob := New(), New()
	t.Cleanup(alice.Close)
	t.Cleanup(bob.Close)

	if err := alice.Connect(ctx, host, port, "alice"); err != nil {
		t.Fatalf("alice connect: %v", err)
	}
	waitEvent(t, alice, EventLoginSucceeded)
	if err := bob.Connect(ctx, host, port, "bob"); err != nil {
		t.Fatalf("bob connect: %v", err)
	}
	waitEvent(t, bob, EventLoginSucceeded)
	eventually(t, "alice sees bob", func() bool { return len(alice.Roster()) == 2 })

	const n = 20
	for i := 0; i < n; i++ {
		if err := alice.SendChat(strconv.Itoa(i)); err != nil {
			t.Fatalf("SendChat: %v", err)
		}
	}

	chats := func(c *Client) []string {
		var out []string
		for _, e := range c.Log() {
			if e.Type == protocol.TypeChatMessage {
				out = append(out, e.Text)
			}
		}
		return out
	}

	for _, c := range []*Client{alice, bob} {
		eventually(t, "all chats", func() bool { return len(chats(c)) == n })
		for i, text := range chats(c) {
			if text != strconv.Itoa(i) {
				t.Fatalf("chat %d = %q, out of order", i, text)
			}
		}
	}
}
