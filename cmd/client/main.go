/*
Package main is an interactive terminal client for the linechat server.

Lines typed on stdin are sent as chat messages. "/users" prints the roster and "/quit" leaves.
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"linechat/internal/app/client"
	"linechat/internal/pkg/logx"
	"linechat/internal/pkg/randx"
)

func main() {
	host := flag.String("host", "127.0.0.1", "chat server host")
	port := flag.Int("port", 8888, "chat server port")
	nick := flag.String("nick", "", "nickname (a guest name is generated when empty)")
	debug := flag.Bool("debug", false, "show debug logs")
	flag.Parse()

	logx.InitGlobalLogger(true)
	if !*debug {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	nickname := *nick
	if strings.TrimSpace(nickname) == "" {
		guest, err := randx.GuestNickname()
		if err != nil {
			logx.Fatal(err, "Failed to generate a guest nickname")
		}
		nickname = guest
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New()
	defer c.Close()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := c.Connect(dialCtx, *host, *port, nickname)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(c)
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			<-done
			return
		case <-done:
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				c.Close()
				<-done
				return
			}
			handleInput(c, line)
		}
	}
}

func handleInput(c *client.Client, line string) {
	switch strings.TrimSpace(line) {
	case "/users":
		fmt.Printf("Online (%d): %s\n", len(c.Roster()), strings.Join(c.Roster(), ", "))
	default:
		if err := c.SendChat(line); err != nil {
			fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
		}
	}
}

// printEvents renders client events until the connection ends.
func printEvents(c *client.Client) {
	for ev := range c.Events() {
		switch ev.Kind {
		case client.EventLoginSucceeded:
			fmt.Printf("Logged in as %s. Type /users to list users, /quit to leave.\n", c.Nickname())
		case client.EventLoginFailed:
			fmt.Printf("Login failed: %s\n", ev.Reason)
		case client.EventConnectionFailed:
			fmt.Printf("Connection failed: %v\n", ev.Err)
			return
		case client.EventLogAppended:
			fmt.Println(ev.Entry.String())
		case client.EventDisconnected:
			fmt.Println("Disconnected from server.")
			return
		}
	}
}
