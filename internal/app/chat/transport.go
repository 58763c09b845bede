/*
Package chat contains the server side of the line-based chat protocol: sessions, the nickname
registry, the broadcaster and the server core that drives them.

This file defines the Conn abstraction that isolates the chat logic from the transport carrying
protocol lines, and its TCP implementation.
*/
package chat

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// Conn is a bidirectional, line-oriented connection to one chat peer.
// ReadLine is only called from a session's reader goroutine and WriteLine only from its writer
// goroutine; Close may be called concurrently with both.
type Conn interface {
	// ReadLine returns the next complete line without its terminator.
	// The returned slice is only valid until the next call.
	ReadLine() ([]byte, error)

	// WriteLine writes one encoded line, terminator included.
	WriteLine(line []byte) error

	// SetReadDeadline bounds the next ReadLine; the zero time disables it.
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline bounds the next WriteLine; the zero time disables it.
	SetWriteDeadline(t time.Time) error

	// Close releases the connection and unblocks pending reads and writes.
	Close() error

	// RemoteAddr returns the peer address for logging and admission control.
	RemoteAddr() string
}

// ErrLineTooLong is returned by ReadLine when a peer sends a line longer than the configured limit.
var ErrLineTooLong = errors.New("chat: line exceeds maximum length")

// tcpConn frames a stream socket into newline-delimited lines.
type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// NewTCPConn wraps a stream connection. Lines longer than maxLineBytes terminate the connection.
func NewTCPConn(conn net.Conn, maxLineBytes int) Conn {
	scanner := bufio.NewScanner(conn)
	initial := 4096
	if maxLineBytes < initial {
		initial = maxLineBytes
	}
	// the scanner needs room for the terminator on top of the payload
	scanner.Buffer(make([]byte, 0, initial), maxLineBytes+2)
	scanner.Split(bufio.ScanLines)

	return &tcpConn{conn: conn, scanner: scanner}
}

func (c *tcpConn) ReadLine() ([]byte, error) {
	if c.scanner.Scan() {
		return c.scanner.Bytes(), nil
	}

	err := c.scanner.Err()
	switch {
	case err == nil:
		return nil, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return nil, ErrLineTooLong
	}
	return nil, err
}

func (c *tcpConn) WriteLine(line []byte) error {
	_, err := c.conn.Write(line)
	return err
}

func (c *tcpConn) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }
func (c *tcpConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *tcpConn) Close() error                       { return c.conn.Close() }
func (c *tcpConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }
