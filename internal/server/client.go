// Package server manages individual WebSocket clients, handling read/write
// pumps and lifecycle control for each connection.
package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
)

var (
	// ErrClientClosed is returned by Send once the client stopped accepting frames.
	ErrClientClosed = errors.New("client closed")
	// ErrSendBufferFull is returned by Send when the client is not draining its queue.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client represents a WebSocket client connection in the relay. It
// satisfies relay.Conn: Send queues a frame for the write pump without
// blocking and IsOpen turns false as soon as either pump sees the
// connection go away.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *Hub
	addr      string
	log       *slog.Logger
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewClient creates a new Client for conn. A positive maxMessageSize caps
// inbound frames; zero leaves them unbounded.
func NewClient(log *slog.Logger, conn *websocket.Conn, hub *Hub, addr string, maxMessageSize int64) *Client {
	if conn != nil && maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}

	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		hub:  hub,
		addr: addr,
		log:  log.With("remote_addr", addr),
	}
}

// GetSendChan returns the client's send channel for reading outgoing messages.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Send queues payload for the write pump. It never blocks.
func (c *Client) Send(payload []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("%s: %w", c.addr, ErrClientClosed)
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("%s: %w", c.addr, ErrSendBufferFull)
	}
}

// IsOpen reports whether the connection still accepts frames.
func (c *Client) IsOpen() bool {
	return !c.closed.Load()
}

func (c *Client) markClosed() {
	c.closed.Store(true)
}

// closeSend marks the client closed and releases the write pump.
// Only the hub loop, or Shutdown when no loop ever ran, calls it, so no
// Send can race with the close.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.markClosed()
		close(c.send)
	})
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("Error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs the read failure. Failures that are not an ordinary
// close are also reported to the hub as transport errors.
func (c *Client) handleReadError(err error) {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("Message exceeded maximum size", "error", err)
		c.hub.reportError(c, err)
		return
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) {
		c.log.Debug("Client disconnected", "error", err)
		return
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Debug("Client connection closed", "error", err)
		return
	}

	c.hub.reportError(c, err)
}

func (c *Client) readPump() {
	defer func() {
		c.markClosed()
		c.hub.unregister(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.hub.receive(c, rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.markClosed()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection closes the WebSocket connection, logging only unexpected failures
func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error closing connection", "error", err)
	}
}

// handleMessage writes one outgoing frame and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing message", "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close frame to the client
func (c *Client) writeCloseMessage() bool {
	closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeFrame); err != nil && !isExpectedCloseError(err) {
		c.log.Debug("Error writing close message", "error", err)
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Debug("Error writing ping message", "error", err)
		return false
	}
	return true
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe")
}
