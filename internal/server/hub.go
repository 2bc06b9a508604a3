// Package server runs the single event loop that serializes connection
// lifecycle and inbound frames into the relay engine via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tyrowin/relaychat/internal/relay"
	"github.com/eapache/queue"
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventMessage
	eventError
	eventClose
)

func (k eventKind) String() string {
	switch k {
	case eventConnect:
		return "connect"
	case eventMessage:
		return "message"
	case eventError:
		return "error"
	case eventClose:
		return "close"
	default:
		return "unknown"
	}
}

// hubEvent is one unit of work for the event loop.
type hubEvent struct {
	kind    eventKind
	client  *Client
	payload []byte
	err     error
}

// Hub owns the relay engine and feeds it one event at a time. Producers
// (the upgrade handler and each client's read pump) append to an unbounded
// FIFO and never block on the loop.
type Hub struct {
	log     *slog.Logger
	engine  *relay.Engine
	mu      sync.Mutex
	pending *queue.Queue
	wake    chan struct{}
	clients map[*Client]struct{}
	count   atomic.Int64
	started atomic.Bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHub creates a hub around engine. Call Run to start processing events.
func NewHub(log *slog.Logger, engine *relay.Engine) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:     log,
		engine:  engine,
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		clients: make(map[*Client]struct{}),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// ClientCount returns the registry size as of the last processed event.
// It is safe to call from any goroutine.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Pending returns the number of queued events not yet processed.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending.Length()
}

// Accepting reports whether the hub still takes new connections.
func (h *Hub) Accepting() bool {
	return h.ctx.Err() == nil
}

// Register queues a newly upgraded client. The loop starts its pumps once
// the client is in the registry. A client registered after Shutdown is
// closed right away.
func (h *Hub) Register(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}
	h.post(hubEvent{kind: eventConnect, client: client})

	// Shutdown may have won the race with the handler's Accepting check.
	// Events queued before cancel are closed by closePending; this covers
	// the ones the loop will never see.
	if h.ctx.Err() != nil {
		client.markClosed()
		client.closeConnection()
	}
}

func (h *Hub) receive(client *Client, payload []byte) {
	h.post(hubEvent{kind: eventMessage, client: client, payload: payload})
}

func (h *Hub) reportError(client *Client, err error) {
	h.post(hubEvent{kind: eventError, client: client, err: err})
}

func (h *Hub) unregister(client *Client) {
	h.post(hubEvent{kind: eventClose, client: client})
}

func (h *Hub) post(evt hubEvent) {
	h.mu.Lock()
	h.pending.Add(evt)
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) next() (hubEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending.Length() == 0 {
		return hubEvent{}, false
	}
	return h.pending.Remove().(hubEvent), true
}

// Run starts the hub's event loop. It returns after Shutdown is called.
func (h *Hub) Run() {
	if !h.started.CompareAndSwap(false, true) {
		h.log.Warn("Hub is already running")
		return
	}
	defer close(h.done)

	h.log.Info("Hub started and ready to manage WebSocket connections")
	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return
		case <-h.wake:
			h.drain()
		}
	}
}

func (h *Hub) drain() {
	for h.ctx.Err() == nil {
		evt, ok := h.next()
		if !ok {
			return
		}
		h.dispatch(evt)
	}
}

func (h *Hub) dispatch(evt hubEvent) {
	switch evt.kind {
	case eventConnect:
		h.handleConnect(evt.client)
	case eventMessage:
		h.engine.Receive(evt.client, evt.payload)
	case eventError:
		h.engine.TransportError(evt.client, evt.err)
	case eventClose:
		h.handleClose(evt.client)
	default:
		h.log.Warn("Dropping event of unknown kind", "kind", evt.kind.String())
	}
	h.count.Store(int64(h.engine.ClientCount()))
}

func (h *Hub) handleConnect(client *Client) {
	if _, err := h.engine.Connect(client); err != nil {
		h.log.Error("Rejecting connection", "remote_addr", client.addr, "error", err)
		return
	}
	h.clients[client] = struct{}{}
	h.log.Debug("Client registered", "remote_addr", client.addr, "total", len(h.clients))

	// Only detached clients in tests have no connection and no pumps.
	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleClose(client *Client) {
	h.engine.Disconnect(client)
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
		h.log.Debug("Client unregistered", "remote_addr", client.addr, "total", len(h.clients))
	}
}

// shutdownClients closes every live connection. Read pumps still post their
// close events, but the loop no longer consumes them.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	for client := range h.clients {
		client.closeSend()
		client.closeConnection()
	}

	h.log.Info("Closed client connections", "count", len(h.clients))
	clear(h.clients)
	h.closePending()
}

// closePending drops every queued event and closes clients that were
// upgraded but never registered.
func (h *Hub) closePending() {
	for {
		evt, ok := h.next()
		if !ok {
			return
		}
		if evt.kind == eventConnect {
			evt.client.closeSend()
			evt.client.closeConnection()
		}
	}
}

// Shutdown stops the event loop, closes all clients and waits for their
// goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	if h.started.Load() {
		<-h.done
	} else {
		h.closePending()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
