// Package sse streams tracker events to connected operators as
// server-sent events.
package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/leaguetracker/internal/events"
)

const broadcastBuffer = 256

// Hub fans messages out to every connected client
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// Ensure Hub implements events.Sink
var _ events.Sink = (*Hub)(nil)

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "sse")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled or Close is called. Every
// client still connected at that point is disconnected.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", total))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.deliver(message)

		case <-ctx.Done():
			h.Close()
			h.shutdown()
			return ctx.Err()

		case <-h.done:
			h.shutdown()
			return nil
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client unregistered",
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", total))
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("sse message dropped for slow clients",
			slog.Int("sent", len(h.clients)-dropped),
			slog.Int("dropped", dropped))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	total := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", total))
}

// Register adds a client. It returns false if the hub has stopped or ctx
// ends first.
func (h *Hub) Register(ctx context.Context, client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a raw message for every client. Messages are dropped
// when the queue is full.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped, hub buffer full")
	}
}

// BroadcastEvent queues an SSE event with a name and data
func (h *Hub) BroadcastEvent(name, data string) {
	h.Broadcast(formatMessage(name, data))
}

// Emit publishes a tracker event under its kind
func (h *Hub) Emit(_ context.Context, ev events.Event) {
	data, err := json.Marshal(newPayload(ev))
	if err != nil {
		h.logger.Error("sse failed to encode event", slog.String("kind", string(ev.Kind)), slog.Any("error", err))
		return
	}
	h.BroadcastEvent(string(ev.Kind), string(data))
}

// Close stops Run
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type payload struct {
	Kind    events.Kind `json:"kind"`
	Player  string      `json:"player,omitempty"`
	Page    int         `json:"page,omitempty"`
	Attempt int         `json:"attempt,omitempty"`
	Count   int         `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func newPayload(ev events.Event) payload {
	p := payload{
		Kind:    ev.Kind,
		Player:  ev.Player,
		Page:    ev.Page,
		Attempt: ev.Attempt,
		Count:   ev.Count,
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return p
}

// formatMessage renders an SSE frame. Each line of data gets its own
// "data: " prefix.
func formatMessage(name, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(name)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
