// Package websocket pushes re-ranked leaderboards to subscribed clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/recycle-rewards/internal/domain"
)

// Message types
const (
	MessageTypeLeaderboardUpdate = "leaderboard_update"
	MessageTypeSubscribe         = "subscribe"
	MessageTypeUnsubscribe       = "unsubscribe"
	MessageTypeSubscribed        = "subscribed"
	MessageTypeUnsubscribed      = "unsubscribed"
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeError             = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string            `json:"type"`
	Filter    domain.KindFilter `json:"filter,omitempty"`
	Data      any               `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Hub maintains the set of active clients and their leaderboard filters
type Hub struct {
	// Subscribed clients by kind filter
	clients map[domain.KindFilter]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest

	mu       sync.RWMutex
	snapshot SnapshotFunc
	logger   *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// SnapshotFunc loads the current rankings for a filter
type SnapshotFunc func(ctx context.Context, filter domain.KindFilter) ([]domain.LeaderboardEntry, error)

type subscriptionRequest struct {
	client *Client
	filter domain.KindFilter
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[domain.KindFilter]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.removeClient(client)
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.allClients[req.client]; ok {
				if _, ok := h.clients[req.filter]; !ok {
					h.clients[req.filter] = make(map[*Client]bool)
				}
				h.clients[req.filter][req.client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "type", req.filter)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			h.dropSubscription(req.client, req.filter)
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "type", req.filter)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// SetSnapshot makes the hub push current rankings to every new subscriber
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

func (h *Hub) snapshotFunc() SnapshotFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)
	for filter := range h.clients {
		h.dropSubscription(client, filter)
	}
	close(client.send)
}

// dropSubscription must be called with mu held
func (h *Hub) dropSubscription(client *Client, filter domain.KindFilter) {
	clients, ok := h.clients[filter]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, filter)
	}
}

// broadcastMessage sends a message to the clients subscribed to its filter
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	for client := range h.clients[message.Filter] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full, skip
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastLeaderboard queues fresh rankings for the subscribers of filter
func (h *Hub) BroadcastLeaderboard(filter domain.KindFilter, entries []domain.LeaderboardEntry) {
	message := leaderboardMessage(filter, entries)

	select {
	case h.broadcast <- &message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", filter)
	}
}

func leaderboardMessage(filter domain.KindFilter, entries []domain.LeaderboardEntry) Message {
	return Message{
		Type:      MessageTypeLeaderboardUpdate,
		Filter:    filter,
		Data:      domain.LeaderboardUpdate{Filter: filter, Entries: entries},
		Timestamp: time.Now(),
	}
}

// HasSubscribers reports whether any client follows filter
func (h *Hub) HasSubscribers(filter domain.KindFilter) bool {
	return h.SubscriberCount(filter) > 0
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Subscribe adds a client to a filter's subscription
func (h *Hub) Subscribe(client *Client, filter domain.KindFilter) {
	h.subscribe <- &subscriptionRequest{client: client, filter: filter}
}

// Unsubscribe removes a client from a filter's subscription
func (h *Hub) Unsubscribe(client *Client, filter domain.KindFilter) {
	h.unsubscribe <- &subscriptionRequest{client: client, filter: filter}
}

// SubscriberCount returns the number of subscribers of a filter
func (h *Hub) SubscriberCount(filter domain.KindFilter) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[filter])
}

// TotalConnections returns the total number of connected clients
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

// Stats returns connection and per-filter subscriber counts
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]int{"total_connections": len(h.allClients)}
	for filter, clients := range h.clients {
		stats["subscribers_"+string(filter)] = len(clients)
	}
	return stats
}
