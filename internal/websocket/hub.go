package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-interviewer-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RelayChannel = "interview_events"

type relayEnvelope struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

type Hub struct {
	// Watching clients: SessionID -> connections (candidate, observers)
	clients map[string][]*Client

	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	closed bool

	// Redis connection for cross-instance relay; nil keeps the hub local.
	rdb *redis.Client
	// instance id, so relayed frames are not delivered twice locally
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

// Run drops departing clients until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			h.closed = true
			for id, clients := range h.clients {
				for _, client := range clients {
					close(client.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// join registers the client; it reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})
	return true
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove drops the client and closes its Send channel exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Session has no more watchers", map[string]interface{}{"session_id": client.SessionID})
	}
}

// Watchers reports how many local connections follow a session.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish fans a frame out to every local watcher of the session and relays
// it to the other instances.
func (h *Hub) Publish(ctx context.Context, sessionID string, frame []byte) {
	h.deliver(sessionID, frame)

	if h.rdb != nil {
		payload, _ := json.Marshal(relayEnvelope{
			Origin:          h.origin,
			TargetSessionID: sessionID,
			Message:         frame,
		})
		if err := h.rdb.Publish(ctx, RelayChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to relay frame", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
	}
}

func (h *Hub) deliver(sessionID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			go h.leave(client)
		}
	}
}

// Reply sends a frame to one client only, if it is still registered.
func (h *Hub) Reply(client *Client, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients[client.SessionID] {
		if c != client {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			go h.leave(client)
		}
		return
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RelayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliver(env.TargetSessionID, env.Message)
		}
	}
}
