package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans generation events out to a user's connected clients. Redis
// pub/sub carries events across instances; the local client map covers
// sockets attached to this process.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

// Event is what a connected planner UI receives.
type Event struct {
	Type string `json:"type"`
	Day  int    `json:"day"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

// PlanReady tells the user's clients that a day's plan text landed.
func (h *Hub) PlanReady(userID string, day int) {
	payload, _ := json.Marshal(Event{Type: "plan_ready", Day: day})
	h.broadcast(userID, payload)
}

func (h *Hub) broadcast(userID string, payload []byte) {
	if h.redis != nil {
		// Pub/sub is the only delivery path: the subscription loop
		// feeds local clients too, so each event lands exactly once.
		err := h.redis.Publish(context.Background(), redisChannel(userID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(userID, payload)
}

// deliver holds the read lock across the whole send loop so Unregister
// cannot shrink the map or close a Send channel mid-iteration. Sends
// are non-blocking, so the lock is never held on a full buffer.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "plans:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(userIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(userID string) string {
	return "plans:" + userID + ":events"
}

func userIDFromChannel(ch string) string {
	// plans:{user}:events
	const prefix = "plans:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
