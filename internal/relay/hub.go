// Package relay is the real-time chat relay. Connections join rooms keyed by
// a conversation id; frames sent to a room reach every other member.
// Delivery is at-most-once with no replay: a full send buffer drops frames.
package relay

import (
	"sync"
)

const sendBuffer = 256

// Client is one relay connection.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
	rooms  map[string]struct{}
}

func NewClient(id, userID string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// Hub tracks clients and their room memberships. It is safe for concurrent
// use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{} // room -> members
	all   map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		all:   make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[c] = struct{}{}
}

// Unregister removes c from every room and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.all, c)
	close(c.Send)
}

// Join adds c to room. Joining twice is harmless.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Deliver queues data for every member of room except the client whose id
// is exclude, and returns how many members it reached.
func (h *Hub) Deliver(room string, data []byte, exclude string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.rooms[room] {
		if c.ID == exclude {
			continue
		}
		select {
		case c.Send <- data:
			n++
		default:
			// buffer full, drop
		}
	}
	return n
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
