// Package realtime pushes chat and booking events to connected WebSocket
// clients. Delivery is fire-and-forget: clients reconcile through the
// message history endpoint after reconnecting.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"tokenbook/internal/metrics"
)

const (
	EventNewMessage     = "new_message"
	EventMessageFlagged = "message_flagged"
	EventFlaggedMessage = "flagged_message"
	EventBookingStatus  = "booking_status"
)

// StaffRoom receives flagged-message alerts for bookings without an
// assigned monitor.
const StaffRoom = "staff"

const sendBuffer = 64

func BookingRoom(bookingID int) string {
	return fmt.Sprintf("booking_%d", bookingID)
}

type Event struct {
	Type string      `json:"type"`
	Room string      `json:"room,omitempty"`
	Data interface{} `json:"data"`
}

type Client struct {
	UserID int

	conn   *websocket.Conn
	send   chan Event
	ctx    context.Context
	cancel context.CancelFunc
}

type Hub struct {
	mu    sync.RWMutex
	users map[int]map[*Client]struct{}
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users: map[int]map[*Client]struct{}{},
		rooms: map[string]map[*Client]struct{}{},
	}
}

func newClient(userID int, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddClient registers conn and starts its writer and keep-alive loops.
func (h *Hub) AddClient(userID int, conn *websocket.Conn) *Client {
	c := newClient(userID, conn)
	h.attach(c)

	go c.writeLoop()
	go c.keepAliveLoop()

	return c
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[c.UserID] == nil {
		h.users[c.UserID] = map[*Client]struct{}{}
	}
	h.users[c.UserID][c] = struct{}{}
	metrics.WebSocketConnections.Inc()
}

func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	if set, ok := h.users[c.UserID]; ok {
		if _, present := set[c]; present {
			metrics.WebSocketConnections.Dec()
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.UserID)
		}
	}
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]struct{}{}
	}
	h.rooms[room][c] = struct{}{}
}

// JoinUser adds every live connection of userID to room.
func (h *Hub) JoinUser(userID int, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.users[userID] {
		if h.rooms[room] == nil {
			h.rooms[room] = map[*Client]struct{}{}
		}
		h.rooms[room][c] = struct{}{}
	}
}

func (h *Hub) BroadcastToRoom(room, eventType string, data interface{}) {
	ev := Event{Type: eventType, Room: room, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		c.deliver(ev)
	}
}

func (h *Hub) SendToUser(userID int, eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.users[userID] {
		c.deliver(ev)
	}
}

// deliver never blocks; a full buffer drops the event.
func (c *Client) deliver(ev Event) {
	select {
	case c.send <- ev:
	default:
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.send:
			writeCtx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
			_ = wsjson.Write(writeCtx, c.conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
			_ = c.conn.Ping(pingCtx)
			cancel()
		}
	}
}
