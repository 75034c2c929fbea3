// Package hub provides connection management for WebSocket clients.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	hub    *Hub
}

// Hub manages all WebSocket connections, indexed by user so negotiation
// events reach every open tab of both parties.
type Hub struct {
	connections map[string]*Connection
	users       map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *UserMessage

	mu sync.RWMutex
}

// UserMessage is used to broadcast a payload to one user's connections.
type UserMessage struct {
	UserID string
	Data   []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		users:       make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *UserMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.UserID != "" {
				if h.users[conn.UserID] == nil {
					h.users[conn.UserID] = make(map[string]bool)
				}
				h.users[conn.UserID][conn.ID] = true
			}
			h.mu.Unlock()
			log.Printf("Connection registered: %s (user: %s)", conn.ID, conn.UserID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if conn.UserID != "" && h.users[conn.UserID] != nil {
					delete(h.users[conn.UserID], conn.ID)
					if len(h.users[conn.UserID]) == 0 {
						delete(h.users, conn.UserID)
					}
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Printf("Connection unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			if connIDs, ok := h.users[msg.UserID]; ok {
				for connID := range connIDs {
					if conn, exists := h.connections[connID]; exists {
						select {
						case conn.Send <- msg.Data:
						default:
							// Buffer full, drop the connection.
							log.Printf("Connection %s buffer full, closing", connID)
							go h.Unregister(conn)
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a connection bound to a user and registers it.
func (h *Hub) NewConnection(ws *websocket.Conn, userID string) *Connection {
	conn := &Connection{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   ws,
		Send:   make(chan []byte, 256),
		hub:    h,
	}
	h.register <- conn
	return conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// PushToUser serializes the payload and queues it for every connection of
// the user. Payloads for unknown users are silently dropped.
func (h *Hub) PushToUser(userID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal hub payload: %v", err)
		return
	}
	select {
	case h.broadcast <- &UserMessage{UserID: userID, Data: data}:
	default:
		log.Printf("WARN: hub broadcast buffer full, dropping event for %s", userID)
	}
}

// WritePump pumps messages from the Send channel to the socket.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains the socket until the peer closes, then unregisters.
func (c *Connection) ReadPump() {
	defer c.hub.Unregister(c)
	c.Conn.SetReadLimit(4096)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
