package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected browser. StationID nil means the client sees every
// station (admins).
type Client struct {
	Conn      Conn
	StationID *uuid.UUID
}

func (c *Client) wants(stationID uuid.UUID) bool {
	return c.StationID == nil || stationID == uuid.Nil || *c.StationID == stationID
}

// Message is the JSON envelope pushed to clients.
type Message struct {
	Type      string      `json:"type"`
	StationID *uuid.UUID  `json:"station_id,omitempty"`
	Data      interface{} `json:"data"`
}

type outbound struct {
	stationID uuid.UUID
	data      []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan outbound
	quit       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		quit:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.Bool("all_stations", client.StationID == nil))

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.Clients {
				if !client.wants(msg.stationID) {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					client.Conn.Close()
					delete(h.Clients, client)
				}
			}
			h.mutex.Unlock()

		case <-h.quit:
			h.mutex.Lock()
			for client := range h.Clients {
				client.Conn.Close()
				delete(h.Clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	close(h.quit)
}

// Add registers a client. It is a no-op once the hub has stopped.
func (h *Hub) Add(client *Client) {
	select {
	case h.Register <- client:
	case <-h.quit:
	}
}

// Remove unregisters a client. After Stop the connection was already closed
// by Run, so it returns without waiting.
func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.quit:
	}
}

// Publish sends an event to clients watching stationID. uuid.Nil reaches everyone.
func (h *Hub) Publish(stationID uuid.UUID, event string, payload interface{}) {
	msg := Message{Type: event, Data: payload}
	if stationID != uuid.Nil {
		msg.StationID = &stationID
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal event", zap.String("type", event), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{stationID: stationID, data: data}:
	case <-h.quit:
	}
}

// ClientCount reports open connections for /health.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
