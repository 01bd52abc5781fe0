package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer
	},
}

// Client represents a WebSocket client
type Client struct {
	ID       string
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

// Hub maintains the set of active clients and routes messages to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx is cancelled. Once it returns the
// hub refuses new connections. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("websocket client connected", "user_id", client.ID, "user_type", client.UserType)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.log.Debug("websocket client disconnected", "user_id", client.ID)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// BroadcastToUser sends a message to every connection of a user. A client
// whose buffer is full misses the message.
func (h *Hub) BroadcastToUser(userID string, message []byte) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sent := 0
	for client := range h.clients {
		if client.ID != userID {
			continue
		}
		select {
		case client.Send <- message:
			sent++
		default:
			h.log.Warn("websocket send buffer full", "user_id", client.ID)
		}
	}
	return sent
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocketMessage is the envelope of every message pushed to clients
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SendToUser marshals an envelope and delivers it to the user's connections.
func (h *Hub) SendToUser(userID, msgType string, data interface{}) error {
	payload, err := json.Marshal(WebSocketMessage{Type: msgType, Data: data})
	if err != nil {
		return err
	}
	h.BroadcastToUser(userID, payload)
	return nil
}

// HandleWebSocket upgrades the request and attaches the connection to the hub
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection closing; clients send nothing
// the server acts on.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", "user_id", c.ID, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.Warn("websocket write failed", "user_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HubNotifier pushes ledger events to the driver and trip status changes to
// the trip's participants.
type HubNotifier struct {
	Hub *Hub
}

type financeMessage struct {
	TripID     string                    `json:"tripId,omitempty"`
	Finance    models.DriverFinance      `json:"finance"`
	Payment    *models.CommissionPayment `json:"payment,omitempty"`
	Completion *ledger.Completion        `json:"financial_update,omitempty"`
}

func (n HubNotifier) Notify(ctx context.Context, event ledger.Event) error {
	return n.Hub.SendToUser(event.DriverID, string(event.Type), financeMessage{
		TripID:     event.TripID,
		Finance:    event.Finance,
		Payment:    event.Payment,
		Completion: event.Completion,
	})
}

func (n HubNotifier) TripStatusChanged(ctx context.Context, trip models.Trip) {
	if err := n.Hub.SendToUser(trip.PassengerID, "trip_status", trip); err != nil {
		n.Hub.log.Warn("trip status push failed", "trip_id", trip.ID, "error", err)
		return
	}
	if trip.DriverID != nil {
		n.Hub.SendToUser(*trip.DriverID, "trip_status", trip)
	}
}
