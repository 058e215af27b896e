package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Buffer sizes for the hub's queues and each client's outbound queue.
	hubQueueSize  = 256
	sendQueueSize = 64
)

// Hub keeps the registry of connected clients grouped by auction room and
// fans messages out to them. All registry changes happen on the Run goroutine.
type Hub struct {
	// rooms maps auction ID to its clients; the bool value is ignored.
	rooms      map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// InboundMessages carries client messages to module-specific handlers.
	InboundMessages chan *ClientMessage
}

// Client is one websocket connection joined to an auction room.
type Client struct {
	Hub *Hub
	// The websocket connection.
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send chan []byte
	// The auction room this client joined.
	AuctionID string
	// UserID is uuid.Nil for anonymous viewers.
	UserID uuid.UUID
	ID     string

	// mu guards closed so Reply never sends on a closed Send.
	mu     sync.Mutex
	closed bool
}

// Message is queued for every client in an auction room. When Render is set
// it builds the payload per client and Data is ignored; a nil payload skips
// that client.
type Message struct {
	AuctionID string
	Data      []byte
	Render    func(c *Client) []byte
}

// ClientMessage wraps data received from a client.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		rooms:           make(map[string]map[*Client]bool),
		broadcast:       make(chan *Message, hubQueueSize),
		register:        make(chan *Client, hubQueueSize),
		unregister:      make(chan *Client, hubQueueSize),
		InboundMessages: make(chan *ClientMessage, hubQueueSize),
	}
}

// NewClient builds a client for conn joined to auctionID.
func (h *Hub) NewClient(conn *websocket.Conn, auctionID string, userID uuid.UUID) *Client {
	return &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, sendQueueSize),
		AuctionID: auctionID,
		UserID:    userID,
		ID:        uuid.NewString(),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client's send queue so their write pumps say goodbye.
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.drainRegistrations()
			log.Info("WebSocket hub shutting down", zap.Int("clients", h.total()))
			for auctionID, clients := range h.rooms {
				for client := range clients {
					client.closeSend()
				}
				delete(h.rooms, auctionID)
			}
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.drainRegistrations()
			h.drop(client, "Client unregistered")

		case message := <-h.broadcast:
			h.drainRegistrations()
			clients, ok := h.rooms[message.AuctionID]
			if !ok {
				continue
			}
			log.Debug("Broadcasting message to auction room",
				zap.String("auctionID", message.AuctionID),
				zap.Int("clients", len(clients)),
			)
			for client := range clients {
				data := message.Data
				if message.Render != nil {
					data = message.Render(client)
				}
				if data == nil {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// a client that cannot keep up is dropped
					h.drop(client, "Client send queue full, unregistering")
				}
			}
		}
	}
}

func (h *Hub) add(client *Client) {
	if _, ok := h.rooms[client.AuctionID]; !ok {
		h.rooms[client.AuctionID] = make(map[*Client]bool)
	}
	h.rooms[client.AuctionID][client] = true
	log.Info("Client registered",
		zap.String("clientID", client.ID),
		zap.String("auctionID", client.AuctionID),
		zap.String("remote_addr", client.remoteAddr()),
		zap.Int("total_clients", h.total()),
	)
}

// drainRegistrations applies queued registrations first so a client never
// misses a message or a removal queued after it joined.
func (h *Hub) drainRegistrations() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		default:
			return
		}
	}
}

func (h *Hub) drop(client *Client, reason string) {
	clients, ok := h.rooms[client.AuctionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.rooms, client.AuctionID)
	}
	log.Info(reason,
		zap.String("clientID", client.ID),
		zap.String("auctionID", client.AuctionID),
		zap.String("remote_addr", client.remoteAddr()),
		zap.Int("total_clients", h.total()),
	)
}

func (h *Hub) total() int {
	count := 0
	for _, clients := range h.rooms {
		count += len(clients)
	}
	return count
}

// RegisterClient queues client for registration.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("Register queue is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

// UnregisterClient queues client for removal. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		log.Error("Unregister queue is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
	}
}

// Broadcast sends data to every client in the auction room.
func (h *Hub) Broadcast(auctionID string, data []byte) {
	h.enqueue(&Message{AuctionID: auctionID, Data: data})
}

// BroadcastFunc renders a payload per client in the auction room.
func (h *Hub) BroadcastFunc(auctionID string, render func(c *Client) []byte) {
	h.enqueue(&Message{AuctionID: auctionID, Render: render})
}

func (h *Hub) enqueue(m *Message) {
	select {
	case h.broadcast <- m:
	default:
		log.Error("Broadcast queue is full, message dropped", zap.String("auctionID", m.AuctionID))
	}
}

// Reply queues data for one client only.
func (c *Client) Reply(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn("Client send queue full, reply dropped",
			zap.String("clientID", c.ID),
			zap.String("auctionID", c.AuctionID),
		)
	}
}

// closeSend closes the outbound queue once; later replies are discarded.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) remoteAddr() string {
	if c.Conn == nil || c.Conn.Conn == nil {
		return ""
	}
	return c.Conn.RemoteAddr().String()
}

// ReadPump forwards client messages to the hub's InboundMessages channel. It
// runs on the connection's handler goroutine and returns when the peer leaves.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("auctionID", c.AuctionID),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub inbound queue is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("auctionID", c.AuctionID),
			)
		}
	}
}

// WritePump writes queued messages and pings to the connection. It is the
// only writer of the connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
