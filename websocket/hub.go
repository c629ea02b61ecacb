package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	email string
	data  []byte
}

// Hub tracks connected clients by email and delivers events to them.
type Hub struct {
	clients    map[*Client]bool
	deliver    chan outbound
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// Client is one websocket connection. send is never closed; done is closed
// once when the hub drops the client, and every writer selects on it.
type Client struct {
	conn      *websocket.Conn
	email     string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	hub       *Hub
}

func newClient(conn *websocket.Conn, email string, hub *Hub) *Client {
	return &Client{
		conn:  conn,
		email: email,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		hub:   hub,
	}
}

// trySend queues data without blocking. It reports false when the buffer
// is full or the client was already dropped.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Authenticate maps a bearer token to the caller's email.
type Authenticate func(token string) (string, error)

func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		deliver:    make(chan outbound, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log,
	}
}

// Run owns the client registry until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client registered", zap.String("email", client.email), zap.Int("clients", h.Connected()))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.deliver:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				if client.email != msg.email {
					continue
				}
				if !client.trySend(msg.data) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.remove(client)
			}

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
	client.close()
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// SendTo queues an event for every connection of email. It never blocks
// the caller for long: once the hub is stopped events are dropped.
func (h *Hub) SendTo(email string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal websocket event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	select {
	case h.deliver <- outbound{email: email, data: data}:
	case <-h.quit:
	}
}

func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades authenticated requests. The token travels in the
// "token" query parameter because browsers cannot set headers on websocket
// handshakes.
func (h *Hub) Handler(authenticate Authenticate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		email, err := authenticate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "forbidden access"})
			return
		}

		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(conn, email, h)

		// Queued before registering so it always goes out first.
		welcome, _ := json.Marshal(Event{Type: "connected", Payload: gin.H{
			"email": email,
			"time":  time.Now().Unix(),
		}})
		client.trySend(welcome)

		select {
		case h.register <- client:
		case <-h.quit:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read error", zap.String("email", c.email), zap.Error(err))
			}
			return
		}

		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		if frame.Type == "ping" {
			pong, _ := json.Marshal(Event{Type: "pong", Payload: gin.H{"time": time.Now().Unix()}})
			c.trySend(pong)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
