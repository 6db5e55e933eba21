package webserver

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// WSMessage is the envelope for every event pushed to clients.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	clientID string
}

type wsHubState struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan WSMessage
	mu         sync.RWMutex
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server only listens on the LAN hotspot.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var wsHub = &wsHubState{
	clients:    make(map[*wsClient]bool),
	register:   make(chan *wsClient),
	unregister: make(chan *wsClient),
	broadcast:  make(chan WSMessage, 256),
}

func (h *wsHubState) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info("WebSocket client connected",
				zap.String("clientId", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				logger.Error("Failed to marshal WebSocket message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					go func(c *wsClient) {
						h.unregister <- c
						c.conn.Close()
					}(client)
				}
			}
			h.mu.RUnlock()

		case <-ticker.C:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					go func(c *wsClient) {
						h.unregister <- c
						c.conn.Close()
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastWSMessage pushes one typed event to every connected client.
func BroadcastWSMessage(msgType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to marshal WebSocket broadcast data", zap.Error(err))
		return
	}

	select {
	case wsHub.broadcast <- WSMessage{Type: msgType, Data: jsonData}:
	default:
		logger.Warn("WebSocket broadcast channel full, message dropped")
	}
}

// BroadcastJobStatus notifies clients that a job changed state.
func BroadcastJobStatus(jobID, status, errMsg string) {
	BroadcastWSMessage("job_status", map[string]string{
		"id":     jobID,
		"status": status,
		"error":  errMsg,
	})
}

func handleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = fmt.Sprintf("ws-%d-%d", time.Now().UnixNano(), rand.Int63())
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, 256),
		clientID: clientID,
	}
	wsHub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		wsHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			break
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var wsHubOnce sync.Once

// RegisterWebSocketRoute registers /ws and starts the hub.
func RegisterWebSocketRoute(mux *http.ServeMux) {
	mux.HandleFunc("/ws", handleWS)
	wsHubOnce.Do(func() { go wsHub.run() })
}
