package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgRunStarted     MessageType = "run_started"
	MsgRunProgress    MessageType = "run_progress"
	MsgRunCompleted   MessageType = "run_completed"
	MsgRunInterpreted MessageType = "run_interpreted"
	MsgRunFailed      MessageType = "run_failed"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for classification runs. Any number of
// analysts can watch one run; every event fans out to all of them.
type Hub struct {
	// Run -> connections
	watchers map[string]map[*Connection]bool

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage

	logger *zap.Logger
}

// Connection represents a WebSocket connection watching one run
type Connection struct {
	RunID     string
	AnalystID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast to a run's watchers
type BroadcastMessage struct {
	RunID   string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.RunID] == nil {
				h.watchers[conn.RunID] = make(map[*Connection]bool)
			}
			h.watchers[conn.RunID][conn] = true
			h.logger.Debug("analyst watching run",
				zap.String("analystId", conn.AnalystID),
				zap.String("runId", conn.RunID))
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.RunID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					h.logger.Debug("analyst stopped watching run",
						zap.String("analystId", conn.AnalystID),
						zap.String("runId", conn.RunID))
				}
				if len(conns) == 0 {
					delete(h.watchers, conn.RunID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.watchers[msg.RunID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastRunEvent sends a message to every watcher of a run (implements
// service.Broadcaster)
func (h *Hub) BroadcastRunEvent(runID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RunID: runID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
