// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// # WebSocket Protocol

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 512
	sendBuffer     = 16
)

// Message types pushed to kiosk pages.
const (
	MessageState   = "state"
	MessageContent = "content"
)

// Message is one server push.
type Message struct {
	Type    string       `json:"type"`
	State   *State       `json:"state,omitempty"`
	Content *ContentView `json:"content,omitempty"`
}

// Command is one client request. Action is "next", "prev" or "jump".
type Command struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// Navigator is the part of the [Engine] a kiosk page may drive.
type Navigator interface {
	Next(manual bool) bool
	Prev(manual bool) bool
	JumpTo(index int) bool
}

// # Hub

// Hub fans engine states and content changes out to every connected page.
//
// A new connection first receives the latest state and content. A client
// whose send buffer is full is disconnected.
type Hub struct {
	navigator      Navigator
	allowedOrigins []string
	logger         *slog.Logger
	upgrader       websocket.Upgrader

	mu          sync.Mutex
	clients     map[*client]struct{}
	lastSeq     uint64
	lastState   []byte
	lastContent []byte
	closed      bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a hub that forwards client commands to navigator. A
// handshake is accepted from the same host or from allowedOrigins.
func NewHub(navigator Navigator, allowedOrigins []string, logger *slog.Logger) *Hub {
	hub := &Hub{
		navigator:      navigator,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		clients:        make(map[*client]struct{}),
	}
	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     hub.checkOrigin,
	}
	return hub
}

func (hub *Hub) checkOrigin(request *http.Request) bool {
	origin := request.Header.Get("Origin")
	if origin == "" || slices.Contains(hub.allowedOrigins, origin) {
		return true
	}
	parsed, err := url.Parse(origin)
	return err == nil && parsed.Host == request.Host
}

// BroadcastState pushes state. States older than the last one pushed are dropped.
func (hub *Hub) BroadcastState(state State) {
	payload, err := json.Marshal(Message{Type: MessageState, State: &state})
	if err != nil {
		hub.logger.Error("ws_encode_failed", slog.String("type", MessageState), slog.Any("error", err))
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.lastState != nil && state.Seq < hub.lastSeq {
		return
	}
	hub.lastSeq = state.Seq
	hub.lastState = payload
	hub.broadcastLocked(payload)
}

// BroadcastContent pushes the slide content of snapshot.
func (hub *Hub) BroadcastContent(snapshot Snapshot) {
	content := NewContentView(snapshot)
	payload, err := json.Marshal(Message{Type: MessageContent, Content: &content})
	if err != nil {
		hub.logger.Error("ws_encode_failed", slog.String("type", MessageContent), slog.Any("error", err))
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.lastContent = payload
	hub.broadcastLocked(payload)
}

func (hub *Hub) broadcastLocked(payload []byte) {
	for c := range hub.clients {
		select {
		case c.send <- payload:
		default:
			hub.logger.Warn("ws_client_dropped", slog.String("remote_addr", c.conn.RemoteAddr().String()))
			hub.removeLocked(c)
		}
	}
}

// ClientCount returns the number of connected pages.
func (hub *Hub) ClientCount() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}

// Close disconnects every client and refuses new ones.
func (hub *Hub) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.closed = true
	for c := range hub.clients {
		hub.removeLocked(c)
	}
}

func (hub *Hub) removeLocked(c *client) {
	if _, ok := hub.clients[c]; !ok {
		return
	}
	delete(hub.clients, c)
	close(c.send)
}

func (hub *Hub) remove(c *client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.removeLocked(c)
}

// # Connection Handling

/*
ServeHTTP upgrades the request and serves one kiosk page.

Description: The page first receives the latest state and content, then
every later push. Incoming text frames are decoded as [Command].
*/
func (hub *Hub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := hub.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		hub.logger.Debug("ws_upgrade_failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		_ = conn.Close()
		return
	}
	for _, payload := range [][]byte{hub.lastState, hub.lastContent} {
		if payload != nil {
			c.send <- payload
		}
	}
	hub.clients[c] = struct{}{}
	hub.mu.Unlock()

	hub.logger.Info("ws_client_connected", slog.String("remote_addr", conn.RemoteAddr().String()))

	go hub.writePump(c)
	hub.readPump(c)
}

func (hub *Hub) readPump(c *client) {
	defer func() {
		hub.remove(c)
		_ = c.conn.Close()
		hub.logger.Info("ws_client_disconnected", slog.String("remote_addr", c.conn.RemoteAddr().String()))
	}()

	c.conn.SetReadLimit(maxCommandSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Warn("ws_read_failed", slog.Any("error", err))
			}
			return
		}

		var command Command
		if err := json.Unmarshal(payload, &command); err != nil {
			hub.logger.Debug("ws_command_invalid", slog.Any("error", err))
			continue
		}
		hub.dispatch(command)
	}
}

func (hub *Hub) dispatch(command Command) {
	switch command.Action {
	case "next":
		hub.navigator.Next(true)
	case "prev":
		hub.navigator.Prev(true)
	case "jump":
		hub.navigator.JumpTo(command.Index)
	default:
		hub.logger.Debug("ws_command_unknown", slog.String("action", command.Action))
	}
}

func (hub *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
