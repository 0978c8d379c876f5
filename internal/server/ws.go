package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	outBuffer  = 256
)

// wsClient is one connected socket. Reads happen on the handler goroutine,
// writes on writeMsgLoop.
type wsClient struct {
	conn      *websocket.Conn
	outChan   chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
		close(c.done)
	})
}

// push queues a message without blocking; a client that cannot keep up
// loses it.
func (c *wsClient) push(data []byte) {
	select {
	case c.outChan <- data:
	case <-c.done:
	default:
		c.log.Warn("ws client too slow, dropping message", zap.String("addr", c.conn.RemoteAddr().String()))
	}
}

func (c *wsClient) writeMsgLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case data := <-c.outChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("ws write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{clients: make(map[*wsClient]struct{}), log: log}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg socketMsg) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("ws marshal", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.push(data)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// handleWS upgrades the connection and reads events until the client goes
// away. Effects reach the client through the hub; only errors for its own
// events are sent to it directly.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade", zap.Error(err))
		return
	}
	c := &wsClient{
		conn:    conn,
		outChan: make(chan []byte, outBuffer),
		done:    make(chan struct{}),
		log:     s.log,
	}
	s.hub.add(c)
	s.log.Info("ws client connected", zap.String("addr", conn.RemoteAddr().String()))
	defer func() {
		s.hub.remove(c)
		c.Close()
		s.log.Info("ws client disconnected", zap.String("addr", conn.RemoteAddr().String()))
	}()
	go c.writeMsgLoop()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg EventMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("ws read", zap.Error(err))
			}
			return
		}
		ev, err := msg.Event()
		if err == nil {
			_, err = s.apply(ev)
		}
		if err != nil {
			data, _ := json.Marshal(socketMsg{Error: err.Error()})
			c.push(data)
		}
	}
}
