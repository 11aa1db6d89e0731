package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"inflate3d/core"
)

const (
	writeWait    = 10 * time.Second
	maxEventSize = 64 << 10
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// push queues msg, replacing an undelivered older message. A slow client
// only ever needs the newest mesh.
func (c *client) push(msg []byte) {
	select {
	case c.send <- msg:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) pushJSON(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.push(msg)
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}
	defer close(c.done)
	go c.writePump()

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
	}()
	s.logger.Debug("client connected", "remote", r.RemoteAddr)

	// Send initial mesh data
	err = s.do(r.Context(), func(sess *core.Session) bool {
		c.pushJSON(newMeshUpdate(sess.Frame()))
		return false
	})
	if err != nil {
		return
	}

	conn.SetReadLimit(maxEventSize)
	for {
		var msg ClientEvent
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "err", err)
			}
			return
		}
		if err := s.handleClientEvent(r, msg); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			c.pushJSON(ErrorMessage{Type: "error", Error: err.Error()})
		}
	}
}

func (s *Server) handleClientEvent(r *http.Request, msg ClientEvent) error {
	if msg.Type == "load" {
		_, err := s.LoadRemote(msg.URL)
		return err
	}
	ev, err := msg.Event()
	if err != nil {
		return err
	}

	var herr error
	err = s.do(r.Context(), func(sess *core.Session) bool {
		var changed bool
		changed, herr = sess.Handle(ev)
		// A transform with clamp off changes nothing to recompute but
		// clients still need the new matrix.
		return changed || herr == nil
	})
	if err != nil {
		return err
	}
	return herr
}

// broadcast runs on the session goroutine
func (s *Server) broadcast(update MeshUpdate) {
	msg, err := json.Marshal(update)
	if err != nil {
		s.logger.Error("encode mesh update", "err", err)
		return
	}
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		c.push(msg)
	}
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
}
