package web

import (
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 512
)

// getDataRequest asks for the current reading immediately.
const getDataRequest = "getData"

// handleWS upgrades to a WebSocket that receives every climate broadcast.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("web: websocket upgrade: %v", err)
		return
	}
	sub, ok := s.h.Hub.subscribe(r.Context())
	if !ok {
		conn.Close()
		return
	}
	sub.offer(s.current())
	glog.V(1).Infof("web: websocket client %s connected", conn.RemoteAddr())

	go s.writePump(conn, sub)
	s.readPump(conn, sub)
}

func (s *Server) current() Message {
	up := s.uptime()
	return Message{Event: SensorEvent, ID: up.Milliseconds(), Data: FormatSensor(s.h.Climate.Read(), up)}
}

// readPump is the only reader on conn. It answers getData requests and
// unsubscribes when the client goes away.
func (s *Server) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() {
		s.h.Hub.unsubscribe(sub)
		conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				glog.Warningf("web: websocket read: %v", err)
			}
			return
		}
		if kind == websocket.TextMessage && string(msg) == getDataRequest {
			sub.offer(s.current())
		}
	}
}

// writePump is the only writer on conn.
func (s *Server) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case m, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, m.Data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
