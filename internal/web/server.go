// Package web provides the HTTP control and status server for the taskcore
// daemon, with live climate updates over WebSocket and server-sent events.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/sweeney/taskcore/internal/cell"
	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/status"
)

// Submitter accepts a command without blocking.
type Submitter[T any] interface {
	TrySubmit(T) bool
}

// Handles are the shared values the server reads and the queues it feeds.
type Handles struct {
	Tracker *status.Tracker
	Toggle  *cell.Cell[bool]
	Counter *cell.Cell[logic.CounterState]
	Climate *cell.Cell[logic.Reading]
	RGB     Submitter[logic.RGB]
	Servo   Submitter[logic.Angle]
	Hub     *Hub
	Start   time.Time
}

// Server serves the control endpoints and status page over HTTP.
type Server struct {
	httpServer *http.Server
	h          Handles
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// New creates a Server on addr backed by h.
func New(addr string, h Handles) *Server {
	s := &Server{
		h:   h,
		now: time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/counter", s.handleCounter)
	mux.HandleFunc("/toggle", s.handleToggle)
	mux.HandleFunc("/rgb", s.handleRGB)
	mux.HandleFunc("/servo", s.handleServo)
	mux.HandleFunc("/sensors", s.handleSensors)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) uptime() time.Duration {
	return s.now().Sub(s.h.Start)
}

func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, text)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.pageData())
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.h.Tracker.Snapshot()
	snap.State = s.state(snap.State)
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// state overlays the live cell values on the tracker's last copy.
func (s *Server) state(st status.State) status.State {
	st.Toggle = s.h.Toggle.Read()
	st.Counter = s.h.Counter.Read()
	st.Climate = s.h.Climate.Read()
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, status.OnOff(s.h.Toggle.Read()))
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	c := s.h.Counter.Read()
	writeText(w, http.StatusOK, strconv.FormatUint(uint64(c.Value), 10))
}

// handleToggle starts (state=1) or stops (any other value) the counter.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("state") {
		writeText(w, http.StatusBadRequest, "Missing state parameter")
		return
	}
	running := q.Get("state") == "1"
	s.h.Counter.Update(func(c *logic.CounterState) { c.Running = running })
	glog.V(1).Infof("web: counter running=%v", running)
	writeText(w, http.StatusOK, "OK")
}

func (s *Server) handleRGB(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("r") || !q.Has("g") || !q.Has("b") {
		writeText(w, http.StatusBadRequest, "Missing RGB parameters")
		return
	}
	var vals [3]int
	for i, k := range []string{"r", "g", "b"} {
		v, err := strconv.Atoi(q.Get(k))
		if err != nil || v < 0 || v > 255 {
			writeText(w, http.StatusBadRequest, "Invalid RGB parameters")
			return
		}
		vals[i] = v
	}
	cmd := logic.RGB{R: uint8(vals[0]), G: uint8(vals[1]), B: uint8(vals[2])}
	if !s.h.RGB.TrySubmit(cmd) {
		glog.Warningf("web: rgb queue full, dropped %v", cmd)
		writeText(w, http.StatusServiceUnavailable, "Queue full")
		return
	}
	writeText(w, http.StatusOK, "OK")
}

func (s *Server) handleServo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("value") {
		writeText(w, http.StatusBadRequest, "No value sent")
		return
	}
	v, err := strconv.Atoi(q.Get("value"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid value")
		return
	}
	a := logic.ClampAngle(v)
	if !s.h.Servo.TrySubmit(a) {
		glog.Warningf("web: servo queue full, dropped %d", a)
		writeText(w, http.StatusServiceUnavailable, "Queue full")
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Servo set to %d", a))
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(FormatSensor(s.h.Climate.Read(), s.uptime()))
}

// handleEvents streams climate updates as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sub, ok := s.h.Hub.subscribe(r.Context())
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.h.Hub.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	up := s.uptime()
	writeEvent(w, Message{Event: SensorEvent, ID: up.Milliseconds(), Data: FormatSensor(s.h.Climate.Read(), up)})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-sub.send:
			if !ok {
				return
			}
			writeEvent(w, m)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, m Message) {
	fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", m.Event, m.ID, m.Data)
}
