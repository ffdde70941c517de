package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pksorensen/uxplay-windows-mcp/internal/metrics"
)

// Routes of the HTTP binding.
const (
	SSEPath      = "/sse"
	MessagesPath = "/messages"
)

// DefaultShutdownWait bounds how long Stop waits for in-flight work before
// abandoning the transport worker.
const DefaultShutdownWait = 2 * time.Second

// SSEServer is the HTTP event-stream binding. Each GET /sse opens a
// server-to-client stream and is issued an opaque session id; the client
// POSTs JSON-RPC requests to /messages with that id and responses are
// delivered on the correlated stream. The server runs on its own goroutine
// and never blocks its host.
type SSEServer struct {
	router *Router
	addr   string

	mu       sync.Mutex
	sessions map[string]chan Message
	srv      *http.Server
	closing  chan struct{}
	done     chan struct{}
}

// NewSSEServer builds a server that will bind to addr when started.
func NewSSEServer(addr string, router *Router) *SSEServer {
	return &SSEServer{
		router:   router,
		addr:     addr,
		sessions: make(map[string]chan Message),
	}
}

// Handler returns the HTTP handler; exposed for tests and embedding.
func (s *SSEServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET(SSEPath, s.handleSSE)
	g.POST(MessagesPath, s.handleMessage)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// Start launches the listener on a background goroutine. Starting an
// already-running server is a logged no-op.
func (s *SSEServer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		slog.Info("sse transport already running", "addr", s.addr)
		return
	}
	s.closing = make(chan struct{})
	s.done = make(chan struct{})
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	done := s.done
	go func() {
		defer close(done)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("sse transport failed", "addr", srv.Addr, "error", err)
		}
	}()
	slog.Info("sse transport started", "addr", s.addr)
}

// Stop asks the server to drain within wait. It does not interrupt in-flight
// handlers; if the worker is still alive after the window it is abandoned
// rather than blocking the host's exit.
func (s *SSEServer) Stop(wait time.Duration) {
	s.mu.Lock()
	srv := s.srv
	closing := s.closing
	done := s.done
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		slog.Info("sse transport not running")
		return
	}
	if wait <= 0 {
		wait = DefaultShutdownWait
	}
	close(closing)

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("sse transport did not drain in time, abandoning worker", "error", err)
		return
	}
	select {
	case <-done:
		slog.Info("sse transport stopped")
	case <-time.After(wait):
		slog.Warn("sse transport worker still alive after shutdown, abandoning")
	}
}

// Running reports whether the listener goroutine is up.
func (s *SSEServer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}

func (s *SSEServer) addSession() (string, chan Message, chan struct{}) {
	id := uuid.NewString()
	ch := make(chan Message, 16)
	s.mu.Lock()
	s.sessions[id] = ch
	closing := s.closing
	s.mu.Unlock()
	return id, ch, closing
}

func (s *SSEServer) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SSEServer) session(id string) (chan Message, bool) {
	s.mu.Lock()
	ch, ok := s.sessions[id]
	s.mu.Unlock()
	return ch, ok
}

// handleSSE owns one client stream: it announces the message endpoint with
// the issued session id, then relays queued responses until the client or
// the server goes away.
func (s *SSEServer) handleSSE(c *gin.Context) {
	id, ch, closing := s.addSession()
	defer s.removeSession(id)

	w := c.Writer
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: %s?session_id=%s\n\n", MessagesPath, id)
	w.Flush()
	slog.Info("sse session opened", "session", id)

	for {
		select {
		case msg := <-ch:
			data, err := json.Marshal(msg)
			if err != nil {
				slog.Error("failed to encode sse message", "session", id, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			w.Flush()
		case <-c.Request.Context().Done():
			slog.Info("sse session closed by client", "session", id)
			return
		case <-closing:
			slog.Info("sse session closed by shutdown", "session", id)
			return
		}
	}
}

// handleMessage accepts one client-to-server JSON-RPC message and answers
// 202; the actual response travels over the correlated event stream.
func (s *SSEServer) handleMessage(c *gin.Context) {
	id := c.Query("session_id")
	ch, ok := s.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session_id"})
		return
	}

	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON-RPC message: " + err.Error()})
		return
	}

	resp := s.dispatch(c.Request.Context(), msg)
	if resp != nil {
		select {
		case ch <- *resp:
		case <-c.Request.Context().Done():
			return
		}
	}
	c.Status(http.StatusAccepted)
}

// dispatch routes one decoded message and shapes the JSON-RPC response.
// Notifications produce nil.
func (s *SSEServer) dispatch(ctx context.Context, msg Message) *Message {
	result, errObj := s.router.Handle(ctx, msg.Method, msg.Params)
	if errObj != nil {
		return &Message{JSONRPC: "2.0", ID: msg.ID, Error: errObj}
	}
	if result == nil {
		if len(msg.ID) == 0 {
			return nil
		}
		return &Message{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`{}`)}
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return &Message{JSONRPC: "2.0", ID: msg.ID, Error: &ErrorObj{Code: CodeInternalError, Message: "failed to encode result"}}
	}
	return &Message{JSONRPC: "2.0", ID: msg.ID, Result: raw}
}
