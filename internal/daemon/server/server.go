// Package server provides the HTTP server for the scribe daemon.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/scribe/internal/daemon/events"
	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/version"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// maxArgsBytes bounds the body of an invoke request. Images arrive inline
// as base64, so this is generous.
var maxArgsBytes int64 = 64 << 20

// Options configures the transports the server exposes.
type Options struct {
	// Listen is an optional TCP address served in addition to the socket.
	Listen string
	// AllowedOrigins lists the browser origins accepted by the invoke, stream
	// and websocket routes.
	// Empty means loopback origins only.
	AllowedOrigins []string
	// Websocket enables /api/ws.
	Websocket bool
}

// Suppressor is told about store writes the daemon performs itself.
type Suppressor interface {
	Suppress(name string)
}

// Info describes the running daemon. It is exposed via /api/info.
type Info struct {
	Version     string    `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	Socket      string    `json:"socket,omitempty"`
	Listen      string    `json:"listen,omitempty"`
	Commands    int       `json:"commands"`
	Subscribers int       `json:"subscribers"`
}

// Server serves the command registry over a unix socket and, optionally, TCP.
type Server struct {
	logger    *logrus.Entry
	hub       *events.Hub
	opts      Options
	upgrader  websocket.Upgrader
	startedAt time.Time

	mu         sync.RWMutex
	registry   *commands.Registry
	suppressor Suppressor
	servers    []*http.Server
	socketPath string
}

// New creates a Server dispatching to registry and broadcasting on hub.
func New(logger *logrus.Entry, registry *commands.Registry, hub *events.Hub, opts Options) *Server {
	s := &Server{
		logger:    logger,
		hub:       hub,
		opts:      opts,
		registry:  registry,
		startedAt: time.Now(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// SetRegistry swaps the registry, e.g. after the config file was reloaded.
func (s *Server) SetRegistry(registry *commands.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry
}

// SetSuppressor sets the watcher to notify before the daemon writes a store.
func (s *Server) SetSuppressor(sup Suppressor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressor = sup
}

func (s *Server) current() (*commands.Registry, Suppressor) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry, s.suppressor
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/commands", s.handleCommands)
	mux.HandleFunc("POST /api/invoke/{command}", s.withOrigin(s.handleInvoke))
	mux.HandleFunc("OPTIONS /api/invoke/{command}", s.withOrigin(handlePreflight))
	mux.HandleFunc("GET /api/stream", s.withOrigin(s.handleStream))
	if s.opts.Websocket {
		mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	}

	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe starts the daemon on the given unix socket path, plus the
// TCP address from Options when set. It blocks until a server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	listeners := []net.Listener{listener}
	if s.opts.Listen != "" {
		tcp, err := net.Listen("tcp", s.opts.Listen)
		if err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
		}
		listeners = append(listeners, tcp)
	}

	handler := s.Handler()
	s.mu.Lock()
	s.socketPath = socketPath
	for range listeners {
		s.servers = append(s.servers, &http.Server{Handler: handler})
	}
	servers := s.servers
	s.mu.Unlock()

	errCh := make(chan error, len(listeners))
	for i, l := range listeners {
		s.logger.WithField("addr", l.Addr().String()).Info("Daemon listening")
		go func(srv *http.Server, l net.Listener) {
			errCh <- srv.Serve(l)
		}(servers[i], l)
	}

	err = <-errCh
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops every listener and removes the socket.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.mu.Lock()
	servers := s.servers
	socketPath := s.socketPath
	s.servers = nil
	s.mu.Unlock()

	var result *multierror.Error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if socketPath != "" {
		if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, fmt.Errorf("failed to remove socket: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// Invoke runs a command and announces the stores it changed.
func (s *Server) Invoke(ctx context.Context, name string, args json.RawMessage, transport string) commands.Response {
	registry, sup := s.current()

	// The watcher sees our own write right after it lands, so it is told
	// beforehand.
	cmd, known := registry.Lookup(name)
	if known && sup != nil {
		for _, store := range cmd.Stores {
			sup.Suppress(store)
		}
	}

	resp := registry.Invoke(ctx, name, args)
	s.logger.WithFields(logrus.Fields{
		"command":   name,
		"transport": transport,
		"ok":        resp.OK(),
	}).Debug("Invoked")

	if resp.OK() && known {
		for _, store := range cmd.Stores {
			s.hub.StoreChanged(store, "command")
		}
	}
	return resp
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	registry, _ := s.current()

	s.mu.RLock()
	info := Info{
		Version:     version.GetInfo().Version,
		StartedAt:   s.startedAt,
		Socket:      s.socketPath,
		Listen:      s.opts.Listen,
		Commands:    len(registry.Names()),
		Subscribers: s.hub.Subscribers(),
	}
	s.mu.RUnlock()

	writeJSON(w, info)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	registry, _ := s.current()
	writeJSON(w, registry.Describe())
}

// handleInvoke runs one command. The request body is the JSON args object;
// command failures are reported in the response body, not the status code.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	// A JSON content type forces browsers to preflight cross-origin calls.
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArgsBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.Invoke(r.Context(), r.PathValue("command"), body, "http"))
}

// handleStream provides Server-Sent Events (SSE) for store and config
// changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Ensure the connection supports flushing
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	// Send initial ping to confirm connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal event")
				continue
			}
			// SSE format: "data: {json}\n\n"
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// wsRequest is one command sent over the websocket bridge.
type wsRequest struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// wsResponse answers the wsRequest with the same ID.
type wsResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// handleWebsocket serves the command bridge for web views. Requests are
// answered as they complete, so responses may arrive out of order; events
// from the hub are interleaved.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				if err := write(e); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	s.logger.Debug("Websocket client connected")

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).Debug("Websocket read ended")
			}
			cancel()
			return
		}
		if req.Command == "" {
			_ = write(wsResponse{ID: req.ID, Error: "missing command"})
			continue
		}

		inflight.Add(1)
		go func(req wsRequest) {
			defer inflight.Done()
			resp := s.Invoke(ctx, req.Command, req.Args, "websocket")
			if err := write(wsResponse{ID: req.ID, Result: resp.Result, Error: resp.Error}); err != nil {
				s.logger.WithError(err).Debug("Websocket write failed")
			}
		}(req)
	}
}

// withOrigin rejects browser requests from origins checkOrigin refuses and
// adds CORS headers for the accepted ones.
func (s *Server) withOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		next(w, r)
	}
}

// handlePreflight answers CORS preflight requests for the invoke route.
func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

// checkOrigin accepts requests without an Origin header, origins in the
// allow-list, and loopback origins when the allow-list is empty.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.opts.AllowedOrigins) > 0 {
		for _, allowed := range s.opts.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		s.logger.WithField("origin", origin).Warn("Rejected origin")
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	s.logger.WithField("origin", origin).Warn("Rejected origin")
	return false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
