// Package relay exposes a multiplayer.Hub over websockets and provides the
// matching client connection.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// readLimit bounds a single envelope. A full snapshot is well under 4 KiB.
const readLimit = 64 << 10

// Config holds configuration for the relay server.
type Config struct {
	Addr         string        // Listen address, e.g. ":8080"
	WriteTimeout time.Duration // Per-envelope write deadline
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		WriteTimeout: 5 * time.Second,
	}
}

// Server serves the hub on /ws plus status routes.
type Server struct {
	config Config
	hub    *multiplayer.Hub
	logger *log.Logger
	router *mux.Router
	http   *http.Server
}

// NewServer creates a relay server for hub. A nil logger discards output.
func NewServer(cfg Config, hub *multiplayer.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}

	s := &Server{
		config: cfg,
		hub:    hub,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/ws", s.handleWS)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/rooms/{code:[0-9]{4}}", s.handleRoom).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("relay listening", "addr", s.config.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	ws.SetReadLimit(readLimit)

	peer := s.hub.Connect()
	s.logger.Info("client connected", "peer", peer.ID(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.hub.Disconnect(peer.ID())
		ws.Close(websocket.StatusNormalClosure, "")
		s.logger.Info("client disconnected", "peer", peer.ID())
	}()

	go s.writeLoop(ctx, cancel, ws, peer)

	for {
		var env multiplayer.Envelope
		if err := wsjson.Read(ctx, ws, &env); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.logger.Debug("read failed", "peer", peer.ID(), "err", err)
			}
			return
		}
		s.hub.Deliver(peer.ID(), env)
	}
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, peer *multiplayer.Peer) {
	defer cancel()
	for {
		select {
		case env := <-peer.Events():
			wctx, wcancel := context.WithTimeout(ctx, s.config.WriteTimeout)
			err := wsjson.Write(wctx, ws, env)
			wcancel()
			if err != nil {
				s.logger.Debug("write failed", "peer", peer.ID(), "err", err)
				return
			}
		case <-peer.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
	Peers  int    `json:"peers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Rooms:  s.hub.RoomCount(),
		Peers:  s.hub.PeerCount(),
	})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	status, ok := s.hub.Room(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": multiplayer.ReasonRoomNotFound})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
