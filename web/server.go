package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"markestedt/textrewriter/config"
	"markestedt/textrewriter/shortcut"
	"markestedt/textrewriter/storage"
	"markestedt/textrewriter/trigger"
	"markestedt/textrewriter/workflow"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// only the local settings page may connect
		origin := r.Header.Get("Origin")
		return origin == "" || isLocalOrigin(origin)
	},
}

// Controller is the part of the agent the settings page drives
type Controller interface {
	Config() config.Config
	UpdateConfig(fn func(*config.Config)) error
	Shortcuts() (all, highlighted shortcut.Shortcut)
	StartRecording(slot trigger.Slot)
	CancelRecording()
	ResetShortcut(slot trigger.Slot) error
	SetShortcut(slot trigger.Slot, s shortcut.Shortcut) error
	Status() string
	LastResult() (workflow.Result, bool)
	SetAPIKey(key string) error
	DeleteAPIKey() error
	HasAPIKey() bool
}

// Server represents the web server
type Server struct {
	ctrl Controller
	db   *storage.DB
	port int
	hub  *Hub
}

// NewServer creates a new web server. db may be nil when history is disabled.
func NewServer(ctrl Controller, db *storage.DB, port int) *Server {
	return &Server{
		ctrl: ctrl,
		db:   db,
		port: port,
		hub:  NewHub(),
	}
}

// Handler returns the HTTP handler serving the API, websocket and static files
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shortcuts", s.handleShortcuts)
	mux.HandleFunc("/api/shortcuts/record", s.handleRecord)
	mux.HandleFunc("/api/shortcuts/cancel", s.handleCancel)
	mux.HandleFunc("/api/shortcuts/reset", s.handleReset)
	mux.HandleFunc("/api/shortcuts/set", s.handleSetShortcut)
	mux.HandleFunc("/api/apikey", s.handleAPIKey)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistory)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return rejectCrossOrigin(mux), nil
}

// rejectCrossOrigin refuses state-changing requests sent by other sites
func rejectCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if origin := r.Header.Get("Origin"); origin != "" && !isLocalOrigin(origin) {
				slog.Warn("Rejected cross-origin request", "origin", origin, "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves on localhost until ctx is done
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Web server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting web server", "port", s.port, "url", s.URL())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// URL returns the settings page address
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// BroadcastStatus broadcasts a status update to all connected clients
func (s *Server) BroadcastStatus(status string) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: StatusMessage{Status: status},
	})
}

// BroadcastResult broadcasts a finished rewrite to all connected clients
func (s *Server) BroadcastResult(res workflow.Result) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeResult,
		Data: resultMessage(res),
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	if greeting, err := encodeMessage(Message{
		Type: MessageTypeStatus,
		Data: StatusMessage{Status: s.ctrl.Status()},
	}); err == nil {
		client.greeting = greeting
	}

	if !s.hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}
