// Package server exposes the dashboard over HTTP: a JSON API over the market
// data store and chart render queue, a WebSocket event stream, and the static
// dashboard bundle.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bobmcallan/marketview/internal/app"
	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/models"
	"github.com/bobmcallan/marketview/internal/services/chart"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app          *app.App
	server       *http.Server
	logger       *common.Logger
	hub          *Hub
	shutdownChan chan struct{}
	unsubscribe  []func()

	// serializes state events so the theme read matches the broadcast order
	stateMu sync.Mutex
}

// SetShutdownChannel sets the channel that will be signaled when HTTP shutdown is requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer creates the HTTP server and subscribes the event hub to the
// store and render queue.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
		hub:    NewHub(a.Logger, originChecker(a.Config.CORS.AllowedOrigins)),
	}

	s.unsubscribe = append(s.unsubscribe,
		a.Store.Subscribe(s.broadcastState),
		a.Scheduler.Subscribe(func(frame chart.Frame) {
			s.hub.Broadcast(EventFrame, frame)
		}),
	)

	s.server = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// broadcastState pushes a state event for state. The hub drops it when a
// newer state has already been sent.
func (s *Server) broadcastState(state models.SelectionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.hub.BroadcastVersion(EventState, state.Version, s.stateResponse(state))
}

// broadcastCurrentState snapshots the store under the same lock, so a theme
// change is never overtaken by an older state event.
func (s *Server) broadcastCurrentState() stateResponse {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	resp := s.stateResponse(s.app.Store.Snapshot())
	s.hub.BroadcastVersion(EventState, resp.Version, resp)
	return resp
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Hub returns the dashboard event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Str("static_dir", s.app.Config.Server.StaticDir).
		Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown detaches from the app, disconnects WebSocket clients and
// gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// originChecker mirrors the CORS allow-list for WebSocket upgrades.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[origin] {
			return true
		}
		// same-origin requests from the bundle we serve
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
