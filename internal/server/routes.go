package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bobmcallan/marketview/internal/services/chart"
)

// routes builds the router: API under /api, everything else from the bundle.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(recoveryMiddleware(s.logger))
	r.Use(middleware.RealIP)
	r.Use(newCORS(s.app.Config.CORS.AllowedOrigins))
	r.Use(correlationIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api", func(r chi.Router) {
		// System
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Post("/shutdown", s.handleShutdown)

		// Market data
		r.Get("/assets", s.handleAssets)
		r.Get("/ranges", s.handleRanges)
		r.Get("/state", s.handleState)
		r.Post("/select", s.handleSelect)
		r.Put("/range", s.handleRange)

		// Preferences
		r.Get("/preferences", s.handlePreferences)
		r.Put("/preferences/theme", s.handleTheme)
		r.Put("/preferences/api-key", s.handleAPIKey)

		// Chart
		r.Get("/chart", s.handleChart)
		r.Get("/chart.svg", s.handleChartImage(chart.FormatSVG))
		r.Get("/chart.png", s.handleChartImage(chart.FormatPNG))
		r.Post("/chart/resize", s.handleChartResize)

		// Event stream
		r.Get("/ws", s.hub.ServeWS)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			WriteErrorWithCode(w, http.StatusNotFound, "Not found", "not_found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			WriteErrorWithCode(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
		})
	})

	r.Handle("/*", newStaticHandler(s.app.Config.Server.StaticDir, s.logger))

	return r
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.app.Config.IsProduction() {
		WriteErrorWithCode(w, http.StatusForbidden, "Shutdown endpoint disabled in production", "forbidden")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
