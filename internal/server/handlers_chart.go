package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bobmcallan/marketview/internal/models"
	"github.com/bobmcallan/marketview/internal/services/chart"
)

// maxDimension caps requested chart sizes in pixels.
const maxDimension = 8192

var errInvalidDimension = errors.New("width and height must be positive numbers up to " + strconv.Itoa(maxDimension))

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type resizeResponse struct {
	Changed bool    `json:"changed"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// chartSize resolves the size for a one-off render: width/height query
// parameters when given, otherwise the last observed container size.
func (s *Server) chartSize(r *http.Request) (float64, float64, bool, error) {
	width, height := s.app.Scheduler.Size()
	w, wok, err := QueryDimension(r, "width")
	if err != nil {
		return 0, 0, false, err
	}
	h, hok, err := QueryDimension(r, "height")
	if err != nil {
		return 0, 0, false, err
	}
	if wok {
		width = w
	}
	if hok {
		height = h
	}
	return width, height, wok || hok, nil
}

// GET /api/chart
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	width, height, override, err := s.chartSize(r)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_size")
		return
	}

	if !override {
		s.app.Scheduler.Flush()
		if frame, ok := s.app.Scheduler.Last(); ok {
			WriteJSON(w, http.StatusOK, frame.Geometry)
			return
		}
	}

	state := s.app.Store.Snapshot()
	g := chart.Compute(state.Series, state.AccentColor(), models.ThemeTokensFor(s.app.Theme()), width, height)
	WriteJSON(w, http.StatusOK, g)
}

// handleChartImage serves GET /api/chart.svg and /api/chart.png.
func (s *Server) handleChartImage(format chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, height, _, err := s.chartSize(r)
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_size")
			return
		}

		state := s.app.Store.Snapshot()
		img, err := chart.RenderImage(format, state.Series, state.AccentColor(), models.ThemeTokensFor(s.app.Theme()), width, height)
		if err != nil {
			s.logger.Error().Err(err).Str("format", string(format)).Msg("Chart image render failed")
			WriteErrorWithCode(w, http.StatusInternalServerError, "Failed to render chart", "render_error")
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(img)
	}
}

// POST /api/chart/resize
func (s *Server) handleChartResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > maxDimension || req.Height > maxDimension {
		WriteErrorWithCode(w, http.StatusBadRequest, errInvalidDimension.Error(), "invalid_size")
		return
	}

	changed := s.app.Resize.Observe(req.Width, req.Height)
	WriteJSON(w, http.StatusOK, resizeResponse{Changed: changed, Width: req.Width, Height: req.Height})
}
