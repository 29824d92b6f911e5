// Package handlers provides HTTP handlers for analysis sessions and the
// sampled efficient frontier.
package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/assets"
	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/session"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// Handler handles session and frontier HTTP requests.
type Handler struct {
	sessions *session.Service
	metrics  *frontier.MetricsCalculator
	analyzer *assets.Analyzer
	log      zerolog.Logger
}

// NewHandler creates a session handler.
func NewHandler(
	sessions *session.Service,
	metrics *frontier.MetricsCalculator,
	analyzer *assets.Analyzer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		analyzer: analyzer,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

// sessionSummary is the session representation returned to clients.
type sessionSummary struct {
	ID            string                 `json:"id"`
	CreatedAt     time.Time              `json:"created_at"`
	Symbols       []string               `json:"symbols"`
	Rows          int                    `json:"rows"`
	NumPortfolios int                    `json:"num_portfolios"`
	RiskFreeRate  float64                `json:"risk_free_rate"`
	MaxSharpe     *frontier.IndexedPoint `json:"max_sharpe,omitempty"`
	MinRisk       *frontier.IndexedPoint `json:"min_risk,omitempty"`
}

func summarize(a *session.Analysis) sessionSummary {
	summary := sessionSummary{
		ID:            a.ID,
		CreatedAt:     a.CreatedAt,
		Symbols:       a.Table.Symbols,
		Rows:          a.Table.Rows(),
		NumPortfolios: len(a.Population),
		RiskFreeRate:  a.RiskFreeRate,
	}
	if best, err := frontier.MaxSharpe(a.Population); err == nil {
		summary.MaxSharpe = &best
	}
	if safest, err := frontier.MinRisk(a.Population); err == nil {
		summary.MinRisk = &safest
	}
	return summary
}

// HandleCreateSession handles POST /api/sessions.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if req.NumPortfolios < 0 {
		h.writeError(w, http.StatusBadRequest, "num_portfolios must not be negative")
		return
	}

	analysis, err := h.sessions.Create(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, summarize(analysis))
}

// HandleGetSession handles GET /api/sessions/{id}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, summarize(analysis))
}

// HandleFrontier handles GET /api/sessions/{id}/frontier.
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}

	points := make([]frontier.IndexedPoint, len(analysis.Population))
	for i, point := range analysis.Population {
		points[i] = frontier.IndexedPoint{Index: i, PortfolioPoint: point}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": analysis.ID,
		"points":     points,
	})
}

// HandleMaxSharpe handles GET /api/sessions/{id}/frontier/max-sharpe.
func (h *Handler) HandleMaxSharpe(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}
	best, err := frontier.MaxSharpe(analysis.Population)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, best)
}

// HandleMinRisk handles GET /api/sessions/{id}/frontier/min-risk.
func (h *Handler) HandleMinRisk(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}
	safest, err := frontier.MinRisk(analysis.Population)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, safest)
}

// HandleEdge handles GET /api/sessions/{id}/frontier/edge?threshold=0.001.
func (h *Handler) HandleEdge(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}

	threshold := frontier.DefaultEdgeThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
		threshold = parsed
	}

	edge, err := frontier.NearMinRiskEdge(analysis.Population, threshold)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"points":    edge,
	})
}

// HandleResolve handles GET /api/sessions/{id}/frontier/{index}.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	point, err := frontier.Resolve(analysis.Population, index)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, point)
}

// metricsRequest carries a caller-supplied allocation as a weight vector
// aligned with the session's symbols, or as a symbol->weight map.
type metricsRequest struct {
	Weights      []float64          `json:"weights"`
	Allocations  map[string]float64 `json:"allocations"`
	RiskFreeRate *float64           `json:"risk_free_rate"`
}

// HandleMetrics handles POST /api/sessions/{id}/metrics. The body is
// either JSON (weights or allocations) or a CSV upload with Ticker and
// Weight columns. Tickers absent from the session's table are dropped.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}

	riskFree := analysis.RiskFreeRate
	var weights []float64

	if strings.Contains(r.Header.Get("Content-Type"), "text/csv") {
		parsed, err := parseAllocationCSV(r.Body, analysis.Table)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		weights = parsed
	} else {
		var req metricsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if req.RiskFreeRate != nil {
			riskFree = *req.RiskFreeRate
		}
		switch {
		case len(req.Weights) > 0:
			weights = req.Weights
		case len(req.Allocations) > 0:
			weights = make([]float64, analysis.Table.Columns())
			for symbol, weight := range req.Allocations {
				if col := analysis.Table.SymbolIndex(symbol); col >= 0 {
					weights[col] = weight
				}
			}
		default:
			h.writeError(w, http.StatusBadRequest, "weights or allocations required")
			return
		}
	}

	point, err := h.metrics.Metrics(analysis.Table, weights, riskFree)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":   analysis.Table.Symbols,
		"portfolio": point,
	})
}

// HandleAssets handles GET /api/sessions/{id}/assets.
func (h *Handler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analysis(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": analysis.ID,
		"assets":     h.analyzer.Analyze(analysis.Table),
	})
}

// parseAllocationCSV reads a ticker/weight CSV into a weight vector in the
// table's column order. Column headers are matched case-insensitively by
// substring, as uploads come from arbitrary spreadsheets.
func parseAllocationCSV(body io.Reader, table *domain.PriceTable) ([]float64, error) {
	records, err := csv.NewReader(body).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must contain a header row and at least one allocation")
	}

	tickerCol, weightCol := -1, -1
	for i, name := range records[0] {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "ticker") {
			tickerCol = i
		} else if strings.Contains(lower, "weight") {
			weightCol = i
		}
	}
	if tickerCol < 0 || weightCol < 0 {
		return nil, fmt.Errorf("CSV must contain Ticker and Weight columns")
	}

	weights := make([]float64, table.Columns())
	matched := 0
	for _, record := range records[1:] {
		if len(record) <= tickerCol || len(record) <= weightCol {
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[weightCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", record[weightCol], err)
		}
		if weight <= 0 {
			return nil, fmt.Errorf("all weights must be positive, got %g", weight)
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[tickerCol]))
		if col := table.SymbolIndex(symbol); col >= 0 {
			weights[col] = weight
			matched++
		}
	}
	if matched == 0 {
		return nil, fmt.Errorf("no uploaded ticker matches the session's assets")
	}
	return weights, nil
}

// analysis resolves the {id} URL parameter, writing a 404 when unknown.
func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) (*session.Analysis, bool) {
	id := chi.URLParam(r, "id")
	analysis, ok := h.sessions.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "Unknown session: "+id)
		return nil, false
	}
	return analysis, true
}

// writeEngineError maps typed engine failures onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, frontier.ErrIndexOutOfRange):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, frontier.ErrInvalidWeights),
		errors.Is(err, frontier.ErrInvalidSampleCount),
		errors.Is(err, frontier.ErrEmptyPopulation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, statistics.ErrInsufficientData),
		errors.Is(err, history.ErrNoData),
		errors.Is(err, frontier.ErrDegenerateRisk):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
