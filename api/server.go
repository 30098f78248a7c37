// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, engine orchestration,
// output serialization. The API NEVER performs benchmark logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-benchmark/core/aggregation"
	"saas-benchmark/core/cache"
	"saas-benchmark/core/formulas"
	"saas-benchmark/core/processing"
	"saas-benchmark/core/types"
	"saas-benchmark/db"
	"saas-benchmark/internal/errors"
	"saas-benchmark/internal/logging"
)

// Server is the API server
type Server struct {
	mux         *http.ServeMux
	version     string
	store       db.ObservationStore
	processor   *processing.Processor
	resultCache *cache.Memory
	aggCfg      aggregation.Config
	logger      *zap.Logger
}

// NewServer creates an API server without a backing store; aggregation
// requests must carry inline observation batches.
func NewServer(version string, aggCfg aggregation.Config) *Server {
	return NewServerWithStore(version, aggCfg, nil, cache.NewMemory(10000))
}

// NewServerWithStore creates an API server backed by an observation store.
// A nil resultCache disables result caching.
func NewServerWithStore(version string, aggCfg aggregation.Config, store db.ObservationStore, resultCache *cache.Memory) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		version:     version,
		store:       store,
		processor:   processing.NewProcessor(aggCfg.OutlierThreshold),
		resultCache: resultCache,
		aggCfg:      aggCfg,
		logger:      logging.Named("api"),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /process", s.handleProcess)
	s.mux.HandleFunc("POST /aggregate/revenue-range", s.handleRevenueRange)
	s.mux.HandleFunc("POST /aggregate/time-period", s.handleTimePeriod)
	s.mux.HandleFunc("POST /percentiles", s.handlePercentiles)
	s.mux.HandleFunc("POST /comparison", s.handleComparison)

	// Formula endpoints
	s.mux.HandleFunc("POST /metrics/ndr", s.handleNDR)
	s.mux.HandleFunc("POST /metrics/magic-number", s.handleMagicNumber)
	s.mux.HandleFunc("POST /metrics/cac-payback", s.handleCACPayback)

	// Supporting endpoints
	s.mux.HandleFunc("POST /observations", s.handleSaveObservations)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("GET /cache/stats", s.handleCacheStats)
}

// handleProcess handles POST /process
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	dataset, err := s.processor.ProcessBatch(req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	records := make([]types.RawObservation, len(dataset.Records))
	for i, rec := range dataset.Records {
		records[i] = rec.Raw()
	}
	s.writeJSON(w, ProcessResponse{Summary: dataset.Summary, Records: records}, http.StatusOK)
}

// handleRevenueRange handles POST /aggregate/revenue-range
func (s *Server) handleRevenueRange(w http.ResponseWriter, r *http.Request) {
	var req RevenueRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	agg, err := s.buildAggregator(r, req.Metric, req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	report, err := agg.AggregateByRevenueRange(req.Metric, req.RevenueRanges)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, report, http.StatusOK)
}

// handleTimePeriod handles POST /aggregate/time-period
func (s *Server) handleTimePeriod(w http.ResponseWriter, r *http.Request) {
	var req TimePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	agg, err := s.buildAggregator(r, req.Metric, req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	report, err := agg.AggregateByTimePeriod(req.Metric, req.PeriodType, req.StartDate, req.EndDate)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, report, http.StatusOK)
}

// handlePercentiles handles POST /percentiles
func (s *Server) handlePercentiles(w http.ResponseWriter, r *http.Request) {
	var req PercentilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	agg, err := s.buildAggregator(r, req.Metric, req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	result, err := agg.ComputePercentiles(req.Metric, req.Percentiles, req.ExcludeOutliers)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleComparison handles POST /comparison
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	var req ComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	agg, err := s.buildAggregator(r, req.Metric, req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	report, err := agg.CompareToPeers(req.Metric, req.RevenueRange, req.CompanyValue)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, report, http.StatusOK)
}

// handleNDR handles POST /metrics/ndr
func (s *Server) handleNDR(w http.ResponseWriter, r *http.Request) {
	var req NDRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	value, err := formulas.NetDollarRetention(req.StartingARR, req.Expansions, req.Contractions, req.Churn)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, FormulaResponse{Metric: "NDR", Value: value}, http.StatusOK)
}

// handleMagicNumber handles POST /metrics/magic-number
func (s *Server) handleMagicNumber(w http.ResponseWriter, r *http.Request) {
	var req MagicNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	value, err := formulas.MagicNumber(req.NetNewARR, req.SalesMarketingSpend)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, FormulaResponse{Metric: "MagicNumber", Value: value}, http.StatusOK)
}

// handleCACPayback handles POST /metrics/cac-payback
func (s *Server) handleCACPayback(w http.ResponseWriter, r *http.Request) {
	var req CACPaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	value, err := formulas.CACPayback(req.CAC, req.ARPA, req.GrossMargin)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, FormulaResponse{Metric: "CACPayback", Value: value}, http.StatusOK)
}

// handleSaveObservations handles POST /observations
func (s *Server) handleSaveObservations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, "NO_STORE", "observation store not configured", http.StatusServiceUnavailable)
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	// Validate before persisting; the store only ever sees data that would
	// survive construction.
	for _, raw := range req.Observations {
		if _, err := types.NewObservation(raw); err != nil {
			s.writeEngineError(w, err)
			return
		}
	}

	saved, err := s.store.SaveBatch(r.Context(), req.Observations)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, SaveResponse{Saved: saved}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "saas-benchmark",
		"api_version": "v1",
	}, http.StatusOK)
}

// handleCacheStats handles GET /cache/stats
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.resultCache == nil {
		s.writeJSON(w, cache.Stats{}, http.StatusOK)
		return
	}
	s.writeJSON(w, s.resultCache.Stats(), http.StatusOK)
}

// buildAggregator assembles an aggregation engine over either an inline
// batch or stored observations for the metric. The result cache is shared
// across requests; datasets are rebuilt per call.
func (s *Server) buildAggregator(r *http.Request, metricID string, inline []types.RawObservation) (*aggregation.Aggregator, error) {
	batch := inline
	fromStore := false
	if len(batch) == 0 {
		if s.store == nil {
			return nil, errors.Validation("no observations provided and no store configured")
		}
		if metricID == "" {
			return nil, errors.Validation("metric name must be specified")
		}
		stored, err := s.store.List(r.Context(), metricID, "", nil, nil)
		if err != nil {
			return nil, err
		}
		if len(stored) == 0 {
			return nil, errors.NotFound("observations", metricID)
		}
		batch = stored
		fromStore = true
	}

	dataset, err := s.processor.ProcessBatch(batch)
	if err != nil {
		return nil, err
	}

	// Cached results are keyed by metric and parameters only, so the shared
	// cache applies to store-backed data. Inline batches vary per request
	// and must not hit it.
	var resultCache cache.Cache
	if fromStore && s.resultCache != nil {
		resultCache = s.resultCache
	}
	return aggregation.New(dataset, s.aggCfg, resultCache), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", uuid.NewString())
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]ErrorBody{
		"error": {Code: code, Message: message},
	}, status)
}

// writeEngineError maps engine errors to client responses: validation
// failures become a bad-input response carrying the human-readable reason,
// missing resources become 404, everything else becomes an opaque internal
// error. The error type travels in the code field, never in the message.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		switch e.Type {
		case errors.TypeValidation:
			s.writeError(w, string(e.Type), e.Message, http.StatusBadRequest)
			return
		case errors.TypeNotFound:
			s.writeError(w, string(e.Type), e.Message, http.StatusNotFound)
			return
		}
	}
	s.logger.Error("request failed", zap.Error(err))
	s.writeError(w, string(errors.TypeInternal), "internal error", http.StatusInternalServerError)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
