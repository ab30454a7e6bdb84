// internal/api/match.go
package api

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/common/metrics"
	"lendermatch-workers/internal/common/observability"
	"lendermatch-workers/internal/matching"
	"lendermatch-workers/internal/models"
)

type MatchRequest struct {
	Loan    models.LoanApplication `json:"loan"`
	Lenders []models.LenderProfile `json:"lenders"`
}

type MatchResponse struct {
	Results        []models.MatchResult `json:"results"`
	TotalLenders   int                  `json:"totalLenders"`
	MatchedLenders int                  `json:"matchedLenders"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// MatchHandler serves POST /match: the loan and lender population come in the
// request body and the ranked results go straight back, no workflow involved.
type MatchHandler struct {
	logger  logger.Logger
	obs     *observability.Observability
	tracing *observability.Tracing
}

// NewMatchHandler builds the handler. obs and tracing may be nil; telemetry
// is then skipped rather than crashing the request path.
func NewMatchHandler(log logger.Logger, obs *observability.Observability, tracing *observability.Tracing) *MatchHandler {
	return &MatchHandler{
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
		obs:     obs,
		tracing: tracing,
	}
}

func (h *MatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req MatchRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		h.logger.Warn("rejecting malformed match request", map[string]interface{}{
			"error": err,
		})
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ctx := r.Context()
	if h.tracing != nil {
		var span trace.Span
		ctx, span = h.tracing.StartSpan(ctx, "match.request",
			attribute.Int("lenders", len(req.Lenders)),
		)
		defer span.End()
	}

	results := matching.Rank(&req.Loan, req.Lenders)

	if h.obs != nil {
		h.obs.RecordMatchRun(ctx, "completed", len(results))
	}
	metrics.MatchRunsTotal.WithLabelValues("completed").Inc()
	metrics.MatchLendersEvaluated.Observe(float64(len(req.Lenders)))
	metrics.MatchResultsReturned.Observe(float64(len(results)))
	if len(results) > 0 {
		metrics.MatchTopScore.Observe(results[0].MatchScore)
	}

	h.logger.Info("match request served", map[string]interface{}{
		"totalLenders":   len(req.Lenders),
		"matchedLenders": len(results),
	})

	writeJSON(w, http.StatusOK, MatchResponse{
		Results:        results,
		TotalLenders:   len(req.Lenders),
		MatchedLenders: len(results),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
