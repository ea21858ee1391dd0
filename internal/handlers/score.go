package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"passgate/internal/score"
	"passgate/pkg/logging"
)

// ScoreHandler holds dependencies for the password scoring endpoint.
type ScoreHandler struct {
	Evaluator *score.Evaluator
}

func NewScoreHandler(evaluator *score.Evaluator) *ScoreHandler {
	return &ScoreHandler{Evaluator: evaluator}
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Score handles POST <prefix>/<endpoint>. Malformed input gets a 400;
// degraded evaluations (provider down, estimator failure) still answer
// 200 with ok=false; a client that disconnected mid-evaluation gets
// nothing at all.
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var req score.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "request body must be JSON with a string 'password' and optional string array 'context'",
		})
		return
	}

	res, err := h.Evaluator.Evaluate(ctx, req)
	if err != nil {
		var verr *score.ValidationError
		if errors.As(err, &verr) {
			logger.Warn("validation rejected", zap.String("reason", verr.Reason))
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Reason})
			return
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client is gone; writing to the closed connection helps no one.
			logger.Debug("evaluation abandoned",
				zap.Duration("total_latency_ms", time.Since(start)),
			)
			return
		}

		logger.Error("evaluation failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}

	logger.Info("evaluation_decision",
		zap.Bool("ok", res.OK),
		zap.Bool("cache_hit", res.Cached),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	h.writeJSON(w, http.StatusOK, res)
}

// writeJSON is a small helper to send JSON responses consistently.
func (h *ScoreHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
