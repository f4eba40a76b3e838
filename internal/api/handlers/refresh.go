package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/refresh"
	"github.com/wonny/bigorder/pkg/logger"
)

// Runner starts background refreshes and reports the latest run
type Runner interface {
	Start(ctx context.Context) error
	Status() refresh.Status
}

// RefreshHandler triggers and reports refresh runs
type RefreshHandler struct {
	runner Runner
	logger *logger.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(runner Runner, log *logger.Logger) *RefreshHandler {
	return &RefreshHandler{
		runner: runner,
		logger: log.WithModule("api"),
	}
}

// Trigger starts a refresh. The run outlives the request.
// POST /api/refresh
func (h *RefreshHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	err := h.runner.Start(context.Background())
	if errors.Is(err, contracts.ErrRefreshInProgress) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "refresh already in progress",
			"status": h.runner.Status(),
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start refresh")
		respondError(w, http.StatusInternalServerError, "Failed to start refresh")
		return
	}

	h.logger.Info("Refresh triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "refresh started",
		"status":  h.runner.Status(),
	})
}

// GetStatus returns the running or last finished refresh
// GET /api/refresh/status
func (h *RefreshHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.runner.Status())
}
