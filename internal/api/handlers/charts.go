package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/bigorder/internal/chart"
	"github.com/wonny/bigorder/internal/market"
	"github.com/wonny/bigorder/pkg/logger"
)

// resultPoll bounds how late a websocket sees a result when another waiter took the signal
const resultPoll = 500 * time.Millisecond

// ChartHandler opens, streams and closes chart views
type ChartHandler struct {
	charts *chart.Service
	logger *logger.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(charts *chart.Service, log *logger.Logger) *ChartHandler {
	return &ChartHandler{
		charts: charts,
		logger: log.WithModule("api"),
	}
}

// Open opens the chart of a symbol, or returns the one already open
// POST /api/charts/{symbol}?name=
func (h *ChartHandler) Open(w http.ResponseWriter, r *http.Request) {
	symbol := market.Normalize(mux.Vars(r)["symbol"])
	if !market.IsDigits(symbol) {
		respondError(w, http.StatusBadRequest, "symbol must be numeric")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = symbol
	}

	respondJSON(w, http.StatusCreated, h.charts.Open(symbol, name))
}

// List returns every open view
// GET /api/charts
func (h *ChartHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.charts.List())
}

// Retry refetches a view's data
// POST /api/charts/{id}/retry
func (h *ChartHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.charts.Retry(mux.Vars(r)["id"]); err != nil {
		h.respondViewError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "retry started"})
}

// Close closes a view; a pending fetch result is discarded
// DELETE /api/charts/{id}
func (h *ChartHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.charts.Close(mux.Vars(r)["id"]); err != nil {
		h.respondViewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream pushes every result of a view until it closes or the client leaves
// GET /api/charts/{id}/ws
func (h *ChartHandler) Stream(w http.ResponseWriter, r *http.Request) {
	v, err := h.charts.Get(mux.Vars(r)["id"])
	if err != nil {
		h.respondViewError(w, err)
		return
	}

	c, err := upgrade(w, r)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer c.close()

	detach := v.Attach()
	defer detach()

	lastAttempt := 0
	push := func() error {
		res, ok := v.Latest()
		if !ok || res.Attempt == lastAttempt {
			return nil
		}
		lastAttempt = res.Attempt
		return c.send(Message{Type: "chart", Data: res})
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	poll := time.NewTicker(resultPoll)
	defer poll.Stop()

	if err := push(); err != nil {
		return
	}
	for {
		var err error
		select {
		case <-v.Updated():
			err = push()
		case <-poll.C:
			err = push()
		case <-ping.C:
			err = c.ping()
		case <-v.Done():
			_ = c.send(Message{Type: "done", Text: "view closed"})
			return
		case <-c.gone:
			return
		}
		if err != nil {
			return
		}
	}
}

func (h *ChartHandler) respondViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chart.ErrViewNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chart.ErrViewClosed):
		respondError(w, http.StatusGone, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
