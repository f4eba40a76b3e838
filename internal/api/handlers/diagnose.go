package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/bigorder/internal/market"
	"github.com/wonny/bigorder/internal/narrative"
	"github.com/wonny/bigorder/pkg/logger"
)

// Diagnoser streams a narrative for one stock
type Diagnoser interface {
	Diagnose(ctx context.Context, symbol, name string, onChunk func(string) error) error
}

// DiagnoseHandler streams narrative chunks over a websocket
type DiagnoseHandler struct {
	diagnoser Diagnoser
	logger    *logger.Logger
}

// NewDiagnoseHandler creates a new diagnose handler; a nil diagnoser
// answers every stream with the not-configured failure
func NewDiagnoseHandler(diagnoser Diagnoser, log *logger.Logger) *DiagnoseHandler {
	return &DiagnoseHandler{
		diagnoser: diagnoser,
		logger:    log.WithModule("api"),
	}
}

// Stream sends chunk frames in order, then an inline error frame on failure, then done.
// Leaving the socket cancels the upstream call.
// GET /api/diagnose/{symbol}/ws?name=
func (h *DiagnoseHandler) Stream(w http.ResponseWriter, r *http.Request) {
	symbol := market.Normalize(mux.Vars(r)["symbol"])
	if !market.IsDigits(symbol) {
		respondError(w, http.StatusBadRequest, "symbol must be numeric")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = symbol
	}

	c, err := upgrade(w, r)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer c.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.gone:
			cancel()
		case <-ctx.Done():
		}
	}()

	err = narrative.ErrNotConfigured
	if h.diagnoser != nil {
		err = h.diagnoser.Diagnose(ctx, symbol, name, func(chunk string) error {
			return c.send(Message{Type: "chunk", Text: chunk})
		})
	}

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		h.logger.WithStock(symbol, name).WithError(err).Warn("Diagnosis failed")
		_ = c.send(Message{Type: "error", Text: narrative.FailurePrefix + err.Error()})
	}
	_ = c.send(Message{Type: "done"})
}
