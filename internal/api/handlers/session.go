package handlers

import (
	"net/http"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/session"
)

// SessionHandler exposes the filter and column selection of the session
type SessionHandler struct {
	session *session.Session
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sess *session.Session) *SessionHandler {
	return &SessionHandler{session: sess}
}

// FilterState is the session's current filter and projection
type FilterState struct {
	Filter  contracts.Filter `json:"filter"`
	Columns []string         `json:"columns"`
}

// FilterRequest carries raw text input, parsed with the session's fallback rules
type FilterRequest struct {
	MinAmount    string   `json:"min_amount"`
	MinMarketCap string   `json:"min_market_cap"`
	Sort         string   `json:"sort"`
	Columns      []string `json:"columns"`
}

// StepRequest moves one bound by whole steps
type StepRequest struct {
	Field string `json:"field"` // amount, market_cap
	Steps int    `json:"steps"`
}

func (h *SessionHandler) state() FilterState {
	return FilterState{Filter: h.session.Filter(), Columns: h.session.Columns()}
}

// GetFilter returns the current filter
// GET /api/session/filter
func (h *SessionHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state())
}

// SetFilter applies raw filter input and an optional column selection
// POST /api/session/filter
func (h *SessionHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.session.Apply(req.MinAmount, req.MinMarketCap, req.Sort)
	if len(req.Columns) > 0 {
		h.session.SetColumns(req.Columns)
	}
	respondJSON(w, http.StatusOK, h.state())
}

// Step adjusts min amount by 200 or min market cap by 10 per step
// POST /api/session/filter/step
func (h *SessionHandler) Step(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Field {
	case "amount":
		h.session.StepAmount(req.Steps)
	case "market_cap":
		h.session.StepMarketCap(req.Steps)
	default:
		respondError(w, http.StatusBadRequest, "field must be one of: amount, market_cap")
		return
	}
	respondJSON(w, http.StatusOK, h.state())
}

// Reset restores the default filter and columns
// POST /api/session/filter/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	respondJSON(w, http.StatusOK, h.state())
}
