package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/bigorder/internal/announcement"
	"github.com/wonny/bigorder/pkg/logger"
)

// AnnouncementHandler manages the rotating banner texts
type AnnouncementHandler struct {
	store  *announcement.Store
	logger *logger.Logger
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(store *announcement.Store, log *logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		store:  store,
		logger: log.WithModule("api"),
	}
}

// AnnouncementRequest replaces the list; Text is split by line when Items is empty
type AnnouncementRequest struct {
	Items []string `json:"announcements"`
	Text  string   `json:"text"`
}

// List returns every announcement
// GET /api/announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"announcements": h.store.List(),
	})
}

// Next returns the next announcement in rotation
// GET /api/announcements/next
func (h *AnnouncementHandler) Next(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"text": h.store.Next(),
	})
}

// Save replaces the list
// PUT /api/announcements
func (h *AnnouncementHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req AnnouncementRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var items []string
	var err error
	if len(req.Items) > 0 {
		items, err = h.store.Save(req.Items)
	} else {
		items, err = h.store.SaveText(req.Text)
	}
	h.respondSaved(w, items, err)
}

// Reset restores the built-in announcements
// POST /api/announcements/reset
func (h *AnnouncementHandler) Reset(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Reset()
	h.respondSaved(w, items, err)
}

func (h *AnnouncementHandler) respondSaved(w http.ResponseWriter, items []string, err error) {
	if errors.Is(err, announcement.ErrEmpty) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to save announcements")
		respondError(w, http.StatusInternalServerError, "Failed to save announcements")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"announcements": items,
	})
}
