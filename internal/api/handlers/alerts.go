package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/query"
	"github.com/wonny/bigorder/internal/session"
	"github.com/wonny/bigorder/pkg/logger"
)

// Querier runs filtered result queries
type Querier interface {
	Query(ctx context.Context, date time.Time, filter contracts.Filter) (*query.Result, error)
}

// AlertHandler serves the aggregated result table
// ⭐ SSOT: 결과 조회 API는 이 핸들러에서만
type AlertHandler struct {
	engine  Querier
	session *session.Session
	loc     *time.Location
	now     func() time.Time
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(engine Querier, sess *session.Session, loc *time.Location, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		engine:  engine,
		session: sess,
		loc:     loc,
		now:     time.Now,
		logger:  log.WithModule("api"),
	}
}

// AlertsResponse is one projected result table
type AlertsResponse struct {
	Date    string                   `json:"date"`
	Filter  contracts.Filter         `json:"filter"`
	Columns []string                 `json:"columns"`
	Count   int                      `json:"count"`
	Rows    []map[string]interface{} `json:"rows"`
}

// GetAlerts returns the filtered rows of a day. Query parameters override
// the session filter for this request only.
// GET /api/alerts?min_amount=&min_market_cap=&sort=&date=&columns=
func (h *AlertHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := parseDate(q.Get("date"), h.now(), h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' (expected YYYYMMDD or YYYY-MM-DD)")
		return
	}

	if sort := q.Get("sort"); sort != "" {
		if _, err := contracts.ParseSortKey(sort); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	filter := h.session.Resolve(q.Get("min_amount"), q.Get("min_market_cap"), q.Get("sort"))

	columns := h.session.Columns()
	if raw := q.Get("columns"); raw != "" {
		columns = pickColumns(strings.Split(raw, ","), columns)
	}

	result, err := h.engine.Query(r.Context(), date, filter)
	if errors.Is(err, contracts.ErrNoData) {
		respondError(w, http.StatusNotFound, "no data for date "+contracts.PartitionKey(date))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to query alerts")
		return
	}

	respondJSON(w, http.StatusOK, AlertsResponse{
		Date:    result.Date,
		Filter:  result.Filter,
		Columns: columns,
		Count:   len(result.Rows),
		Rows:    contracts.Project(result.Rows, columns),
	})
}

// pickColumns keeps the known names of cols in order, or fallback if none are known
func pickColumns(cols, fallback []string) []string {
	known := make(map[string]bool, len(contracts.ResultColumns))
	for _, c := range contracts.ResultColumns {
		known[c] = true
	}

	picked := make([]string, 0, len(cols))
	for _, c := range cols {
		if c = strings.TrimSpace(c); known[c] {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		return fallback
	}
	return picked
}
