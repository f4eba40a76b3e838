package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/bigorder/internal/api/handlers"
	"github.com/wonny/bigorder/pkg/database"
	"github.com/wonny/bigorder/pkg/logger"
)

// HealthChecker reports the state of the backing store
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// Handlers groups every endpoint handler; Jobs and DB may be nil
type Handlers struct {
	Alerts        *handlers.AlertHandler
	Refresh       *handlers.RefreshHandler
	Session       *handlers.SessionHandler
	Charts        *handlers.ChartHandler
	Diagnose      *handlers.DiagnoseHandler
	Announcements *handlers.AnnouncementHandler
	Jobs          *handlers.JobHandler
	DB            HealthChecker
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler(h.DB)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Results
	api.HandleFunc("/alerts", h.Alerts.GetAlerts).Methods("GET")

	// Refresh
	api.HandleFunc("/refresh", h.Refresh.Trigger).Methods("POST")
	api.HandleFunc("/refresh/status", h.Refresh.GetStatus).Methods("GET")

	// Session filter
	api.HandleFunc("/session/filter", h.Session.GetFilter).Methods("GET")
	api.HandleFunc("/session/filter", h.Session.SetFilter).Methods("POST")
	api.HandleFunc("/session/filter/step", h.Session.Step).Methods("POST")
	api.HandleFunc("/session/filter/reset", h.Session.Reset).Methods("POST")

	// Charts
	api.HandleFunc("/charts", h.Charts.List).Methods("GET")
	api.HandleFunc("/charts/{symbol}", h.Charts.Open).Methods("POST")
	api.HandleFunc("/charts/{id}", h.Charts.Close).Methods("DELETE")
	api.HandleFunc("/charts/{id}/retry", h.Charts.Retry).Methods("POST")
	api.HandleFunc("/charts/{id}/ws", h.Charts.Stream).Methods("GET")

	// Narrative
	api.HandleFunc("/diagnose/{symbol}/ws", h.Diagnose.Stream).Methods("GET")

	// Announcements
	api.HandleFunc("/announcements", h.Announcements.List).Methods("GET")
	api.HandleFunc("/announcements", h.Announcements.Save).Methods("PUT")
	api.HandleFunc("/announcements/next", h.Announcements.Next).Methods("GET")
	api.HandleFunc("/announcements/reset", h.Announcements.Reset).Methods("POST")

	// Scheduler
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.GetStats).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", h.Jobs.Run).Methods("POST")
	}

	log = log.WithModule("http")
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status with the database check
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "bigorder-api",
		}
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health, err := db.HealthCheck(ctx)
			if err != nil {
				body["status"], code = "degraded", http.StatusServiceUnavailable
			}
			if health != nil {
				body["database"] = health
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
