package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/bigorder/internal/scheduler"
)

// JobRunner reports scheduled job statistics and runs jobs on demand
type JobRunner interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(name string) error
}

// JobHandler exposes the scheduler
type JobHandler struct {
	jobs JobRunner
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobRunner) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GetStats returns statistics for every job
// GET /api/jobs
func (h *JobHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// Run runs a job immediately
// POST /api/jobs/{name}/run
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.jobs.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "job started", "job": name})
}
