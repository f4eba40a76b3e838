package jobs

import (
	"context"
	"errors"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/refresh"
	"github.com/wonny/bigorder/pkg/logger"
)

// Refresher runs one alert refresh to completion
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Status, error)
}

// RefreshJob rebuilds today's alert and enrichment partitions on a schedule
type RefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(refresher Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log.WithModule("jobs"),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "alert_refresh"
}

// Schedule returns the configured cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one refresh. A refresh already in flight counts as success.
func (j *RefreshJob) Run(ctx context.Context) error {
	status, err := j.refresher.Refresh(ctx)
	if errors.Is(err, contracts.ErrRefreshInProgress) {
		j.logger.WithField("started_at", status.StartedAt).Info("Refresh already running, skipped")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"date":     status.Date,
		"enriched": status.Enriched,
		"failed":   status.Failed,
	}).Debug("Scheduled refresh finished")
	return nil
}
