package jobs

import (
	"context"
	"time"

	"github.com/wonny/bigorder/pkg/logger"
)

// ViewSweeper closes chart views nobody is watching anymore
type ViewSweeper interface {
	CloseStale(maxAge time.Duration) int
}

// ChartCleanupJob closes abandoned chart views
type ChartCleanupJob struct {
	views  ViewSweeper
	ttl    time.Duration
	logger *logger.Logger
}

// NewChartCleanupJob creates a new chart cleanup job
func NewChartCleanupJob(views ViewSweeper, ttl time.Duration, log *logger.Logger) *ChartCleanupJob {
	return &ChartCleanupJob{
		views:  views,
		ttl:    ttl,
		logger: log.WithModule("jobs"),
	}
}

// Name returns the job name
func (j *ChartCleanupJob) Name() string {
	return "chart_cleanup"
}

// Schedule returns the cron schedule (every 30 seconds)
func (j *ChartCleanupJob) Schedule() string {
	return "*/30 * * * * *"
}

// Run executes the view sweep
func (j *ChartCleanupJob) Run(ctx context.Context) error {
	if count := j.views.CloseStale(j.ttl); count > 0 {
		j.logger.WithField("closed", count).Info("Chart cleanup completed")
	}
	return nil
}

// PartitionDropper removes day partitions older than a cutoff
type PartitionDropper interface {
	DropBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// PartitionRetentionJob drops alert and enrichment partitions past the retention window
type PartitionRetentionJob struct {
	store  PartitionDropper
	days   int
	now    func() time.Time
	logger *logger.Logger
}

// NewPartitionRetentionJob creates a new retention job. days <= 0 disables it.
func NewPartitionRetentionJob(store PartitionDropper, days int, loc *time.Location, log *logger.Logger) *PartitionRetentionJob {
	return &PartitionRetentionJob{
		store:  store,
		days:   days,
		now:    func() time.Time { return time.Now().In(loc) },
		logger: log.WithModule("jobs"),
	}
}

// Name returns the job name
func (j *PartitionRetentionJob) Name() string {
	return "partition_retention"
}

// Schedule returns the cron schedule (daily at 02:30)
func (j *PartitionRetentionJob) Schedule() string {
	return "0 30 2 * * *"
}

// Run drops every partition older than the retention window
func (j *PartitionRetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return nil
	}

	cutoff := j.now().AddDate(0, 0, -j.days)
	dropped, err := j.store.DropBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"days":    j.days,
		"dropped": dropped,
	}).Info("Partition retention completed")
	return nil
}
