package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/refresh"
	"github.com/wonny/bigorder/pkg/logger"
)

type fakeRefresher struct {
	status refresh.Status
	err    error
	calls  int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (refresh.Status, error) {
	f.calls++
	return f.status, f.err
}

func TestRefreshJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"in_progress", contracts.ErrRefreshInProgress, false},
		{"failed", errors.New("refresh failed: feed down"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRefresher{err: tt.err}
			job := NewRefreshJob(r, "0 */5 9-15 * * 1-5", logger.Nop())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, r.calls)
			assert.Equal(t, "alert_refresh", job.Name())
			assert.Equal(t, "0 */5 9-15 * * 1-5", job.Schedule())
		})
	}
}

type fakeSweeper struct {
	ttl time.Duration
}

func (f *fakeSweeper) CloseStale(maxAge time.Duration) int {
	f.ttl = maxAge
	return 2
}

func TestChartCleanupJob(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewChartCleanupJob(sweeper, 30*time.Minute, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 30*time.Minute, sweeper.ttl)
	assert.Equal(t, "chart_cleanup", job.Name())
}

type fakeDropper struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakeDropper) DropBefore(ctx context.Context, cutoff time.Time) (int, error) {
	f.calls++
	f.cutoff = cutoff
	return 4, f.err
}

func TestPartitionRetentionJob(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	now := time.Date(2025, 3, 10, 2, 30, 0, 0, cst)

	dropper := &fakeDropper{}
	job := NewPartitionRetentionJob(dropper, 30, cst, logger.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -30), dropper.cutoff)

	dropper.err = errors.New("disk I/O error")
	assert.Error(t, job.Run(context.Background()))
}

func TestPartitionRetentionDisabled(t *testing.T) {
	dropper := &fakeDropper{}
	job := NewPartitionRetentionJob(dropper, 0, time.UTC, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, dropper.calls)
}
