package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/bigorder/internal/scheduler"
	"github.com/wonny/bigorder/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "定时任务管理",
	Long: `Runs the refresh and maintenance jobs on their cron schedules.

Subcommands:
  start   - run the scheduler until interrupted
  list    - list registered jobs and their schedules

Example:
  go run ./cmd/bigorder scheduler start
  go run ./cmd/bigorder scheduler list`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "启动定时任务",
		Long: `Starts the scheduler with every job registered:

- alert_refresh: REFRESH_SCHEDULE (default every 5 minutes, 09-15 on weekdays)
- chart_cleanup: every 30 seconds (closes unwatched views older than CHART_VIEW_TTL)
- partition_retention: daily at 02:30 (drops partitions older than PARTITION_RETENTION_DAYS)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "列出已注册任务",
		RunE:  listJobs,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

// buildScheduler registers every job against the app's components
func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.cfg.Location(), a.log)

	for _, job := range []scheduler.Job{
		jobs.NewRefreshJob(a.orchestrator, a.cfg.Refresh.Schedule, a.log),
		jobs.NewChartCleanupJob(a.charts, a.cfg.Chart.ViewTTL, a.log),
		jobs.NewPartitionRetentionJob(a.repo, a.cfg.Refresh.RetentionDays, a.cfg.Location(), a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := buildScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := buildScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	widths := []int{22, 24}
	PrintTableHeader([]string{"JOB", "SCHEDULE"}, widths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}
