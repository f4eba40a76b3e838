package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bigorder/internal/api"
	"github.com/wonny/bigorder/internal/api/handlers"
	"github.com/wonny/bigorder/internal/refresh"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动本地 API 服务",
	Long: `Starts the local HTTP API, and the scheduler unless --no-scheduler is set.

Endpoints:
  GET    /health
  GET    /api/alerts                 - filtered result table
  POST   /api/refresh                - start a refresh (409 while one runs)
  GET    /api/refresh/status
  GET    /api/session/filter         - POST to set, /step and /reset to adjust
  POST   /api/charts/{symbol}        - open a chart view
  GET    /api/charts/{id}/ws         - stream its result
  POST   /api/charts/{id}/retry
  DELETE /api/charts/{id}
  GET    /api/diagnose/{symbol}/ws   - stream the narrative
  GET    /api/announcements          - PUT to replace, /next, /reset
  GET    /api/jobs                   - scheduler stats

Example:
  go run ./cmd/bigorder serve
  go run ./cmd/bigorder serve --port 9000 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort   string
	noScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API port (default PORT)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not run scheduled jobs")
}

// diagnoserOrNil keeps a missing client from becoming a typed nil interface
func (a *app) diagnoserOrNil() handlers.Diagnoser {
	if a.diagnoser == nil {
		return nil
	}
	return a.diagnoser
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	a.orchestrator.OnComplete(func(st refresh.Status) {
		if st.State == refresh.StateSucceeded {
			a.log.WithFields(map[string]interface{}{
				"date":     st.Date,
				"enriched": st.Enriched,
				"failed":   st.Failed,
			}).Info("Data refreshed")
		}
	})

	h := api.Handlers{
		Alerts:        handlers.NewAlertHandler(a.engine, a.session, a.cfg.Location(), a.log),
		Refresh:       handlers.NewRefreshHandler(a.orchestrator, a.log),
		Session:       handlers.NewSessionHandler(a.session),
		Charts:        handlers.NewChartHandler(a.charts, a.log),
		Diagnose:      handlers.NewDiagnoseHandler(a.diagnoserOrNil(), a.log),
		Announcements: handlers.NewAnnouncementHandler(a.announcements, a.log),
		DB:            a.db,
	}

	if !noScheduler {
		sched, err := buildScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		h.Jobs = handlers.NewJobHandler(sched)
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
