package commands

import (
	"fmt"

	"github.com/wonny/bigorder/internal/announcement"
	"github.com/wonny/bigorder/internal/chart"
	"github.com/wonny/bigorder/internal/enricher"
	"github.com/wonny/bigorder/internal/export"
	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/internal/narrative"
	"github.com/wonny/bigorder/internal/query"
	"github.com/wonny/bigorder/internal/refresh"
	"github.com/wonny/bigorder/internal/session"
	"github.com/wonny/bigorder/internal/store"
	"github.com/wonny/bigorder/pkg/config"
	"github.com/wonny/bigorder/pkg/database"
	"github.com/wonny/bigorder/pkg/httputil"
	"github.com/wonny/bigorder/pkg/logger"
)

// referer is sent with every provider request; the quote endpoints reject bare clients
const referer = "https://quote.eastmoney.com/"

// app holds every wired component a command may need
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB

	eastmoney     *eastmoney.Client
	repo          *store.Repository
	orchestrator  *refresh.Orchestrator
	engine        *query.Engine
	exporter      *export.Exporter
	charts        *chart.Service
	session       *session.Session
	diagnoser     *narrative.Client // nil when AI_API_KEY is unset
	announcements *announcement.Store
}

// newApp loads config and wires the component graph
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	loc := cfg.Location()

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.WithField("path", db.Path()).Info("Opened database")

	httpClient := httputil.New(cfg, log).WithHeader("Referer", referer)
	em := eastmoney.NewClient(httpClient, cfg, log)

	repo := store.NewRepository(db.Conn, loc, log)
	orchestrator := refresh.New(em, enricher.New(em, log), repo, refresh.Config{
		Workers:  cfg.Refresh.Workers,
		Location: loc,
	}, log)

	exporter := export.NewExporter(cfg.ExportPath, log)
	charts := chart.NewService(em, chart.NewTradingCalendar(loc), cfg.Chart.Workers, log)

	a := &app{
		cfg:           cfg,
		log:           log,
		db:            db,
		eastmoney:     em,
		repo:          repo,
		orchestrator:  orchestrator,
		engine:        query.NewEngine(repo, exporter, log),
		exporter:      exporter,
		charts:        charts,
		session:       session.New(charts),
		announcements: announcement.NewStore(cfg.AnnouncementsFile, log),
	}

	// every successful refresh re-renders the result snapshot with the session filter
	orchestrator.OnComplete(a.engine.AfterRefresh(a.session, loc))

	if client, err := narrative.NewClient(cfg, log); err == nil {
		a.diagnoser = client
	} else {
		log.WithError(err).Warn("Narrative service disabled")
	}

	return a, nil
}

// Close releases the chart pool and the database
func (a *app) Close() {
	a.charts.Shutdown()
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close database")
	}
}
