// Package query runs filtered aggregations over a day's partitions and
// refreshes the spreadsheet snapshot on every successful query.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/refresh"
	"github.com/wonny/bigorder/pkg/logger"
)

// rerunTimeout bounds the follow-up query of a finished refresh
const rerunTimeout = 30 * time.Second

// Source is the store surface the engine reads
type Source interface {
	QueryResults(ctx context.Context, date time.Time, filter contracts.Filter) ([]contracts.ResultRow, error)
}

// Exporter receives the full result of every successful query
type Exporter interface {
	Write(rows []contracts.ResultRow) error
}

// FilterSource supplies the filter a follow-up query runs with
type FilterSource interface {
	Filter() contracts.Filter
}

// Result is one query outcome
type Result struct {
	Date   string                `json:"date"`
	Filter contracts.Filter      `json:"filter"`
	Rows   []contracts.ResultRow `json:"rows"`
}

// Engine executes queries
// ⭐ SSOT: 필터 → 쿼리 → 스냅샷 흐름은 여기서만
type Engine struct {
	source   Source
	exporter Exporter
	logger   *logger.Logger
}

// NewEngine creates a new query engine; exporter may be nil
func NewEngine(source Source, exporter Exporter, log *logger.Logger) *Engine {
	return &Engine{
		source:   source,
		exporter: exporter,
		logger:   log.WithModule("query"),
	}
}

// Query returns the rows of date passing filter.
// contracts.ErrNoData is passed through untouched so callers can tell it from an empty result.
func (e *Engine) Query(ctx context.Context, date time.Time, filter contracts.Filter) (*Result, error) {
	filter = filter.Normalize()

	rows, err := e.source.QueryResults(ctx, date, filter)
	if err != nil {
		if !errors.Is(err, contracts.ErrNoData) {
			e.logger.WithError(err).Error("Query failed")
		}
		return nil, err
	}

	if e.exporter != nil {
		if err := e.exporter.Write(rows); err != nil {
			e.logger.WithError(err).Warn("Export failed")
		}
	}

	return &Result{
		Date:   contracts.PartitionKey(date),
		Filter: filter,
		Rows:   rows,
	}, nil
}

// AfterRefresh returns a refresh hook that re-runs the query for the refreshed
// day with the filter current at that moment, so the snapshot follows every
// successful refresh. Failed runs leave the snapshot alone.
func (e *Engine) AfterRefresh(filters FilterSource, loc *time.Location) func(refresh.Status) {
	if loc == nil {
		loc = time.Local
	}

	return func(st refresh.Status) {
		if st.State != refresh.StateSucceeded {
			return
		}

		date, err := time.ParseInLocation(contracts.PartitionLayout, st.Date, loc)
		if err != nil {
			e.logger.WithField("date", st.Date).WithError(err).Warn("Refresh reported an unparsable date")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), rerunTimeout)
		defer cancel()

		res, err := e.Query(ctx, date, filters.Filter())
		if err != nil {
			e.logger.WithField("date", st.Date).WithError(err).Warn("Query after refresh failed")
			return
		}

		e.logger.WithFields(map[string]interface{}{
			"date": res.Date,
			"rows": len(res.Rows),
		}).Info("Results re-rendered after refresh")
	}
}
