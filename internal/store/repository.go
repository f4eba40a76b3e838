// Package store persists day-partitioned alert and enrichment tables.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/pkg/logger"
)

const (
	alertsPrefix     = "alerts_"
	enrichmentPrefix = "enrichment_"
)

// Repository owns every read and write of the partition tables.
// Replaces hold the write lock for the whole transaction; queries share the read lock.
// ⭐ SSOT: 파티션 테이블 접근은 이 저장소에서만
type Repository struct {
	db     *sql.DB
	loc    *time.Location
	logger *logger.Logger
	mu     sync.RWMutex
}

// NewRepository creates a new partition repository
func NewRepository(db *sql.DB, loc *time.Location, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		loc:    loc,
		logger: log.WithModule("store"),
	}
}

// AlertsTable returns the alert partition name for date
func AlertsTable(date time.Time) string {
	return alertsPrefix + contracts.PartitionKey(date)
}

// EnrichmentTable returns the enrichment partition name for date
func EnrichmentTable(date time.Time) string {
	return enrichmentPrefix + contracts.PartitionKey(date)
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// ReplaceAlerts atomically swaps the alert partition of date for alerts.
// A partition that does not exist yet is created; any other delete error aborts.
func (r *Repository) ReplaceAlerts(ctx context.Context, date time.Time, alerts []contracts.Alert) error {
	table := AlertsTable(date)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil && !isMissingTable(err) {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	create := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol       TEXT NOT NULL,
			name         TEXT NOT NULL,
			ts           TEXT NOT NULL,
			volume       REAL,
			price        REAL,
			volume_ratio REAL,
			amount       REAL
		)`, table)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (symbol, name, ts, volume, price, volume_ratio, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		if _, err := stmt.ExecContext(ctx,
			a.Symbol, a.Name, a.Time.In(r.loc).Format(contracts.TimestampLayout),
			a.Volume, a.Price, a.VolumeRatio, a.Amount,
		); err != nil {
			return fmt.Errorf("insert alert %s: %w", a.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"table": table,
		"rows":  len(alerts),
	}).Info("Alert partition replaced")

	return nil
}

// ReplaceEnrichment drops and recreates the enrichment partition of date
func (r *Repository) ReplaceEnrichment(ctx context.Context, date time.Time, records []contracts.Enrichment) error {
	table := EnrichmentTable(date)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}

	create := fmt.Sprintf(`
		CREATE TABLE %s (
			symbol     TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			exchange   TEXT NOT NULL,
			board      TEXT NOT NULL,
			industry   TEXT,
			market_cap INTEGER,
			latest     REAL,
			pct_change REAL,
			open       REAL,
			high       REAL,
			low        REAL,
			limit_up   REAL
		)`, table)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (symbol, name, exchange, board, industry, market_cap,
			latest, pct_change, open, high, low, limit_up)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range records {
		if _, err := stmt.ExecContext(ctx,
			e.Symbol, e.Name, string(e.Exchange), e.Board, e.Industry, e.MarketCap,
			e.Latest, e.PctChange, e.Open, e.High, e.Low, e.LimitUp,
		); err != nil {
			return fmt.Errorf("insert enrichment %s: %w", e.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"table": table,
		"rows":  len(records),
	}).Info("Enrichment partition replaced")

	return nil
}

// LoadAlerts returns the alert partition of date in insertion order
func (r *Repository) LoadAlerts(ctx context.Context, date time.Time) ([]contracts.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := AlertsTable(date)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT symbol, name, ts, volume, price, volume_ratio, amount
		FROM %s ORDER BY rowid`, table))
	if err != nil {
		if isMissingTable(err) {
			return nil, contracts.ErrNoData
		}
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	var alerts []contracts.Alert
	for rows.Next() {
		var (
			a                            contracts.Alert
			ts                           string
			volume, price, ratio, amount sql.NullFloat64
		)
		if err := rows.Scan(&a.Symbol, &a.Name, &ts, &volume, &price, &ratio, &amount); err != nil {
			return nil, err
		}
		a.Time, err = time.ParseInLocation(contracts.TimestampLayout, ts, r.loc)
		if err != nil {
			return nil, fmt.Errorf("parse ts %q: %w", ts, err)
		}
		a.Volume = nullFloat(volume)
		a.Price = nullFloat(price)
		a.VolumeRatio = nullFloat(ratio)
		a.Amount = nullFloat(amount)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// DistinctSymbols returns each symbol of the alert partition once, first occurrence wins
func (r *Repository) DistinctSymbols(ctx context.Context, date time.Time) ([]contracts.StockRef, error) {
	alerts, err := r.LoadAlerts(ctx, date)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(alerts))
	refs := make([]contracts.StockRef, 0, len(alerts))
	for _, a := range alerts {
		if seen[a.Symbol] {
			continue
		}
		seen[a.Symbol] = true
		refs = append(refs, contracts.StockRef{Symbol: a.Symbol, Name: a.Name})
	}
	return refs, nil
}

// LoadEnrichment returns the enrichment partition of date ordered by symbol
func (r *Repository) LoadEnrichment(ctx context.Context, date time.Time) ([]contracts.Enrichment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := EnrichmentTable(date)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT symbol, name, exchange, board, industry, market_cap,
			latest, pct_change, open, high, low, limit_up
		FROM %s ORDER BY symbol`, table))
	if err != nil {
		if isMissingTable(err) {
			return nil, contracts.ErrNoData
		}
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	var records []contracts.Enrichment
	for rows.Next() {
		var (
			e                                     contracts.Enrichment
			exchange                              string
			industry                              sql.NullString
			marketCap                             sql.NullInt64
			latest, pct, open, high, low, limitUp sql.NullFloat64
		)
		if err := rows.Scan(&e.Symbol, &e.Name, &exchange, &e.Board, &industry, &marketCap,
			&latest, &pct, &open, &high, &low, &limitUp); err != nil {
			return nil, err
		}
		e.Exchange = contracts.Exchange(exchange)
		e.Industry = nullString(industry)
		e.MarketCap = nullInt(marketCap)
		e.Latest = nullFloat(latest)
		e.PctChange = nullFloat(pct)
		e.Open = nullFloat(open)
		e.High = nullFloat(high)
		e.Low = nullFloat(low)
		e.LimitUp = nullFloat(limitUp)
		records = append(records, e)
	}
	return records, rows.Err()
}

// HasPartitions reports whether both partitions of date exist
func (r *Repository) HasPartitions(ctx context.Context, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasPartitions(ctx, date)
}

func (r *Repository) hasPartitions(ctx context.Context, date time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?)`,
		AlertsTable(date), EnrichmentTable(date),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check partitions: %w", err)
	}
	return n == 2, nil
}

// Dates lists the days that have a complete pair of partitions, newest first
func (r *Repository) Dates(ctx context.Context) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND (name LIKE 'alerts_%' OR name LIKE 'enrichment_%')`)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		key := strings.TrimPrefix(strings.TrimPrefix(name, alertsPrefix), enrichmentPrefix)
		counts[key]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var dates []time.Time
	for key, n := range counts {
		if n != 2 {
			continue
		}
		d, err := time.ParseInLocation(contracts.PartitionLayout, key, r.loc)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// DropBefore drops every partition dated before cutoff's calendar day and returns how many tables went
func (r *Repository) DropBefore(ctx context.Context, cutoff time.Time) (int, error) {
	y, m, d := cutoff.In(r.loc).Date()
	limit := time.Date(y, m, d, 0, 0, 0, 0, r.loc)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND (name LIKE 'alerts_%' OR name LIKE 'enrichment_%')`)
	if err != nil {
		return 0, fmt.Errorf("list partitions: %w", err)
	}

	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, err
		}
		key := strings.TrimPrefix(strings.TrimPrefix(name, alertsPrefix), enrichmentPrefix)
		d, err := time.ParseInLocation(contracts.PartitionLayout, key, r.loc)
		if err != nil || !d.Before(limit) {
			continue
		}
		stale = append(stale, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, name := range stale {
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
			return 0, fmt.Errorf("drop %s: %w", name, err)
		}
	}

	if len(stale) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"cutoff":  contracts.PartitionKey(limit),
			"dropped": len(stale),
		}).Info("Old partitions dropped")
	}
	return len(stale), nil
}
