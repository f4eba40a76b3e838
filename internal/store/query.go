package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wonny/bigorder/internal/contracts"
)

// sortColumns whitelists the ORDER BY targets a sort key may select
var sortColumns = map[contracts.SortKey]string{
	contracts.SortByTotalAmount: "total_amount",
	contracts.SortByPctChange:   "pct_change",
	contracts.SortByAlertCount:  "alert_count",
}

// QueryResults joins both partitions of date, aggregates per symbol and
// returns the rows passing filter. Ties are broken by symbol ascending.
// Missing partitions yield contracts.ErrNoData; zero matching rows is an empty slice.
// ⭐ SSOT: 집계 쿼리는 여기서만
func (r *Repository) QueryResults(ctx context.Context, date time.Time, filter contracts.Filter) ([]contracts.ResultRow, error) {
	filter = filter.Normalize()
	orderBy, ok := sortColumns[filter.SortKey]
	if !ok {
		return nil, fmt.Errorf("unknown sort key %q", filter.SortKey)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	exists, err := r.hasPartitions(ctx, date)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, contracts.ErrNoData
	}

	query := fmt.Sprintf(`
		SELECT
			a.symbol,
			MIN(a.name),
			MIN(b.exchange),
			MIN(b.board),
			MIN(b.industry),
			MIN(b.market_cap),
			MIN(b.open),
			MIN(b.latest),
			MIN(b.pct_change) AS pct_change,
			MIN(b.low),
			MIN(b.high),
			MIN(b.limit_up),
			COUNT(1) AS alert_count,
			CAST(SUM(a.amount) / 10000 AS INTEGER) AS total_amount,
			GROUP_CONCAT(CAST(a.amount / 10000 AS INTEGER) || '万(' || a.ts || ')', '|' ORDER BY a.ts) AS detail
		FROM %s a
		JOIN %s b ON a.symbol = b.symbol
		WHERE b.market_cap >= ?
		GROUP BY a.symbol
		HAVING total_amount > ?
		ORDER BY %s DESC, a.symbol ASC`,
		AlertsTable(date), EnrichmentTable(date), orderBy)

	rows, err := r.db.QueryContext(ctx, query, filter.MinMarketCap, filter.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.ResultRow, 0)
	for rows.Next() {
		var (
			row                                   contracts.ResultRow
			industry, detail                      sql.NullString
			marketCap, total                      sql.NullInt64
			open, latest, pct, low, high, limitUp sql.NullFloat64
		)
		if err := rows.Scan(
			&row.Symbol, &row.Name, &row.Exchange, &row.Board, &industry, &marketCap,
			&open, &latest, &pct, &low, &high, &limitUp,
			&row.AlertCount, &total, &detail,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		row.Industry = nullString(industry)
		row.MarketCap = nullInt(marketCap)
		row.Open = nullFloat(open)
		row.Latest = nullFloat(latest)
		row.PctChange = nullFloat(pct)
		row.Low = nullFloat(low)
		row.High = nullFloat(high)
		row.LimitUp = nullFloat(limitUp)
		row.TotalAmount = total.Int64
		row.Detail = detail.String
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"date":           contracts.PartitionKey(date),
		"min_amount":     filter.MinAmount,
		"min_market_cap": filter.MinMarketCap,
		"sort":           filter.SortKey,
		"rows":           len(results),
	}).Debug("Query completed")

	return results, nil
}
