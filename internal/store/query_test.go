package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/internal/contracts"
)

func seed(t *testing.T, repo *Repository, alerts []contracts.Alert, records []contracts.Enrichment) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.ReplaceAlerts(ctx, day, alerts))
	require.NoError(t, repo.ReplaceEnrichment(ctx, day, records))
}

func TestQueryMissingPartition(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.QueryResults(context.Background(), day, contracts.DefaultFilter())
	assert.ErrorIs(t, err, contracts.ErrNoData)

	// alerts alone are not enough
	require.NoError(t, repo.ReplaceAlerts(context.Background(), day, nil))
	_, err = repo.QueryResults(context.Background(), day, contracts.DefaultFilter())
	assert.ErrorIs(t, err, contracts.ErrNoData)
}

func TestQueryEmptyIsNotNoData(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		[]contracts.Alert{alertAt("600000", "浦发银行", "09:30:00", 1e6)},
		[]contracts.Enrichment{enrichmentOf("600000", "浦发银行", 2000, 1)},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.DefaultFilter())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestQueryTruncatesTotalAmount(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		[]contracts.Alert{
			alertAt("600000", "浦发银行", "09:30:00", 12999),
			alertAt("600000", "浦发银行", "09:31:00", 13000),
		},
		[]contracts.Enrichment{enrichmentOf("600000", "浦发银行", 2000, 1)},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].TotalAmount)
	assert.Equal(t, int64(2), rows[0].AlertCount)
	assert.Equal(t, "1万(2025-01-02 09:30:00)|1万(2025-01-02 09:31:00)", rows[0].Detail)
}

func TestQueryAmountBoundaryIsStrict(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		[]contracts.Alert{
			alertAt("600000", "浦发银行", "09:30:00", 2000e4),
			alertAt("600036", "招商银行", "09:30:00", 2001e4),
		},
		[]contracts.Enrichment{
			enrichmentOf("600000", "浦发银行", 2000, 1),
			enrichmentOf("600036", "招商银行", 8000, 1),
		},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "600036", rows[0].Symbol)
	assert.Equal(t, int64(2001), rows[0].TotalAmount)
}

func TestQueryMarketCapBoundaryIsInclusive(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		[]contracts.Alert{
			alertAt("600000", "浦发银行", "09:30:00", 1e8),
			alertAt("600036", "招商银行", "09:30:00", 1e8),
		},
		[]contracts.Enrichment{
			enrichmentOf("600000", "浦发银行", 9, 1),
			enrichmentOf("600036", "招商银行", 10, 1),
		},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "600036", rows[0].Symbol)
}

func TestQueryExcludesNullMarketCap(t *testing.T) {
	repo := newTestRepo(t)
	rec := enrichmentOf("600000", "浦发银行", 0, 1)
	rec.MarketCap = nil
	seed(t, repo,
		[]contracts.Alert{alertAt("600000", "浦发银行", "09:30:00", 1e8)},
		[]contracts.Enrichment{rec},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestQuerySortKeys(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		[]contracts.Alert{
			alertAt("600000", "浦发银行", "09:30:00", 5e7),
			alertAt("600036", "招商银行", "09:30:00", 3e7),
			alertAt("600036", "招商银行", "09:31:00", 3e7),
			alertAt("601988", "中国银行", "09:30:00", 9e7),
		},
		[]contracts.Enrichment{
			enrichmentOf("600000", "浦发银行", 2000, 3.5),
			enrichmentOf("600036", "招商银行", 8000, -1.0),
			enrichmentOf("601988", "中国银行", 9000, 0.5),
		},
	)

	tests := []struct {
		sort contracts.SortKey
		want []string
	}{
		{contracts.SortByTotalAmount, []string{"601988", "600036", "600000"}},
		{contracts.SortByPctChange, []string{"600000", "601988", "600036"}},
		// 600000 and 601988 tie at one alert; symbol breaks the tie
		{contracts.SortByAlertCount, []string{"600036", "600000", "601988"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			rows, err := repo.QueryResults(context.Background(), day, contracts.Filter{SortKey: tt.sort})
			require.NoError(t, err)

			got := make([]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Symbol)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryRejectsUnknownSortKey(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.QueryResults(context.Background(), day, contracts.Filter{SortKey: "name"})
	assert.ErrorContains(t, err, "unknown sort key")
}

func TestQueryCarriesEnrichmentFields(t *testing.T) {
	repo := newTestRepo(t)
	rec := enrichmentOf("600000", "浦发银行", 2000, 1.5)
	rec.Open = contracts.Float(9.8)
	rec.LimitUp = contracts.Float(10.78)
	seed(t, repo,
		[]contracts.Alert{alertAt("600000", "浦发银行", "09:30:00", 1e8)},
		[]contracts.Enrichment{rec},
	)

	rows, err := repo.QueryResults(context.Background(), day, contracts.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "浦发银行", r.Name)
	assert.Equal(t, "sh", r.Exchange)
	assert.Equal(t, contracts.BoardSHMain, r.Board)
	assert.Equal(t, "银行", *r.Industry)
	assert.Equal(t, int64(2000), *r.MarketCap)
	assert.Equal(t, 9.8, *r.Open)
	assert.Equal(t, 10.78, *r.LimitUp)
	assert.Nil(t, r.High)
	assert.Equal(t, int64(10000), r.TotalAmount)
}
