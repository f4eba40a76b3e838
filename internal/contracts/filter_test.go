package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		input   string
		want    SortKey
		wantErr bool
	}{
		{"", SortByTotalAmount, false},
		{"total_amount", SortByTotalAmount, false},
		{"pct_change", SortByPctChange, false},
		{"alert_count", SortByAlertCount, false},
		{"name; DROP TABLE x", "", true},
		{"TOTAL_AMOUNT", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortKey(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, int64(2000), f.MinAmount)
	assert.Equal(t, int64(10), f.MinMarketCap)
	assert.Equal(t, SortByTotalAmount, f.SortKey)
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{MinAmount: -200, MinMarketCap: -10}.Normalize()
	assert.Equal(t, int64(0), f.MinAmount)
	assert.Equal(t, int64(0), f.MinMarketCap)
	assert.Equal(t, SortByTotalAmount, f.SortKey)

	kept := Filter{MinAmount: 400, MinMarketCap: 30, SortKey: SortByAlertCount}.Normalize()
	assert.Equal(t, Filter{MinAmount: 400, MinMarketCap: 30, SortKey: SortByAlertCount}, kept)
}
