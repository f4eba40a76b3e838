package enricher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/pkg/logger"
)

type fakeSource struct {
	info     *eastmoney.Fundamentals
	quote    *eastmoney.Quote
	infoErr  error
	quoteErr error
}

func (f *fakeSource) FetchIndividualInfo(ctx context.Context, symbol string) (*eastmoney.Fundamentals, error) {
	return f.info, f.infoErr
}

func (f *fakeSource) FetchBidAsk(ctx context.Context, symbol string) (*eastmoney.Quote, error) {
	return f.quote, f.quoteErr
}

func TestEnrich(t *testing.T) {
	src := &fakeSource{
		info: &eastmoney.Fundamentals{
			Industry:  contracts.String("酿酒行业"),
			MarketCap: contracts.Float(2.1362e12),
		},
		quote: &eastmoney.Quote{
			Latest:    contracts.Float(1700.5),
			PctChange: contracts.Float(1.2),
			Open:      contracts.Float(1690),
			High:      contracts.Float(1710),
			Low:       contracts.Float(1685),
		},
	}

	rec, err := New(src, logger.Nop()).Enrich(context.Background(), contracts.StockRef{Symbol: "600519", Name: "贵州茅台"})
	require.NoError(t, err)

	assert.Equal(t, "600519", rec.Symbol)
	assert.Equal(t, contracts.ExchangeSH, rec.Exchange)
	assert.Equal(t, contracts.BoardSHMain, rec.Board)
	assert.Equal(t, "酿酒行业", *rec.Industry)
	assert.Equal(t, int64(21362), *rec.MarketCap)
	assert.Equal(t, 1700.5, *rec.Latest)
	assert.Nil(t, rec.LimitUp)
}

func TestEnrichAbsentFields(t *testing.T) {
	src := &fakeSource{info: &eastmoney.Fundamentals{}, quote: &eastmoney.Quote{}}

	rec, err := New(src, logger.Nop()).Enrich(context.Background(), contracts.StockRef{Symbol: "000001", Name: "平安银行"})
	require.NoError(t, err)
	assert.Nil(t, rec.Industry)
	assert.Nil(t, rec.MarketCap)
	assert.Nil(t, rec.Latest)
}

func TestEnrichFailure(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"info fails", &fakeSource{infoErr: errors.New("timeout")}},
		{"bid/ask fails", &fakeSource{info: &eastmoney.Fundamentals{}, quoteErr: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := New(tt.src, logger.Nop()).Enrich(context.Background(), contracts.StockRef{Symbol: "600000", Name: "浦发银行"})
			assert.Nil(t, rec)
			assert.ErrorContains(t, err, "enrich 600000")
		})
	}
}

func TestMarketCapYi(t *testing.T) {
	assert.Nil(t, MarketCapYi(nil))
	assert.Equal(t, int64(9), *MarketCapYi(contracts.Float(999999999)))
	assert.Equal(t, int64(10), *MarketCapYi(contracts.Float(1e9)))
}
