// Package enricher turns a symbol into its fundamental + live quote record.
package enricher

import (
	"context"
	"fmt"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/internal/market"
	"github.com/wonny/bigorder/pkg/logger"
)

// Source is the provider surface the enricher reads from
type Source interface {
	FetchIndividualInfo(ctx context.Context, symbol string) (*eastmoney.Fundamentals, error)
	FetchBidAsk(ctx context.Context, symbol string) (*eastmoney.Quote, error)
}

// Enricher builds enrichment records
// ⭐ SSOT: 종목 보강 레코드 조립은 여기서만
type Enricher struct {
	source Source
	logger *logger.Logger
}

// New creates a new Enricher
func New(source Source, log *logger.Logger) *Enricher {
	return &Enricher{
		source: source,
		logger: log.WithModule("enricher"),
	}
}

// Enrich fetches both snapshots of one symbol and assembles the record.
// Absent fields stay nil; a failed fetch fails only this symbol.
func (e *Enricher) Enrich(ctx context.Context, ref contracts.StockRef) (*contracts.Enrichment, error) {
	info, err := e.source.FetchIndividualInfo(ctx, ref.Symbol)
	if err != nil {
		e.logger.WithStock(ref.Symbol, ref.Name).WithError(err).Error("Failed to fetch individual info")
		return nil, fmt.Errorf("enrich %s: %w", ref.Symbol, err)
	}

	quote, err := e.source.FetchBidAsk(ctx, ref.Symbol)
	if err != nil {
		e.logger.WithStock(ref.Symbol, ref.Name).WithError(err).Error("Failed to fetch bid/ask")
		return nil, fmt.Errorf("enrich %s: %w", ref.Symbol, err)
	}

	exchange, board := market.Classify(ref.Symbol)

	return &contracts.Enrichment{
		Symbol:    ref.Symbol,
		Name:      ref.Name,
		Exchange:  exchange,
		Board:     board,
		Industry:  info.Industry,
		MarketCap: MarketCapYi(info.MarketCap),
		Latest:    quote.Latest,
		PctChange: quote.PctChange,
		Open:      quote.Open,
		High:      quote.High,
		Low:       quote.Low,
		LimitUp:   quote.LimitUp,
	}, nil
}

// MarketCapYi converts a raw market cap to 亿 (1e8), truncated
func MarketCapYi(raw *float64) *int64 {
	if raw == nil {
		return nil
	}
	v := int64(*raw / 1e8)
	return &v
}
