package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/wonny/bigorder/internal/market"
)

// Fundamentals holds the per-symbol info fields used for enrichment
type Fundamentals struct {
	Industry  *string
	MarketCap *float64 // raw currency units
}

// Quote holds the live bid/ask snapshot fields used for enrichment
type Quote struct {
	Latest    *float64
	PctChange *float64
	Open      *float64
	High      *float64
	Low       *float64
	LimitUp   *float64
}

type quoteResponse struct {
	RC   int                        `json:"rc"`
	Data map[string]json.RawMessage `json:"data"`
}

// fetchQuoteFields fetches the listed snapshot fields for one symbol
func (c *Client) fetchQuoteFields(ctx context.Context, symbol, fields string) (map[string]json.RawMessage, error) {
	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("ut", ut)
	params.Set("fields", fields)
	params.Set("secid", market.SecID(symbol))

	var resp quoteResponse
	if err := c.getJSON(ctx, c.quoteURL, "/api/qt/stock/get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	return resp.Data, nil
}

// FetchIndividualInfo fetches industry and total market cap
func (c *Client) FetchIndividualInfo(ctx context.Context, symbol string) (*Fundamentals, error) {
	data, err := c.fetchQuoteFields(ctx, symbol, "f57,f58,f116,f127")
	if err != nil {
		return nil, fmt.Errorf("individual info: %w", err)
	}

	return &Fundamentals{
		Industry:  stringField(data["f127"]),
		MarketCap: numberField(data["f116"]),
	}, nil
}

// FetchBidAsk fetches the live price snapshot
func (c *Client) FetchBidAsk(ctx context.Context, symbol string) (*Quote, error) {
	data, err := c.fetchQuoteFields(ctx, symbol, "f43,f44,f45,f46,f51,f57,f170")
	if err != nil {
		return nil, fmt.Errorf("bid/ask: %w", err)
	}

	return &Quote{
		Latest:    numberField(data["f43"]),
		PctChange: numberField(data["f170"]),
		Open:      numberField(data["f46"]),
		High:      numberField(data["f44"]),
		Low:       numberField(data["f45"]),
		LimitUp:   numberField(data["f51"]),
	}, nil
}
