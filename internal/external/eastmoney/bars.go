package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/bigorder/internal/market"
)

// Bar is one 1-minute OHLCV bar
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
	Amount float64   `json:"amount"`
}

type trendsResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Trends []string `json:"trends"`
	} `json:"data"`
}

const barLayout = "2006-01-02 15:04"

// FetchMinuteBars fetches the 1-minute bars of date between 09:00 and 15:00
func (c *Client) FetchMinuteBars(ctx context.Context, symbol string, date time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("fields1", "f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58")
	params.Set("ut", ut)
	params.Set("ndays", "5")
	params.Set("iscr", "0")
	params.Set("secid", market.SecID(symbol))

	var resp trendsResponse
	if err := c.getJSON(ctx, c.historyURL, "/api/qt/stock/trends2/get", params, &resp); err != nil {
		return nil, fmt.Errorf("minute bars: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("minute bars: no data for %s", symbol)
	}

	y, m, d := date.In(c.loc).Date()
	start := time.Date(y, m, d, 9, 0, 0, 0, c.loc)
	end := time.Date(y, m, d, 15, 0, 0, 0, c.loc)

	bars := make([]Bar, 0, 241)
	for _, line := range resp.Data.Trends {
		bar, err := parseTrend(line, c.loc)
		if err != nil {
			c.logger.WithField("line", line).WithError(err).Debug("Skipping malformed bar")
			continue
		}
		if bar.Time.Before(start) || bar.Time.After(end) {
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// parseTrend parses "YYYY-MM-DD HH:MM,open,close,high,low,volume,amount,avg"
func parseTrend(line string, loc *time.Location) (Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 7 {
		return Bar{}, fmt.Errorf("expected at least 7 fields, got %d", len(parts))
	}

	ts, err := time.ParseInLocation(barLayout, parts[0], loc)
	if err != nil {
		return Bar{}, fmt.Errorf("parse time: %w", err)
	}

	nums := make([]float64, 6)
	for i := range nums {
		nums[i], err = strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return Bar{}, fmt.Errorf("parse field %d: %w", i+1, err)
		}
	}

	return Bar{
		Time:   ts,
		Open:   nums[0],
		Close:  nums[1],
		High:   nums[2],
		Low:    nums[3],
		Volume: nums[4],
		Amount: nums[5],
	}, nil
}
