package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LargeBuyType is the feed category id for "大笔买入"
const LargeBuyType = 8193

// ErrEmptyFeed is returned when the alert feed carries no rows
var ErrEmptyFeed = errors.New("alert feed returned no rows")

// FeedRow is one raw row of the intraday change feed
type FeedRow struct {
	Symbol string
	Name   string
	Clock  string // HH:MM:SS
	Info   string // "volume,price,ratio,amount"
}

type changesResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		TC       int `json:"tc"`
		AllStock []struct {
			TM   int    `json:"tm"`
			Code string `json:"c"`
			Name string `json:"n"`
			Info string `json:"i"`
		} `json:"allstock"`
	} `json:"data"`
}

// FetchLargeBuyAlerts fetches today's large-buy-order rows
// ⭐ SSOT: 대량 매수 알림 피드 조회는 이 함수에서만
func (c *Client) FetchLargeBuyAlerts(ctx context.Context) ([]FeedRow, error) {
	params := url.Values{}
	params.Set("type", strconv.Itoa(LargeBuyType))
	params.Set("pageindex", "0")
	params.Set("pagesize", "5000")
	params.Set("ut", ut)
	params.Set("dpt", "wzchanges")

	var resp changesResponse
	if err := c.getJSON(ctx, c.changesURL, "/getAllStockChanges", params, &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil || len(resp.Data.AllStock) == 0 {
		return nil, ErrEmptyFeed
	}

	rows := make([]FeedRow, 0, len(resp.Data.AllStock))
	for _, s := range resp.Data.AllStock {
		clock, err := formatClock(s.TM)
		if err != nil {
			return nil, fmt.Errorf("malformed feed row %s: %w", s.Code, err)
		}
		rows = append(rows, FeedRow{
			Symbol: s.Code,
			Name:   s.Name,
			Clock:  clock,
			Info:   s.Info,
		})
	}

	c.logger.WithField("rows", len(rows)).Info("Fetched large buy alerts")
	return rows, nil
}

// formatClock turns the feed's HHMMSS integer (93005) into "09:30:05"
func formatClock(tm int) (string, error) {
	h, m, s := tm/10000, (tm/100)%100, tm%100
	if tm < 0 || h > 23 || m > 59 || s > 59 {
		return "", fmt.Errorf("invalid time-of-day %d", tm)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

// ParseInfo splits the compound info string into volume, price, ratio and amount.
// Missing or unparseable parts come back nil.
func ParseInfo(info string) (volume, price, ratio, amount *float64) {
	parts := strings.Split(info, ",")
	out := make([]*float64, 4)
	for i := 0; i < len(out) && i < len(parts); i++ {
		if f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64); err == nil {
			v := f
			out[i] = &v
		}
	}
	return out[0], out[1], out[2], out[3]
}
