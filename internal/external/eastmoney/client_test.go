package eastmoney

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/pkg/config"
	"github.com/wonny/bigorder/pkg/httputil"
	"github.com/wonny/bigorder/pkg/logger"
)

var cst = time.FixedZone("CST", 8*3600)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Timezone: "Asia/Shanghai",
		Eastmoney: config.EastmoneyConfig{
			ChangesURL: server.URL,
			QuoteURL:   server.URL + "/",
			HistoryURL: server.URL,
			RateLimit:  100,
			Timeout:    2 * time.Second,
		},
	}
	hc := httputil.New(cfg, logger.Nop()).DisableRetry()
	c := NewClient(hc, cfg, logger.Nop())
	c.loc = cst
	return c
}

func TestFetchLargeBuyAlerts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getAllStockChanges", r.URL.Path)
		assert.Equal(t, "8193", r.URL.Query().Get("type"))
		w.Write([]byte(`{"rc":0,"data":{"tc":2,"allstock":[
			{"tm":93005,"c":"600519","m":1,"n":"贵州茅台","t":8193,"i":"1200,1700.50,0.0012,2040600.00"},
			{"tm":141501,"c":"000001","m":0,"n":"平安银行","t":8193,"i":"50000,10.20,0.01,510000.00"}
		]}}`))
	})

	rows, err := c.FetchLargeBuyAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, FeedRow{Symbol: "600519", Name: "贵州茅台", Clock: "09:30:05", Info: "1200,1700.50,0.0012,2040600.00"}, rows[0])
	assert.Equal(t, "14:15:01", rows[1].Clock)
}

func TestFetchLargeBuyAlertsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null data", `{"rc":0,"data":null}`},
		{"empty list", `{"rc":0,"data":{"tc":0,"allstock":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.FetchLargeBuyAlerts(context.Background())
			assert.ErrorIs(t, err, ErrEmptyFeed)
		})
	}
}

func TestFetchLargeBuyAlertsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	_, err := c.FetchLargeBuyAlerts(context.Background())
	assert.ErrorContains(t, err, "decode response")
}

func TestFetchLargeBuyAlertsBadClock(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":{"allstock":[{"tm":996199,"c":"600519","n":"x","i":""}]}}`))
	})
	_, err := c.FetchLargeBuyAlerts(context.Background())
	assert.ErrorContains(t, err, "invalid time-of-day")
}

func TestParseInfo(t *testing.T) {
	vol, price, ratio, amount := ParseInfo("1200,1700.5,0.0012,2040600")
	require.NotNil(t, vol)
	assert.Equal(t, 1200.0, *vol)
	assert.Equal(t, 1700.5, *price)
	assert.Equal(t, 0.0012, *ratio)
	assert.Equal(t, 2040600.0, *amount)

	vol, price, ratio, amount = ParseInfo("abc,1.5,,")
	assert.Nil(t, vol)
	assert.Equal(t, 1.5, *price)
	assert.Nil(t, ratio)
	assert.Nil(t, amount)

	vol, price, ratio, amount = ParseInfo("")
	assert.Nil(t, vol)
	assert.Nil(t, price)
	assert.Nil(t, ratio)
	assert.Nil(t, amount)
}

func TestFetchIndividualInfoAndBidAsk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/get", r.URL.Path)
		assert.Equal(t, "1.600519", r.URL.Query().Get("secid"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rc": 0,
			"data": map[string]interface{}{
				"f57": "600519", "f58": "贵州茅台",
				"f127": "酿酒行业", "f116": 2.1362e12,
				"f43": 1700.5, "f170": 1.23, "f46": 1690.0,
				"f44": 1710.0, "f45": 1685.0, "f51": "-",
			},
		})
	})

	info, err := c.FetchIndividualInfo(context.Background(), "600519")
	require.NoError(t, err)
	require.NotNil(t, info.Industry)
	assert.Equal(t, "酿酒行业", *info.Industry)
	assert.Equal(t, 2.1362e12, *info.MarketCap)

	quote, err := c.FetchBidAsk(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, 1700.5, *quote.Latest)
	assert.Equal(t, 1.23, *quote.PctChange)
	assert.Equal(t, 1690.0, *quote.Open)
	assert.Equal(t, 1710.0, *quote.High)
	assert.Equal(t, 1685.0, *quote.Low)
	assert.Nil(t, quote.LimitUp)
}

func TestFetchQuoteNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":null}`))
	})
	_, err := c.FetchBidAsk(context.Background(), "999999")
	assert.ErrorContains(t, err, "no quote data")
}

func TestFieldHelpers(t *testing.T) {
	assert.Nil(t, numberField(nil))
	assert.Nil(t, numberField(json.RawMessage(`null`)))
	assert.Nil(t, numberField(json.RawMessage(`"-"`)))
	assert.Equal(t, 12.5, *numberField(json.RawMessage(`"12.5"`)))
	assert.Equal(t, 3.0, *numberField(json.RawMessage(`3`)))

	assert.Nil(t, stringField(json.RawMessage(`"-"`)))
	assert.Nil(t, stringField(json.RawMessage(`""`)))
	assert.Nil(t, stringField(json.RawMessage(`42`)))
	assert.Equal(t, "银行", *stringField(json.RawMessage(`"银行"`)))
}

func TestFetchMinuteBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/trends2/get", r.URL.Path)
		assert.Equal(t, "0.000001", r.URL.Query().Get("secid"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rc": 0,
			"data": map[string]interface{}{
				"code": "000001",
				"trends": []string{
					"2025-01-02 14:59,10.10,10.12,10.13,10.09,1200,1214400.00,10.11",
					"2025-01-03 09:30,10.20,10.25,10.26,10.18,3000,3075000.00,10.24",
					"2025-01-03 09:31,10.25,10.22,10.27,10.21,2500,2555000.00,10.23",
					"garbage",
					"2025-01-03 15:00,10.30,10.31,10.31,10.30,900,927900.00,10.25",
				},
			},
		})
	})

	date := time.Date(2025, 1, 3, 10, 0, 0, 0, cst)
	bars, err := c.FetchMinuteBars(context.Background(), "000001", date)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2025, 1, 3, 9, 30, 0, 0, cst), bars[0].Time)
	assert.Equal(t, 10.20, bars[0].Open)
	assert.Equal(t, 10.25, bars[0].Close)
	assert.Equal(t, 10.26, bars[0].High)
	assert.Equal(t, 10.18, bars[0].Low)
	assert.Equal(t, 3000.0, bars[0].Volume)
	assert.Equal(t, 10.31, bars[2].Close)
}
