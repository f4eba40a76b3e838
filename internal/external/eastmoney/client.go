package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/bigorder/pkg/config"
	"github.com/wonny/bigorder/pkg/httputil"
	"github.com/wonny/bigorder/pkg/logger"
)

// ut is the public access token the provider's web pages send
const ut = "7eea3edcaed734bea9cbfc24409ed989"

// Client handles communication with the Eastmoney quote endpoints
// ⭐ SSOT: Eastmoney API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	changesURL string
	quoteURL   string
	historyURL string
	loc        *time.Location
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("eastmoney"),
		changesURL: strings.TrimRight(cfg.Eastmoney.ChangesURL, "/"),
		quoteURL:   strings.TrimRight(cfg.Eastmoney.QuoteURL, "/"),
		historyURL: strings.TrimRight(cfg.Eastmoney.HistoryURL, "/"),
		loc:        cfg.Location(),
	}
}

// getJSON fetches baseURL+path with params and decodes the envelope into out
func (c *Client) getJSON(ctx context.Context, baseURL, path string, params url.Values, out interface{}) error {
	fullURL := fmt.Sprintf("%s%s?%s", baseURL, path, params.Encode())

	if err := c.httpClient.GetJSON(ctx, fullURL, out); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

// numberField reads a quote field that is either a number or a placeholder
// string such as "-"; anything unparseable is treated as absent
func numberField(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// stringField reads a text field; "-" and empty mean absent
func stringField(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	return &s
}
