package contracts

// ResultRow is one aggregated symbol row produced by the query engine
type ResultRow struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Exchange    string   `json:"exchange"`
	Board       string   `json:"board"`
	Industry    *string  `json:"industry"`
	MarketCap   *int64   `json:"market_cap"`
	Open        *float64 `json:"open"`
	Latest      *float64 `json:"latest"`
	PctChange   *float64 `json:"pct_change"`
	Low         *float64 `json:"low"`
	High        *float64 `json:"high"`
	LimitUp     *float64 `json:"limit_up"`
	AlertCount  int64    `json:"alert_count"`
	TotalAmount int64    `json:"total_amount"` // 万, truncated
	Detail      string   `json:"detail"`
}

// Column names of a result row, in export order
var ResultColumns = []string{
	"symbol", "name", "exchange", "industry", "market_cap", "board",
	"open", "latest", "pct_change", "low", "high", "limit_up",
	"alert_count", "total_amount", "detail",
}

// DefaultDisplayColumns is the projection shown before the user picks columns
var DefaultDisplayColumns = []string{
	"symbol", "name", "exchange", "industry", "market_cap",
	"latest", "pct_change", "open", "high", "low", "total_amount",
}

// Values returns the row keyed by column name; nil pointers stay nil
func (r ResultRow) Values() map[string]interface{} {
	return map[string]interface{}{
		"symbol":       r.Symbol,
		"name":         r.Name,
		"exchange":     r.Exchange,
		"industry":     deref(r.Industry),
		"market_cap":   deref(r.MarketCap),
		"board":        r.Board,
		"open":         deref(r.Open),
		"latest":       deref(r.Latest),
		"pct_change":   deref(r.PctChange),
		"low":          deref(r.Low),
		"high":         deref(r.High),
		"limit_up":     deref(r.LimitUp),
		"alert_count":  r.AlertCount,
		"total_amount": r.TotalAmount,
		"detail":       r.Detail,
	}
}

// Project keeps only the known columns, in the order given
func Project(rows []ResultRow, columns []string) []map[string]interface{} {
	known := make(map[string]bool, len(ResultColumns))
	for _, c := range ResultColumns {
		known[c] = true
	}

	keep := make([]string, 0, len(columns))
	for _, c := range columns {
		if known[c] {
			keep = append(keep, c)
		}
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		all := r.Values()
		m := make(map[string]interface{}, len(keep))
		for _, c := range keep {
			m[c] = all[c]
		}
		out = append(out, m)
	}
	return out
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
