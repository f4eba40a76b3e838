package contracts

import "fmt"

// SortKey selects the descending order of query results
type SortKey string

const (
	SortByTotalAmount SortKey = "total_amount"
	SortByPctChange   SortKey = "pct_change"
	SortByAlertCount  SortKey = "alert_count"
)

// Filter defaults and adjustment steps
const (
	DefaultMinAmount    = 2000 // 万
	DefaultMinMarketCap = 10   // 亿
	MinAmountStep       = 200
	MinMarketCapStep    = 10
)

// ParseSortKey accepts the wire name of a sort key; empty means the default
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortByTotalAmount, nil
	case SortByTotalAmount, SortByPctChange, SortByAlertCount:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("unknown sort key %q (valid: total_amount, pct_change, alert_count)", s)
	}
}

// Filter holds the user-adjustable query parameters
type Filter struct {
	MinAmount    int64   `json:"min_amount"`     // 万, strict lower bound on total amount
	MinMarketCap int64   `json:"min_market_cap"` // 亿, inclusive lower bound
	SortKey      SortKey `json:"sort_key"`
}

// DefaultFilter returns the filter a new session starts with
func DefaultFilter() Filter {
	return Filter{
		MinAmount:    DefaultMinAmount,
		MinMarketCap: DefaultMinMarketCap,
		SortKey:      SortByTotalAmount,
	}
}

// Normalize clamps negative bounds to zero and fills an empty sort key
func (f Filter) Normalize() Filter {
	if f.MinAmount < 0 {
		f.MinAmount = 0
	}
	if f.MinMarketCap < 0 {
		f.MinMarketCap = 0
	}
	if f.SortKey == "" {
		f.SortKey = SortByTotalAmount
	}
	return f
}
