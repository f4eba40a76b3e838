package contracts

import (
	"errors"
	"time"
)

// PartitionLayout is the date layout used in partition table names
const PartitionLayout = "20060102"

// TimestampLayout is how alert timestamps are stored and rendered
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNoData means no refresh has produced partitions for the requested date
	ErrNoData = errors.New("no data for date")

	// ErrRefreshInProgress means another refresh owns today's partitions
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// Exchange identifies the listing venue of a symbol
type Exchange string

const (
	ExchangeSH      Exchange = "sh"
	ExchangeSZ      Exchange = "sz"
	ExchangeBJ      Exchange = "bj"
	ExchangeUnknown Exchange = "unknown"
)

// Board segment labels
const (
	BoardSHMain     = "沪市主板"
	BoardSZMain     = "深市主板"
	BoardSTAR       = "科创板" // sci-tech innovation board
	BoardChiNext    = "创业板" // growth enterprise board
	BoardSZB        = "深市B股"
	BoardSHB        = "沪市B股"
	BoardBJ         = "北交所"
	BoardNonNumeric = "非数字代码"
	BoardOther      = "其他板块"
)

// Alert is one large-buy-order event observed intraday
// ⭐ SSOT: 대량 매수 알림 레코드는 여기서만 정의
type Alert struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Time        time.Time `json:"time"`
	Volume      *float64  `json:"volume"`
	Price       *float64  `json:"price"`
	VolumeRatio *float64  `json:"volume_ratio"`
	Amount      *float64  `json:"amount"`
}

// Enrichment is the fundamental + live quote snapshot of one symbol for one day
type Enrichment struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Exchange  Exchange `json:"exchange"`
	Board     string   `json:"board"`
	Industry  *string  `json:"industry"`
	MarketCap *int64   `json:"market_cap"` // 亿
	Latest    *float64 `json:"latest"`
	PctChange *float64 `json:"pct_change"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	LimitUp   *float64 `json:"limit_up"`
}

// StockRef identifies a symbol with its display name
type StockRef struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PartitionKey returns the partition suffix for the calendar day of t
func PartitionKey(t time.Time) string {
	return t.Format(PartitionLayout)
}

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int64) *int64 { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }
