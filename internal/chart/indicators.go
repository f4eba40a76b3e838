package chart

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/bigorder/internal/external/eastmoney"
)

// Indicator periods
const (
	bbPeriod  = 20
	bbStdDev  = 2.0
	rsiPeriod = 14
)

// Point is one bar with its overlay and oscillator values.
// Indicator fields are nil until enough bars exist.
type Point struct {
	eastmoney.Bar
	MA5     *float64 `json:"ma5"`
	MA10    *float64 `json:"ma10"`
	MA20    *float64 `json:"ma20"`
	BBUpper *float64 `json:"bb_upper"`
	BBMid   *float64 `json:"bb_middle"`
	BBLower *float64 `json:"bb_lower"`
	RSI     *float64 `json:"rsi"`
}

// Compute derives MA5/10/20, Bollinger(20, 2) and RSI(14) over closes
func Compute(bars []eastmoney.Bar) []Point {
	closes := make([]float64, len(bars))
	points := make([]Point, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		points[i].Bar = b
	}

	ma5 := sma(closes, 5)
	ma10 := sma(closes, 10)
	ma20 := sma(closes, 20)
	upper, middle, lower := bbands(closes)
	rsi := rsiSeries(closes)

	for i := range points {
		points[i].MA5 = ma5[i]
		points[i].MA10 = ma10[i]
		points[i].MA20 = ma20[i]
		points[i].BBUpper = upper[i]
		points[i].BBMid = middle[i]
		points[i].BBLower = lower[i]
		points[i].RSI = rsi[i]
	}
	return points
}

// fromLookback keeps values[i] for i >= lookback; the rest stay nil
func fromLookback(values []float64, lookback, n int) []*float64 {
	out := make([]*float64, n)
	for i := lookback; i < n && i < len(values); i++ {
		v := values[i]
		out[i] = &v
	}
	return out
}

func sma(closes []float64, period int) []*float64 {
	if len(closes) < period {
		return make([]*float64, len(closes))
	}
	return fromLookback(talib.Sma(closes, period), period-1, len(closes))
}

// bbands uses the sample standard deviation of the window, not talib's population one
func bbands(closes []float64) (upper, middle, lower []*float64) {
	n := len(closes)
	if n < bbPeriod {
		return make([]*float64, n), make([]*float64, n), make([]*float64, n)
	}

	mid := talib.Sma(closes, bbPeriod)
	std := talib.StdDev(closes, bbPeriod, 1)
	sample := math.Sqrt(float64(bbPeriod) / float64(bbPeriod-1))

	u := make([]float64, n)
	l := make([]float64, n)
	for i := bbPeriod - 1; i < n; i++ {
		band := bbStdDev * std[i] * sample
		u[i] = mid[i] + band
		l[i] = mid[i] - band
	}
	return fromLookback(u, bbPeriod-1, n), fromLookback(mid, bbPeriod-1, n), fromLookback(l, bbPeriod-1, n)
}

// rsiSeries averages gains and losses over a plain rolling window (no Wilder smoothing).
// A window without any move has no value.
func rsiSeries(closes []float64) []*float64 {
	n := len(closes)
	out := make([]*float64, n)
	if n <= rsiPeriod {
		return out
	}

	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	avgGain := talib.Sma(gains, rsiPeriod)
	avgLoss := talib.Sma(losses, rsiPeriod)
	for i := rsiPeriod - 1; i < n-1; i++ {
		g, l := avgGain[i], avgLoss[i]
		var v float64
		switch {
		case g == 0 && l == 0:
			continue
		case l == 0:
			v = 100
		default:
			v = 100 - 100/(1+g/l)
		}
		out[i+1] = &v
	}
	return out
}
