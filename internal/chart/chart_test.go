package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/pkg/logger"
)

var cst = time.FixedZone("CST", 8*3600)

func TestTradingDate(t *testing.T) {
	cal := WeekdayCalendar(cst)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"wednesday session", time.Date(2025, 1, 8, 10, 0, 0, 0, cst), "2025-01-08"},
		{"wednesday at open", time.Date(2025, 1, 8, 9, 30, 0, 0, cst), "2025-01-08"},
		{"wednesday pre-open", time.Date(2025, 1, 8, 9, 29, 59, 0, cst), "2025-01-07"},
		{"monday pre-open", time.Date(2025, 1, 6, 8, 0, 0, 0, cst), "2025-01-03"},
		{"saturday", time.Date(2025, 1, 4, 12, 0, 0, 0, cst), "2025-01-03"},
		{"sunday", time.Date(2025, 1, 5, 12, 0, 0, 0, cst), "2025-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.TradingDate(tt.now).Format(time.DateOnly))
		})
	}
}

func barsOf(closes ...float64) []eastmoney.Bar {
	start := time.Date(2025, 1, 8, 9, 30, 0, 0, cst)
	bars := make([]eastmoney.Bar, len(closes))
	for i, c := range closes {
		bars[i] = eastmoney.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: c, Close: c, High: c, Low: c, Volume: 100}
	}
	return bars
}

func TestComputeLookbacks(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	points := Compute(barsOf(closes...))
	require.Len(t, points, 30)

	assert.Nil(t, points[3].MA5)
	require.NotNil(t, points[4].MA5)
	assert.InDelta(t, 3.0, *points[4].MA5, 1e-9)
	assert.Nil(t, points[8].MA10)
	assert.InDelta(t, 5.5, *points[9].MA10, 1e-9)
	assert.Nil(t, points[18].MA20)
	assert.InDelta(t, 10.5, *points[19].MA20, 1e-9)

	assert.Nil(t, points[18].BBMid)
	require.NotNil(t, points[19].BBMid)
	assert.InDelta(t, 10.5, *points[19].BBMid, 1e-9)
	assert.Greater(t, *points[19].BBUpper, *points[19].BBMid)
	assert.Less(t, *points[19].BBLower, *points[19].BBMid)

	// monotonic gains only
	assert.Nil(t, points[13].RSI)
	require.NotNil(t, points[14].RSI)
	assert.InDelta(t, 100.0, *points[14].RSI, 1e-9)
}

func TestBollingerUsesSampleStdDev(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	p := Compute(barsOf(closes...))[19]

	// sample variance of 1..20 is 35
	band := 2 * math.Sqrt(35)
	assert.InDelta(t, 10.5+band, *p.BBUpper, 1e-9)
	assert.InDelta(t, 10.5-band, *p.BBLower, 1e-9)
}

func TestRSIRollingMean(t *testing.T) {
	// +2/-1 alternating then one more +2
	closes := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17, 19}
	points := Compute(barsOf(closes...))

	require.NotNil(t, points[14].RSI)
	assert.InDelta(t, 200.0/3, *points[14].RSI, 1e-9)
	require.NotNil(t, points[15].RSI)
	assert.InDelta(t, 200.0/3, *points[15].RSI, 1e-9)

	flat := Compute(barsOf(5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5))
	assert.Nil(t, flat[15].RSI)
}

func TestComputeShortSeries(t *testing.T) {
	points := Compute(barsOf(1, 2, 3))
	require.Len(t, points, 3)
	for _, p := range points {
		assert.Nil(t, p.MA5)
		assert.Nil(t, p.BBUpper)
		assert.Nil(t, p.RSI)
	}
	assert.Empty(t, Compute(nil))
}

type fakeBars struct {
	mu      sync.Mutex
	calls   int
	fail    int // first n calls fail
	empty   bool
	block   chan struct{}
	active  int32
	peak    int32
	lastCtx context.Context
}

func (f *fakeBars) FetchMinuteBars(ctx context.Context, symbol string, date time.Time) ([]eastmoney.Bar, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.lastCtx = ctx
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if call <= f.fail {
		return nil, errors.New("upstream 502")
	}
	if f.empty {
		return nil, nil
	}
	return barsOf(10, 11, 12), nil
}

func newTestService(src BarSource) *Service {
	s := NewService(src, WeekdayCalendar(cst), 5, logger.Nop())
	s.now = func() time.Time { return time.Date(2025, 1, 8, 10, 0, 0, 0, cst) }
	return s
}

func waitResult(t *testing.T, v *View) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := v.Wait(ctx)
	require.NoError(t, err)
	return r
}

func TestOpenDeliversResult(t *testing.T) {
	s := newTestService(&fakeBars{})
	v := s.Open("600519", "贵州茅台")

	r := waitResult(t, v)
	assert.True(t, r.Success)
	assert.Equal(t, "2025-01-08", r.DisplayDate)
	assert.Len(t, r.Points, 3)
	assert.Equal(t, 1, r.Attempt)
}

func TestOpenReusesViewPerSymbol(t *testing.T) {
	s := newTestService(&fakeBars{})
	v1 := s.Open("600519", "贵州茅台")
	v2 := s.Open("600519", "贵州茅台")
	assert.Same(t, v1, v2)

	require.NoError(t, s.Close(v1.ID))
	v3 := s.Open("600519", "贵州茅台")
	assert.NotEqual(t, v1.ID, v3.ID)
	assert.Len(t, s.List(), 1)
}

func TestEmptyBarsIsErrorResult(t *testing.T) {
	s := newTestService(&fakeBars{empty: true})
	r := waitResult(t, s.Open("000001", "平安银行"))
	assert.False(t, r.Success)
	assert.Contains(t, r.Error, "未获取到平安银行(000001)的数据")
}

func TestRetryAfterFailure(t *testing.T) {
	s := newTestService(&fakeBars{fail: 1})
	v := s.Open("000001", "平安银行")

	r := waitResult(t, v)
	assert.False(t, r.Success)
	assert.Contains(t, r.Error, "upstream 502")

	require.NoError(t, s.Retry(v.ID))
	r = waitResult(t, v)
	assert.True(t, r.Success)
	assert.Equal(t, 2, r.Attempt)
}

func TestClosedViewReceivesNothing(t *testing.T) {
	src := &fakeBars{block: make(chan struct{})}
	s := newTestService(src)
	v := s.Open("600000", "浦发银行")

	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.active) == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close(v.ID))

	_, err := v.Wait(context.Background())
	assert.ErrorIs(t, err, ErrViewClosed)

	s.Shutdown()
	_, ok := v.Latest()
	assert.False(t, ok)

	src.mu.Lock()
	assert.Error(t, src.lastCtx.Err())
	src.mu.Unlock()

	assert.ErrorIs(t, s.Retry(v.ID), ErrViewNotFound)
	assert.ErrorIs(t, s.Close(v.ID), ErrViewNotFound)
}

func TestFetchPoolIsBounded(t *testing.T) {
	src := &fakeBars{block: make(chan struct{})}
	s := newTestService(src)

	views := make([]*View, 0, 8)
	for i := 0; i < 8; i++ {
		views = append(views, s.Open(fmt.Sprintf("60000%d", i), "x"))
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.active) == MaxWorkers }, 5*time.Second, 5*time.Millisecond)
	close(src.block)

	for _, v := range views {
		assert.True(t, waitResult(t, v).Success)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&src.peak), int32(MaxWorkers))
	s.Shutdown()
}

func TestCloseStale(t *testing.T) {
	s := newTestService(&fakeBars{})
	base := time.Date(2025, 1, 8, 10, 0, 0, 0, cst)

	s.now = func() time.Time { return base }
	old := s.Open("600000", "浦发银行")
	watched := s.Open("600036", "招商银行")
	detach := watched.Attach()
	waitResult(t, old)
	waitResult(t, watched)

	s.now = func() time.Time { return base.Add(20 * time.Minute) }
	fresh := s.Open("601988", "中国银行")
	waitResult(t, fresh)

	s.now = func() time.Time { return base.Add(40 * time.Minute) }
	assert.Equal(t, 1, s.CloseStale(30*time.Minute))
	assert.True(t, old.Closed())
	assert.False(t, watched.Closed())
	assert.False(t, fresh.Closed())

	detach()
	detach()
	assert.Equal(t, 1, s.CloseStale(30*time.Minute))
	assert.True(t, watched.Closed())

	s.Shutdown()
	assert.True(t, fresh.Closed())
}
