// Package chart serves 1-minute candlestick views with indicator overlays.
package chart

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/pkg/logger"
)

// MaxWorkers caps concurrent chart data fetches
const MaxWorkers = 5

// BarSource supplies minute bars
type BarSource interface {
	FetchMinuteBars(ctx context.Context, symbol string, date time.Time) ([]eastmoney.Bar, error)
}

// Service owns the open views and the fetch pool.
// One open view per symbol; reopening returns the existing view.
// ⭐ SSOT: 차트 뷰 레지스트리는 여기서만
type Service struct {
	source   BarSource
	calendar *TradingCalendar
	logger   *logger.Logger
	now      func() time.Time
	slots    chan struct{}

	mu       sync.Mutex
	views    map[string]*View
	bySymbol map[string]string
	wg       sync.WaitGroup
}

// NewService creates a chart service with at most workers concurrent fetches
func NewService(source BarSource, cal *TradingCalendar, workers int, log *logger.Logger) *Service {
	if workers < 1 || workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &Service{
		source:   source,
		calendar: cal,
		logger:   log.WithModule("chart"),
		now:      time.Now,
		slots:    make(chan struct{}, workers),
		views:    make(map[string]*View),
		bySymbol: make(map[string]string),
	}
}

// Open returns the open view of symbol or opens a new one and starts its fetch
func (s *Service) Open(symbol, name string) *View {
	s.mu.Lock()
	if id, ok := s.bySymbol[symbol]; ok {
		if v := s.views[id]; v != nil && !v.Closed() {
			s.mu.Unlock()
			return v
		}
	}

	v := newView(uuid.NewString(), symbol, name, s.now())
	s.views[v.ID] = v
	s.bySymbol[symbol] = v.ID
	s.mu.Unlock()

	s.logger.WithStock(symbol, name).WithField("view", v.ID).Info("Chart view opened")
	s.submit(v)
	return v
}

// Get returns an open view by id
func (s *Service) Get(id string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// List returns open views, oldest first
func (s *Service) List() []*View {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].OpenedAt.Before(views[j].OpenedAt) })
	return views
}

// Retry discards the current result and fetches again
func (s *Service) Retry(id string) error {
	v, err := s.Get(id)
	if err != nil {
		return err
	}
	if v.Closed() {
		return ErrViewClosed
	}

	s.logger.WithStock(v.Symbol, v.Name).WithField("view", id).Info("Retrying chart fetch")
	s.submit(v)
	return nil
}

// Close closes a view; any in-flight fetch is cancelled and its result dropped
func (s *Service) Close(id string) error {
	s.mu.Lock()
	v, ok := s.views[id]
	if ok {
		delete(s.views, id)
		if s.bySymbol[v.Symbol] == id {
			delete(s.bySymbol, v.Symbol)
		}
	}
	s.mu.Unlock()

	if !ok {
		return ErrViewNotFound
	}

	v.close()
	s.logger.WithStock(v.Symbol, v.Name).WithField("view", id).Info("Chart view closed")
	return nil
}

// CloseStale closes views opened more than maxAge ago that nobody is watching
func (s *Service) CloseStale(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	closed := 0
	for _, v := range s.List() {
		if v.OpenedAt.After(cutoff) || v.watched() {
			continue
		}
		if s.Close(v.ID) == nil {
			closed++
		}
	}
	return closed
}

// Shutdown closes every view and waits for in-flight fetches to return
func (s *Service) Shutdown() {
	for _, v := range s.List() {
		_ = s.Close(v.ID)
	}
	s.wg.Wait()
}

// submit starts a fetch for the view's next attempt
func (s *Service) submit(v *View) {
	attempt, ok := v.nextAttempt()
	if !ok {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case s.slots <- struct{}{}:
		case <-v.Done():
			return
		}
		defer func() { <-s.slots }()

		r := s.fetch(v, attempt)
		if !v.deliver(r) {
			s.logger.WithStock(v.Symbol, v.Name).WithField("view", v.ID).Debug("Chart result discarded")
		}
	}()
}

func (s *Service) fetch(v *View, attempt int) Result {
	date := s.calendar.TradingDate(s.now())
	r := Result{
		Attempt:     attempt,
		Symbol:      v.Symbol,
		Name:        v.Name,
		DisplayDate: date.Format(time.DateOnly),
	}

	bars, err := s.source.FetchMinuteBars(v.ctx, v.Symbol, date)
	if err != nil {
		s.logger.WithStock(v.Symbol, v.Name).WithError(err).Error("Chart fetch failed")
		r.Error = fmt.Sprintf("获取K线数据失败: %v", err)
		return r
	}
	if len(bars) == 0 {
		r.Error = fmt.Sprintf("未获取到%s(%s)的数据，可能是非交易日或数据源问题", v.Name, v.Symbol)
		return r
	}

	r.Success = true
	r.Points = Compute(bars)
	return r
}
