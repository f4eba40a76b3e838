// Package session holds the operator's adjustable view state.
package session

import (
	"strconv"
	"strings"
	"sync"

	"github.com/wonny/bigorder/internal/chart"
	"github.com/wonny/bigorder/internal/contracts"
)

// Session carries the current filter, column selection and chart views.
// It is passed explicitly to whoever queries or opens views.
type Session struct {
	charts *chart.Service

	mu      sync.RWMutex
	filter  contracts.Filter
	columns []string
}

// New creates a session with default filter and columns
func New(charts *chart.Service) *Session {
	return &Session{
		charts:  charts,
		filter:  contracts.DefaultFilter(),
		columns: append([]string(nil), contracts.DefaultDisplayColumns...),
	}
}

// Charts returns the chart view registry of this session
func (s *Session) Charts() *chart.Service {
	return s.charts
}

// Filter returns the current filter
func (s *Session) Filter() contracts.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter replaces the filter; negative bounds are clamped to zero
func (s *Session) SetFilter(f contracts.Filter) contracts.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f.Normalize()
	return s.filter
}

// Apply sets the filter from raw text input. A bound that does not parse
// as an integer falls back to its default; an unknown sort key keeps the current one.
func (s *Session) Apply(minAmount, minMarketCap, sortKey string) contracts.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = resolve(s.filter, minAmount, minMarketCap, sortKey)
	return s.filter
}

// Resolve returns the current filter overridden by raw input, without storing it
func (s *Session) Resolve(minAmount, minMarketCap, sortKey string) contracts.Filter {
	return resolve(s.Filter(), minAmount, minMarketCap, sortKey)
}

func resolve(f contracts.Filter, minAmount, minMarketCap, sortKey string) contracts.Filter {
	if minAmount != "" {
		f.MinAmount = parseOrDefault(minAmount, contracts.DefaultMinAmount)
	}
	if minMarketCap != "" {
		f.MinMarketCap = parseOrDefault(minMarketCap, contracts.DefaultMinMarketCap)
	}
	if key, err := contracts.ParseSortKey(sortKey); err == nil && sortKey != "" {
		f.SortKey = key
	}
	return f.Normalize()
}

// StepAmount moves the minimum amount by steps × 200, never below zero
func (s *Session) StepAmount(steps int) contracts.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.MinAmount = floor(s.filter.MinAmount + int64(steps)*contracts.MinAmountStep)
	return s.filter
}

// StepMarketCap moves the minimum market cap by steps × 10, never below zero
func (s *Session) StepMarketCap(steps int) contracts.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.MinMarketCap = floor(s.filter.MinMarketCap + int64(steps)*contracts.MinMarketCapStep)
	return s.filter
}

// Reset restores the default filter and columns
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = contracts.DefaultFilter()
	s.columns = append([]string(nil), contracts.DefaultDisplayColumns...)
}

// Columns returns the selected display columns
func (s *Session) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.columns...)
}

// SetColumns keeps the known columns of cols in order; an empty selection is ignored
func (s *Session) SetColumns(cols []string) []string {
	known := make(map[string]bool, len(contracts.ResultColumns))
	for _, c := range contracts.ResultColumns {
		known[c] = true
	}

	picked := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if known[c] && !seen[c] {
			picked = append(picked, c)
			seen[c] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(picked) > 0 {
		s.columns = picked
	}
	return append([]string(nil), s.columns...)
}

func parseOrDefault(raw string, def int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func floor(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
