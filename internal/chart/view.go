package chart

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrViewClosed is returned when waiting on or acting upon a closed view
var ErrViewClosed = errors.New("chart view closed")

// ErrViewNotFound is returned for unknown view ids
var ErrViewNotFound = errors.New("chart view not found")

// Result is the outcome of one chart data fetch
type Result struct {
	Attempt     int     `json:"attempt"`
	Success     bool    `json:"success"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	DisplayDate string  `json:"display_date,omitempty"`
	Points      []Point `json:"points,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// View is one open chart. It owns a context that is cancelled on close,
// and accepts results only for its current attempt while open.
type View struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	OpenedAt time.Time `json:"opened_at"`

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	attempt  int
	result   *Result
	notify   chan struct{}
	watchers int
}

func newView(id, symbol, name string, openedAt time.Time) *View {
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		ID:       id,
		Symbol:   symbol,
		Name:     name,
		OpenedAt: openedAt,
		ctx:      ctx,
		cancel:   cancel,
		notify:   make(chan struct{}, 1),
	}
}

// Done is closed when the view is closed
func (v *View) Done() <-chan struct{} {
	return v.ctx.Done()
}

// Closed reports whether the view has been closed
func (v *View) Closed() bool {
	return v.ctx.Err() != nil
}

// Updated receives a signal whenever a new result is delivered
func (v *View) Updated() <-chan struct{} {
	return v.notify
}

// Latest returns the most recent result, if any
func (v *View) Latest() (Result, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.result == nil {
		return Result{}, false
	}
	return *v.result, true
}

// Wait blocks until a result is available, the view closes or ctx ends
func (v *View) Wait(ctx context.Context) (Result, error) {
	for {
		if r, ok := v.Latest(); ok {
			return r, nil
		}
		select {
		case <-v.notify:
		case <-v.ctx.Done():
			return Result{}, ErrViewClosed
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}

// Attach registers a live watcher; call the returned func when it goes away
func (v *View) Attach() (detach func()) {
	v.mu.Lock()
	v.watchers++
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			v.watchers--
			v.mu.Unlock()
		})
	}
}

func (v *View) watched() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.watchers > 0
}

// nextAttempt clears the current result and starts a new attempt
func (v *View) nextAttempt() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil {
		return 0, false
	}
	v.attempt++
	v.result = nil
	return v.attempt, true
}

// deliver stores r unless the view is closed or r belongs to a stale attempt
func (v *View) deliver(r Result) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil || r.Attempt != v.attempt {
		return false
	}
	v.result = &r

	select {
	case v.notify <- struct{}{}:
	default:
	}
	return true
}

func (v *View) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancel()
}
