// Package listing implements the fetch/filter/paginate cycle shared by every
// collection screen: one Controller per screen owns its query state, issues a
// fetch whenever that state changes, and exposes loading/result/error state
// to the presentation layer.
//
// Fetches run on their own goroutines and may complete out of order. Each
// fetch is stamped with a sequence number when it starts; only the result of
// the most recently issued fetch is committed, older results are dropped.
// In-flight fetches are not cancelled when superseded, only ignored.
package listing

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 25

// FetchFunc loads one page for q.
type FetchFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

type options struct {
	name     string
	pageSize int
	filters  map[string]string
	onChange func()
}

// Option configures a Controller.
type Option func(*options)

// WithPageSize fixes the page size for the controller's lifetime.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithName labels the controller in logs and metrics (e.g. "vehicles").
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithFilters seeds the initial filters without triggering a fetch.
func WithFilters(filters map[string]string) Option {
	return func(o *options) { o.filters = maps.Clone(filters) }
}

// WithOnChange registers fn to run after every state change (fetch started,
// result committed). fn must not block and must not call back into the
// controller synchronously; read the new state with State.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// Controller owns the filter/pagination state of one collection screen.
// Its methods never return fetch failures; those are reported in State.Err.
type Controller[T any] struct {
	fetch    FetchFunc[T]
	name     string
	onChange func()

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	query   Query
	loading bool
	items   []T
	total   int
	err     error
	// ranged reports whether total was answered for the current filters.
	ranged  bool
	seq     uint64
	closed  bool
	pending sync.WaitGroup

	notifyMu sync.Mutex
}

// New creates a controller. It does not fetch until Refresh or a state
// change is requested.
func New[T any](fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{name: "list", pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		fetch:    fetch,
		name:     o.name,
		onChange: o.onChange,
		ctx:      ctx,
		cancel:   cancel,
		query:    Query{Filters: o.filters, Page: 1, PageSize: o.pageSize}.clone(),
	}
	return c
}

// Name returns the controller's label.
func (c *Controller[T]) Name() string { return c.name }

// SetFilter updates one filter, resets the page to 1 and re-fetches.
// An empty value removes the constraint.
func (c *Controller[T]) SetFilter(key, value string) {
	c.mutate(func(q *Query) {
		setFilter(q.Filters, key, value)
		q.Page = 1
		c.ranged = false
	})
}

// SetFilters updates several filters at once with a single fetch.
func (c *Controller[T]) SetFilters(filters map[string]string) {
	c.mutate(func(q *Query) {
		for k, v := range filters {
			setFilter(q.Filters, k, v)
		}
		q.Page = 1
		c.ranged = false
	})
}

// ClearFilters removes every filter, resets the page and re-fetches.
func (c *Controller[T]) ClearFilters() {
	c.mutate(func(q *Query) {
		clear(q.Filters)
		q.Page = 1
		c.ranged = false
	})
}

// SetPage moves to page n and re-fetches. When the page count of the current
// filters is known, n is clamped to [1, TotalPages]; otherwise, before the
// first result or while a filter change is in flight, only values below 1
// are raised to 1. It returns the page actually requested.
func (c *Controller[T]) SetPage(n int) int {
	var effective int
	c.mutate(func(q *Query) {
		if tp := totalPages(c.total, q.PageSize); c.ranged && tp > 0 && n > tp {
			n = tp
		}
		if n < 1 {
			n = 1
		}
		q.Page = n
		effective = n
	})
	return effective
}

// NextPage advances one page if there is one. It reports whether it moved.
func (c *Controller[T]) NextPage() bool {
	st := c.State()
	if !st.HasNext() {
		return false
	}
	c.SetPage(st.Page + 1)
	return true
}

// PrevPage goes back one page if possible. It reports whether it moved.
func (c *Controller[T]) PrevPage() bool {
	st := c.State()
	if !st.HasPrev() {
		return false
	}
	c.SetPage(st.Page - 1)
	return true
}

// Refresh re-issues the fetch with the current query unchanged.
func (c *Controller[T]) Refresh() {
	c.mutate(func(*Query) {})
}

// State returns a snapshot of the controller.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Filters:    maps.Clone(c.query.Filters),
		Page:       c.query.Page,
		PageSize:   c.query.PageSize,
		Loading:    c.loading,
		Items:      c.items,
		TotalCount: c.total,
		Err:        c.err,
	}
}

// Wait blocks until every fetch issued so far has completed.
func (c *Controller[T]) Wait() {
	c.pending.Wait()
}

// Close stops the controller. In-flight fetches see a cancelled context and
// their results are discarded; later operations are no-ops.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// mutate applies fn to the query and starts a fetch for the result.
func (c *Controller[T]) mutate(fn func(q *Query)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.query)
	c.seq++
	seq := c.seq
	q := c.query.clone()
	c.loading = true
	c.pending.Add(1)
	c.mu.Unlock()

	c.notify()
	go c.run(seq, q)
}

func (c *Controller[T]) run(seq uint64, q Query) {
	defer c.pending.Done()

	res, err := c.safeFetch(q)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		staleResponsesTotal.WithLabelValues(c.name).Inc()
		log.Debug().Str("list", c.name).Uint64("seq", seq).Msg("discarding stale list response")
		return
	}
	c.loading = false
	if err != nil {
		c.err = err
	} else {
		c.items = res.Items
		c.total = res.TotalCount
		c.ranged = true
		c.err = nil
	}
	c.mu.Unlock()

	if err != nil {
		fetchesTotal.WithLabelValues(c.name, "failure").Inc()
		log.Debug().Err(err).Str("list", c.name).Int("page", q.Page).Msg("list fetch failed")
	} else {
		fetchesTotal.WithLabelValues(c.name, "success").Inc()
	}
	c.notify()
}

func (c *Controller[T]) safeFetch(q Query) (res Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("list %s: fetch panicked: %v", c.name, r)
		}
	}()
	return c.fetch(c.ctx, q)
}

func (c *Controller[T]) notify() {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.onChange()
}

func setFilter(filters map[string]string, key, value string) {
	if value == "" {
		delete(filters, key)
		return
	}
	filters[key] = value
}
