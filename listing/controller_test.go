package listing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a FetchFunc that answers immediately and remembers every query.
type recorder struct {
	mu      sync.Mutex
	queries []Query
	answer  func(q Query) (Result[int], error)
}

func (r *recorder) fetch(_ context.Context, q Query) (Result[int], error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	if r.answer == nil {
		return Result[int]{Items: []int{1}, TotalCount: 1}, nil
	}
	return r.answer(q)
}

func (r *recorder) last() Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

// held is a FetchFunc whose calls stay open until the test replies.
type held struct {
	calls chan heldCall
}

type heldCall struct {
	q     Query
	reply chan heldReply
}

type heldReply struct {
	res Result[int]
	err error
}

func newHeld() *held { return &held{calls: make(chan heldCall, 16)} }

func (h *held) fetch(ctx context.Context, q Query) (Result[int], error) {
	reply := make(chan heldReply, 1)
	h.calls <- heldCall{q: q, reply: reply}
	select {
	case r := <-reply:
		return r.res, r.err
	case <-ctx.Done():
		return Result[int]{}, ctx.Err()
	}
}

func (h *held) next(t *testing.T) heldCall {
	t.Helper()
	select {
	case c := <-h.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch call")
		return heldCall{}
	}
}

func TestSetFilterResetsPage(t *testing.T) {
	rec := &recorder{answer: func(Query) (Result[int], error) {
		return Result[int]{Items: []int{1}, TotalCount: 500}, nil
	}}
	c := New(rec.fetch)
	defer c.Close()

	c.Refresh()
	c.Wait()
	for _, step := range []struct{ key, val string }{
		{FilterStatus, "active"}, {FilterSearch, "golf"}, {"make", "3"}, {FilterStatus, ""},
	} {
		c.SetPage(4)
		c.Wait()
		require.Equal(t, 4, c.State().Page)

		c.SetFilter(step.key, step.val)
		assert.Equal(t, 1, c.State().Page, "page must reset after changing %s", step.key)
		c.Wait()
		assert.Equal(t, 1, rec.last().Page)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	h := newHeld()
	name := "stale-" + t.Name()
	c := New(h.fetch, WithName(name))
	defer c.Close()

	c.SetFilter(FilterStatus, "a")
	a := h.next(t)
	c.SetFilter(FilterStatus, "b")
	b := h.next(t)
	require.Equal(t, "a", a.q.Filters[FilterStatus])
	require.Equal(t, "b", b.q.Filters[FilterStatus])

	b.reply <- heldReply{res: Result[int]{Items: []int{2}, TotalCount: 1}}
	require.Eventually(t, func() bool { return !c.State().Loading }, time.Second, 5*time.Millisecond)

	a.reply <- heldReply{res: Result[int]{Items: []int{1, 1}, TotalCount: 2}}
	c.Wait()

	st := c.State()
	assert.Equal(t, []int{2}, st.Items)
	assert.Equal(t, 1, st.TotalCount)
	assert.False(t, st.Loading)
	assert.Equal(t, float64(1), testutil.ToFloat64(staleResponsesTotal.WithLabelValues(name)))
}

func TestStaleResponseArrivingFirstKeepsLoading(t *testing.T) {
	h := newHeld()
	c := New(h.fetch)
	defer c.Close()

	c.SetFilter(FilterSearch, "x")
	a := h.next(t)
	c.SetFilter(FilterSearch, "xy")
	b := h.next(t)

	a.reply <- heldReply{res: Result[int]{Items: []int{1}, TotalCount: 1}}
	time.Sleep(20 * time.Millisecond)
	st := c.State()
	assert.True(t, st.Loading, "stale completion must not clear loading")
	assert.Empty(t, st.Items)

	b.reply <- heldReply{res: Result[int]{Items: []int{7}, TotalCount: 1}}
	c.Wait()
	assert.Equal(t, []int{7}, c.State().Items)
	assert.False(t, c.State().Loading)
}

func TestStaleFailureDoesNotSetError(t *testing.T) {
	h := newHeld()
	c := New(h.fetch)
	defer c.Close()

	c.Refresh()
	a := h.next(t)
	c.Refresh()
	b := h.next(t)

	b.reply <- heldReply{res: Result[int]{Items: []int{3}, TotalCount: 1}}
	a.reply <- heldReply{err: errors.New("late failure")}
	c.Wait()
	assert.NoError(t, c.State().Err)
	assert.Equal(t, []int{3}, c.State().Items)
}

func TestDerivedPagination(t *testing.T) {
	st := State[int]{TotalCount: 57, PageSize: 25}
	assert.Equal(t, 3, st.TotalPages())
	for page, wantNext := range map[int]bool{1: true, 2: true, 3: false} {
		st.Page = page
		assert.Equal(t, wantNext, st.HasNext(), "page %d", page)
		assert.Equal(t, page > 1, st.HasPrev(), "page %d", page)
	}

	empty := State[int]{PageSize: 25, Page: 1}
	assert.Equal(t, 0, empty.TotalPages())
	assert.False(t, empty.HasNext())
}

func TestFailureKeepsPreviousItems(t *testing.T) {
	fail := atomic.Bool{}
	rec := &recorder{answer: func(Query) (Result[int], error) {
		if fail.Load() {
			return Result[int]{}, errors.New("backend down")
		}
		return Result[int]{Items: []int{1, 2, 3}, TotalCount: 3}, nil
	}}
	c := New(rec.fetch)
	defer c.Close()

	c.Refresh()
	c.Wait()
	require.NoError(t, c.State().Err)
	require.False(t, c.State().Loading)

	fail.Store(true)
	c.Refresh()
	c.Wait()
	st := c.State()
	assert.Equal(t, []int{1, 2, 3}, st.Items)
	assert.Equal(t, 3, st.TotalCount)
	require.Error(t, st.Err)
	assert.NotEmpty(t, st.Err.Error())
	assert.False(t, st.Loading)

	fail.Store(false)
	c.Refresh()
	c.Wait()
	assert.NoError(t, c.State().Err, "a later success clears the error")
}

func TestScenarioStatusSearchPage(t *testing.T) {
	rec := &recorder{answer: func(q Query) (Result[int], error) {
		if q.Filters[FilterStatus] == "active" && q.Filters[FilterSearch] == "abc" {
			return Result[int]{Items: make([]int, 15), TotalCount: 40}, nil
		}
		return Result[int]{Items: make([]int, 25), TotalCount: 100}, nil
	}}
	c := New(rec.fetch, WithPageSize(25))
	defer c.Close()

	c.SetFilter(FilterStatus, "active")
	c.Wait()
	c.SetFilter(FilterSearch, "abc")
	c.Wait()
	require.Equal(t, 2, c.SetPage(2))
	c.Wait()

	vals := rec.last().Values()
	assert.Equal(t, "active", vals.Get("status"))
	assert.Equal(t, "abc", vals.Get("search"))
	assert.Equal(t, "2", vals.Get("page"))
	assert.Equal(t, "25", vals.Get("page_size"))

	st := c.State()
	assert.Equal(t, 2, st.TotalPages())
	assert.False(t, st.HasNext())
	assert.True(t, st.HasPrev())
}

func TestScenarioBackToBackAfterSmallLoad(t *testing.T) {
	rec := &recorder{answer: func(q Query) (Result[int], error) {
		if q.Filters[FilterStatus] == "active" && q.Filters[FilterSearch] == "abc" {
			return Result[int]{Items: make([]int, 15), TotalCount: 40}, nil
		}
		return Result[int]{Items: make([]int, 20), TotalCount: 20}, nil
	}}
	c := New(rec.fetch, WithPageSize(25))
	defer c.Close()

	c.Refresh()
	c.Wait()
	require.Equal(t, 1, c.State().TotalPages())

	c.SetFilter(FilterStatus, "active")
	c.SetFilter(FilterSearch, "abc")
	assert.Equal(t, 2, c.SetPage(2), "the unfiltered page range does not bound the new query")
	c.Wait()

	vals := rec.last().Values()
	assert.Equal(t, "active", vals.Get("status"))
	assert.Equal(t, "abc", vals.Get("search"))
	assert.Equal(t, "2", vals.Get("page"))
	assert.Equal(t, "25", vals.Get("page_size"))

	st := c.State()
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, 2, st.TotalPages())
	assert.False(t, st.HasNext())
	assert.True(t, st.HasPrev())
}

func TestFilterChangeForgetsPageRange(t *testing.T) {
	h := newHeld()
	c := New(h.fetch, WithPageSize(25))
	defer c.Close()

	c.Refresh()
	h.next(t).reply <- heldReply{res: Result[int]{TotalCount: 20}}
	c.Wait()
	assert.Equal(t, 1, c.SetPage(3), "range known for the current filters")
	h.next(t).reply <- heldReply{res: Result[int]{TotalCount: 20}}
	c.Wait()

	for _, change := range []func(){
		func() { c.SetFilter("make", "3") },
		func() { c.SetFilters(map[string]string{FilterStatus: "active"}) },
		func() { c.ClearFilters() },
	} {
		change()
		pending := h.next(t)
		assert.Equal(t, 5, c.SetPage(5), "range unknown until the filtered result arrives")
		superseding := h.next(t)
		pending.reply <- heldReply{res: Result[int]{TotalCount: 20}}
		superseding.reply <- heldReply{res: Result[int]{TotalCount: 57}}
		c.Wait()

		assert.Equal(t, 3, c.SetPage(9), "range known again once the latest result commits")
		h.next(t).reply <- heldReply{res: Result[int]{TotalCount: 57}}
		c.Wait()
	}
}

func TestSetPageClamps(t *testing.T) {
	rec := &recorder{answer: func(Query) (Result[int], error) {
		return Result[int]{TotalCount: 57}, nil
	}}
	c := New(rec.fetch, WithPageSize(25))
	defer c.Close()

	assert.Equal(t, 9, c.SetPage(9), "unknown range only clamps below")
	c.Wait()
	assert.Equal(t, 3, c.SetPage(10))
	c.Wait()
	assert.Equal(t, 3, rec.last().Page)
	assert.Equal(t, 1, c.SetPage(0))
	c.Wait()
	assert.Equal(t, 1, c.SetPage(-4))
	c.Wait()
	assert.Equal(t, 1, rec.last().Page)
}

func TestNextPrevPage(t *testing.T) {
	rec := &recorder{answer: func(Query) (Result[int], error) {
		return Result[int]{TotalCount: 30}, nil
	}}
	c := New(rec.fetch, WithPageSize(25))
	defer c.Close()
	c.Refresh()
	c.Wait()

	assert.False(t, c.PrevPage())
	assert.True(t, c.NextPage())
	c.Wait()
	assert.Equal(t, 2, c.State().Page)
	assert.False(t, c.NextPage())
	assert.True(t, c.PrevPage())
	c.Wait()
	assert.Equal(t, 1, c.State().Page)
}

func TestEmptyFiltersAreOmitted(t *testing.T) {
	q := Query{Filters: map[string]string{"search": "", "status": "leased", "make": ""}, Page: 1, PageSize: 25}
	vals := q.Values()
	assert.False(t, vals.Has("search"))
	assert.False(t, vals.Has("make"))
	assert.Equal(t, "leased", vals.Get("status"))
}

func TestSetFiltersAndClear(t *testing.T) {
	rec := &recorder{}
	c := New(rec.fetch, WithFilters(map[string]string{"make": "1"}))
	defer c.Close()

	c.SetFilters(map[string]string{FilterStatus: "draft", "make": ""})
	c.Wait()
	assert.Equal(t, map[string]string{FilterStatus: "draft"}, rec.last().Filters)

	c.ClearFilters()
	c.Wait()
	assert.Empty(t, rec.last().Filters)
	assert.Len(t, rec.queries, 2, "one fetch per operation")
}

func TestPanickingFetchBecomesError(t *testing.T) {
	c := New(func(context.Context, Query) (Result[int], error) {
		panic("boom")
	})
	defer c.Close()
	c.Refresh()
	c.Wait()
	st := c.State()
	require.Error(t, st.Err)
	assert.Contains(t, st.Err.Error(), "boom")
	assert.False(t, st.Loading)
}

func TestCloseDiscardsInFlight(t *testing.T) {
	h := newHeld()
	c := New(h.fetch)
	c.Refresh()
	h.next(t)
	c.Close()
	c.Wait()
	assert.Empty(t, c.State().Items)

	c.Refresh()
	select {
	case <-h.calls:
		t.Fatal("closed controller must not fetch")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestOnChangeFires(t *testing.T) {
	var calls atomic.Int32
	rec := &recorder{}
	c := New(rec.fetch, WithOnChange(func() { calls.Add(1) }))
	defer c.Close()

	c.Refresh()
	c.Wait()
	assert.Equal(t, int32(2), calls.Load(), "loading started and result committed")
}
