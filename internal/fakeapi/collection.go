package fakeapi

import (
	"cmp"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/Paaskehare/SevenShift/client"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// table is an in-memory collection keyed by integer primary key.
type table[T any] struct {
	mu     sync.RWMutex
	rows   map[int64]T
	nextID int64
	id     func(T) int64
}

func newTable[T any](id func(T) int64) *table[T] {
	return &table[T]{rows: map[int64]T{}, nextID: 1, id: id}
}

// put stores a fully formed row, keeping the id sequence ahead of it.
func (t *table[T]) put(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	t.rows[id] = row
	if id >= t.nextID {
		t.nextID = id + 1
	}
}

// insert allocates the next id and stores the row build returns.
func (t *table[T]) insert(build func(id int64) T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	row := build(id)
	t.rows[id] = row
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// update applies fn to a copy of row id and stores it unless fn reports
// validation errors.
func (t *table[T]) update(id int64, fn func(*T) fieldErrors) (T, fieldErrors, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, nil, false
	}
	if fe := fn(&row); len(fe) > 0 {
		return row, fe, true
	}
	t.rows[id] = row
	return row, nil, true
}

func (t *table[T]) delete(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// all returns every row ordered by id.
func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(t.id(a), t.id(b)) })
	return out
}

func (t *table[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// listSpec describes how a collection endpoint filters, searches and orders.
type listSpec[T any] struct {
	// filters maps a query parameter to an exact-match predicate.
	filters map[string]func(row T, value string) bool
	// search returns the texts a ?search= term is matched against.
	search func(row T) []string
	// ordering maps an ?ordering= field to its comparator.
	ordering map[string]func(a, b T) int
	// defaultOrder applies when no valid ordering is requested.
	defaultOrder func(a, b T) int
}

func (spec listSpec[T]) apply(rows []T, q url.Values) []T {
	for key, match := range spec.filters {
		v := q.Get(key)
		if v == "" {
			continue
		}
		rows = slices.DeleteFunc(rows, func(row T) bool { return !match(row, v) })
	}

	if term := strings.ToLower(strings.TrimSpace(q.Get("search"))); term != "" && spec.search != nil {
		rows = slices.DeleteFunc(rows, func(row T) bool {
			for _, text := range spec.search(row) {
				if strings.Contains(strings.ToLower(text), term) {
					return false
				}
			}
			return true
		})
	}

	order := spec.defaultOrder
	if field := q.Get("ordering"); field != "" {
		desc := strings.HasPrefix(field, "-")
		if by, ok := spec.ordering[strings.TrimPrefix(field, "-")]; ok {
			order = by
			if desc {
				order = func(a, b T) int { return by(b, a) }
			}
		}
	}
	if order != nil {
		slices.SortStableFunc(rows, order)
	}
	return rows
}

func listHandler[T any](t *table[T], spec listSpec[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, spec.apply(t.all(), r.URL.Query()))
	}
}

// paginate writes the {count, next, previous, results} envelope. Pages past
// the end are a 404, as on the real backend.
func paginate[T any](w http.ResponseWriter, r *http.Request, rows []T) {
	q := r.URL.Query()

	size := defaultPageSize
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		size = min(v, maxPageSize)
	}
	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		page = n
	}

	total := len(rows)
	pages := max(1, (total+size-1)/size)
	if page > pages {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}

	start := (page - 1) * size
	end := min(start+size, total)
	out := client.Page[T]{Count: total, Results: rows[start:end]}
	if page < pages {
		out.Next = pageURL(r, page+1)
	}
	if page > 1 {
		out.Previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, out)
}

func pageURL(r *http.Request, page int) *string {
	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	s := u.String()
	return &s
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func detailHandler[T any](t *table[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeNotFound(w)
			return
		}
		row, found := t.get(id)
		if !found {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func deleteHandler[T any](t *table[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok || !t.delete(id) {
			writeNotFound(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeSpec describes how a writable collection validates and applies a
// request body of type In.
type writeSpec[T, In any] struct {
	// validate checks in; current is nil on create. It runs under the
	// table lock and must not read the same table.
	validate func(in In, current *T) fieldErrors
	// unique, when set, checks in against the other rows of the table
	// before the write; id is 0 on create.
	unique func(in In, id int64) fieldErrors
	// apply copies the non-nil fields of in onto row.
	apply func(row *T, in In)
	// init sets the server-owned fields of a new row.
	init func(row *T, id int64, now time.Time, by client.User)
	// touch updates server-owned fields on change.
	touch func(row *T, now time.Time)
}

func createHandler[T, In any](s *Server, t *table[T], ws writeSpec[T, In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
			return
		}
		fe := fieldErrors{}
		merge(fe, ws.validate(in, nil))
		if ws.unique != nil {
			merge(fe, ws.unique(in, 0))
		}
		if len(fe) > 0 {
			writeFieldErrors(w, fe)
			return
		}
		by := userFrom(r.Context())
		row := t.insert(func(id int64) T {
			var row T
			ws.apply(&row, in)
			ws.init(&row, id, s.now(), by)
			return row
		})
		writeJSON(w, http.StatusCreated, row)
	}
}

func patchHandler[T, In any](s *Server, t *table[T], ws writeSpec[T, In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeNotFound(w)
			return
		}
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
			return
		}
		if ws.unique != nil {
			if fe := ws.unique(in, id); len(fe) > 0 {
				writeFieldErrors(w, fe)
				return
			}
		}
		row, fe, found := t.update(id, func(row *T) fieldErrors {
			if fe := ws.validate(in, row); len(fe) > 0 {
				return fe
			}
			ws.apply(row, in)
			ws.touch(row, s.now())
			return nil
		})
		switch {
		case !found:
			writeNotFound(w)
		case len(fe) > 0:
			writeFieldErrors(w, fe)
		default:
			writeJSON(w, http.StatusOK, row)
		}
	}
}

// Filter predicate builders.

func matchID[T any](get func(T) int64) func(T, string) bool {
	return func(row T, v string) bool {
		id, err := strconv.ParseInt(v, 10, 64)
		return err == nil && get(row) == id
	}
}

func matchOptID[T any](get func(T) *int64) func(T, string) bool {
	return func(row T, v string) bool {
		id, err := strconv.ParseInt(v, 10, 64)
		p := get(row)
		return err == nil && p != nil && *p == id
	}
}

func matchString[T any](get func(T) string) func(T, string) bool {
	return func(row T, v string) bool { return get(row) == v }
}

func matchOptString[T any](get func(T) *string) func(T, string) bool {
	return func(row T, v string) bool {
		p := get(row)
		return p != nil && *p == v
	}
}

func matchOptInt[T any](get func(T) *int) func(T, string) bool {
	return func(row T, v string) bool {
		n, err := strconv.Atoi(v)
		p := get(row)
		return err == nil && p != nil && *p == n
	}
}

func matchBool[T any](get func(T) bool) func(T, string) bool {
	return func(row T, v string) bool {
		b, err := strconv.ParseBool(strings.ToLower(v))
		return err == nil && get(row) == b
	}
}

// Comparators for optional values; nil sorts first.

func cmpOpt[V cmp.Ordered](a, b *V) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

// cmpDecimal orders decimal strings numerically.
func cmpDecimal(a, b string) int {
	fa, _ := strconv.ParseFloat(a, 64)
	fb, _ := strconv.ParseFloat(b, 64)
	return cmp.Compare(fa, fb)
}

func deref[V any](p *V) V {
	var zero V
	if p == nil {
		return zero
	}
	return *p
}
