package listing

import (
	"maps"
	"net/url"
	"strconv"
)

// Well-known filter keys shared by every collection endpoint.
const (
	FilterSearch   = "search"
	FilterStatus   = "status"
	FilterOrdering = "ordering"
)

// Query is an immutable snapshot of a controller's query state, taken when a
// fetch starts.
type Query struct {
	Filters  map[string]string
	Page     int
	PageSize int
}

// Values serialises the query as request parameters. Filters with an empty
// value are omitted so the backend treats them as "no constraint".
func (q Query) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Filters {
		if val == "" {
			continue
		}
		v.Set(k, val)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	return v
}

func (q Query) clone() Query {
	q.Filters = maps.Clone(q.Filters)
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	return q
}
