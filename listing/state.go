package listing

// Result is what one fetch produces. It replaces the previous result in full.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

// State is a snapshot of a controller, safe to hand to a renderer.
type State[T any] struct {
	Filters    map[string]string
	Page       int
	PageSize   int
	Loading    bool
	Items      []T
	TotalCount int
	// Err is the failure of the most recent fetch, nil after a success.
	// Items still hold the last successful result when Err is set.
	Err error
}

// TotalPages is ceil(TotalCount / PageSize).
func (s State[T]) TotalPages() int {
	return totalPages(s.TotalCount, s.PageSize)
}

// HasNext reports whether a page after the current one exists.
func (s State[T]) HasNext() bool {
	return s.Page < s.TotalPages()
}

// HasPrev reports whether a page before the current one exists.
func (s State[T]) HasPrev() bool {
	return s.Page > 1
}

// Filter returns the current value of key, "" when unset.
func (s State[T]) Filter(key string) string {
	return s.Filters[key]
}

func totalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}
