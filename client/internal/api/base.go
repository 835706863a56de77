package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Paaskehare/SevenShift/client/internal/types"
)

// Requester performs one authenticated API call and decodes the JSON
// response into out. The public client implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, params url.Values, body, out any) error
}

// List fetches one page of the collection at path.
func List[T any](ctx context.Context, r Requester, path string, params url.Values) (*types.Page[T], error) {
	var page types.Page[T]
	if err := r.Request(ctx, http.MethodGet, path, params, nil, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return &page, nil
}

// Get fetches the record id of the collection at path.
func Get[T any](ctx context.Context, r Requester, path string, id int64) (*T, error) {
	if err := types.ValidateID(id, "id"); err != nil {
		return nil, err
	}
	var out T
	if err := r.Request(ctx, http.MethodGet, Detail(path, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts in to the collection at path and returns the created record.
func Create[T any](ctx context.Context, r Requester, path string, in any) (*T, error) {
	var out T
	if err := r.Request(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch partially updates record id and returns the updated record.
func Patch[T any](ctx context.Context, r Requester, path string, id int64, in any) (*T, error) {
	if err := types.ValidateID(id, "id"); err != nil {
		return nil, err
	}
	var out T
	if err := r.Request(ctx, http.MethodPatch, Detail(path, id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes record id. The backend answers 204 No Content.
func Delete(ctx context.Context, r Requester, path string, id int64) error {
	if err := types.ValidateID(id, "id"); err != nil {
		return err
	}
	return r.Request(ctx, http.MethodDelete, Detail(path, id), nil, nil, nil)
}

// Detail returns the detail path of record id under a collection path that
// ends in a slash.
func Detail(collection string, id int64) string {
	return fmt.Sprintf("%s%d/", collection, id)
}
