package client

import (
	"context"
	"net/url"

	"github.com/Paaskehare/SevenShift/client/internal/api"
	"github.com/Paaskehare/SevenShift/listing"
)

// Collection paths, relative to the API root.
const (
	PathVehicles           = api.PathVehicles
	PathVehicleMakes       = api.PathVehicleMakes
	PathOffers             = api.PathOffers
	PathContracts          = api.PathContracts
	PathCatalogMakes       = api.PathCatalogMakes
	PathCatalogModels      = api.PathCatalogModels
	PathCatalogGenerations = api.PathCatalogGenerations
	PathCatalogVariants    = api.PathCatalogVariants
	PathMe                 = api.PathMe
)

// --------------------------------------------------------------------
// Generic helpers - delegated to internal/api
// --------------------------------------------------------------------

// List fetches one page of the collection at path.
func List[T any](ctx context.Context, c *Client, path string, params url.Values) (*Page[T], error) {
	return api.List[T](ctx, c, path, params)
}

// Get fetches record id of the collection at path.
func Get[T any](ctx context.Context, c *Client, path string, id int64) (*T, error) {
	return api.Get[T](ctx, c, path, id)
}

// Create posts in to the collection at path.
func Create[T any](ctx context.Context, c *Client, path string, in any) (*T, error) {
	return api.Create[T](ctx, c, path, in)
}

// Patch partially updates record id of the collection at path.
func Patch[T any](ctx context.Context, c *Client, path string, id int64, in any) (*T, error) {
	return api.Patch[T](ctx, c, path, id, in)
}

// Delete removes record id of the collection at path.
func Delete(ctx context.Context, c *Client, path string, id int64) error {
	return api.Delete(ctx, c, path, id)
}

// ListFetcher adapts the collection at path to a list controller.
func ListFetcher[T any](c *Client, path string) listing.FetchFunc[T] {
	return func(ctx context.Context, q listing.Query) (listing.Result[T], error) {
		page, err := api.List[T](ctx, c, path, q.Values())
		if err != nil {
			return listing.Result[T]{}, err
		}
		return listing.Result[T]{Items: page.Results, TotalCount: page.Count}, nil
	}
}

// --------------------------------------------------------------------
// Typed services
// --------------------------------------------------------------------

// ReadOnly is a collection that supports list and detail only.
type ReadOnly[T any] struct {
	c    *Client
	path string
}

// Path returns the collection path.
func (r *ReadOnly[T]) Path() string { return r.path }

// List fetches one page. params carries filters, page and page_size.
func (r *ReadOnly[T]) List(ctx context.Context, params url.Values) (*Page[T], error) {
	return api.List[T](ctx, r.c, r.path, params)
}

// Get fetches one record.
func (r *ReadOnly[T]) Get(ctx context.Context, id int64) (*T, error) {
	return api.Get[T](ctx, r.c, r.path, id)
}

// Fetcher returns a FetchFunc for a list controller over this collection.
func (r *ReadOnly[T]) Fetcher() listing.FetchFunc[T] {
	return ListFetcher[T](r.c, r.path)
}

// Writable is a collection that also supports create, partial update and
// delete. In is the request body type.
type Writable[T, In any] struct {
	ReadOnly[T]
}

// Create posts a new record.
func (w *Writable[T, In]) Create(ctx context.Context, in In) (*T, error) {
	return api.Create[T](ctx, w.c, w.path, in)
}

// Patch updates the non-nil fields of in on record id.
func (w *Writable[T, In]) Patch(ctx context.Context, id int64, in In) (*T, error) {
	return api.Patch[T](ctx, w.c, w.path, id, in)
}

// Delete removes record id.
func (w *Writable[T, In]) Delete(ctx context.Context, id int64) error {
	return api.Delete(ctx, w.c, w.path, id)
}

func readOnly[T any](c *Client, path string) *ReadOnly[T] {
	return &ReadOnly[T]{c: c, path: path}
}

func writable[T, In any](c *Client, path string) *Writable[T, In] {
	return &Writable[T, In]{ReadOnly: ReadOnly[T]{c: c, path: path}}
}

// Vehicles is /vehicles/.
func (c *Client) Vehicles() *Writable[Vehicle, VehicleInput] {
	return writable[Vehicle, VehicleInput](c, api.PathVehicles)
}

// VehicleMakes is /vehicles/makes/, the normalised makes used for filtering.
func (c *Client) VehicleMakes() *ReadOnly[VehicleMake] {
	return readOnly[VehicleMake](c, api.PathVehicleMakes)
}

// Offers is /leasing/offers/.
func (c *Client) Offers() *Writable[LeasingOffer, OfferInput] {
	return writable[LeasingOffer, OfferInput](c, api.PathOffers)
}

// Contracts is /leasing/contracts/.
func (c *Client) Contracts() *Writable[LeasingContract, ContractInput] {
	return writable[LeasingContract, ContractInput](c, api.PathContracts)
}

// Catalog groups the read-only technical catalog.
type Catalog struct{ c *Client }

// Catalog returns the catalog collections.
func (c *Client) Catalog() Catalog { return Catalog{c: c} }

func (k Catalog) Makes() *ReadOnly[CatalogMake] {
	return readOnly[CatalogMake](k.c, api.PathCatalogMakes)
}

func (k Catalog) Models() *ReadOnly[CatalogModel] {
	return readOnly[CatalogModel](k.c, api.PathCatalogModels)
}

func (k Catalog) Generations() *ReadOnly[CatalogGeneration] {
	return readOnly[CatalogGeneration](k.c, api.PathCatalogGenerations)
}

func (k Catalog) Variants() *ReadOnly[CatalogVariant] {
	return readOnly[CatalogVariant](k.c, api.PathCatalogVariants)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	return api.Me(ctx, c)
}
