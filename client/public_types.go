package client

import "github.com/Paaskehare/SevenShift/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	LoginRequest   = types.LoginRequest
	RefreshRequest = types.RefreshRequest
	VehicleInput   = types.VehicleInput
	OfferInput     = types.OfferInput
	ContractInput  = types.ContractInput

	// Domain entities
	User              = types.User
	Vehicle           = types.Vehicle
	VehicleImage      = types.VehicleImage
	VariantSummary    = types.VariantSummary
	VehicleMake       = types.VehicleMake
	VehicleCarModel   = types.VehicleCarModel
	LeasingOffer      = types.LeasingOffer
	LeasingContract   = types.LeasingContract
	CatalogMake       = types.CatalogMake
	CatalogModel      = types.CatalogModel
	CatalogGeneration = types.CatalogGeneration
	CatalogVariant    = types.CatalogVariant

	// Responses
	TokenPair   = types.TokenPair
	AccessToken = types.AccessToken
)

// Page is the paginated list envelope returned by collection endpoints.
type Page[T any] = types.Page[T]

// Allowed status filter values, in display order.
var (
	VehicleStatuses  = types.VehicleStatuses
	OfferStatuses    = types.OfferStatuses
	ContractStatuses = types.ContractStatuses
	UserRoles        = types.UserRoles
)
