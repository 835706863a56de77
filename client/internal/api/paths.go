package api

// Collection paths relative to the API root. Trailing slashes are part of
// the backend's routing and are always sent.
const (
	PathVehicles     = "/vehicles/"
	PathVehicleMakes = "/vehicles/makes/"

	PathOffers    = "/leasing/offers/"
	PathContracts = "/leasing/contracts/"

	PathCatalogMakes       = "/catalog/makes/"
	PathCatalogModels      = "/catalog/models/"
	PathCatalogGenerations = "/catalog/generations/"
	PathCatalogVariants    = "/catalog/variants/"

	PathMe = "/auth/me/"
)
