package types

// ------------------------------
// Request Types
// ------------------------------

// LoginRequest holds the credentials exchanged for a token pair.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// VehicleInput is the writable subset of a vehicle. Nil fields are omitted,
// which makes the same type usable for create and partial update.
type VehicleInput struct {
	Make          *int64  `json:"make,omitempty"`
	CarModel      *int64  `json:"car_model,omitempty"`
	Variant       *int64  `json:"variant,omitempty"`
	Trim          *string `json:"trim,omitempty"`
	Year          *int    `json:"year,omitempty"`
	FuelType      *string `json:"fuel_type,omitempty"`
	MileageKM     *int    `json:"mileage_km,omitempty"`
	Price         *string `json:"price,omitempty"`
	PlateNumber   *string `json:"plate_number,omitempty"`
	VIN           *string `json:"vin,omitempty"`
	Status        *string `json:"status,omitempty"`
	PurchaseDate  *string `json:"purchase_date,omitempty"`
	PurchasePrice *string `json:"purchase_price,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// OfferInput is the writable subset of a leasing offer.
type OfferInput struct {
	Vehicle        *int64  `json:"vehicle,omitempty"`
	Variant        *int64  `json:"variant,omitempty"`
	MonthlyRate    *string `json:"monthly_rate,omitempty"`
	DownPayment    *string `json:"down_payment,omitempty"`
	DurationMonths *int    `json:"duration_months,omitempty"`
	KMLimitPerYear *int    `json:"km_limit_per_year,omitempty"`
	ResidualValue  *string `json:"residual_value,omitempty"`
	ExcessKMRate   *string `json:"excess_km_rate,omitempty"`
	Status         *string `json:"status,omitempty"`
	ValidFrom      *string `json:"valid_from,omitempty"`
	ValidUntil     *string `json:"valid_until,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// ContractInput is the writable subset of a leasing contract.
type ContractInput struct {
	Offer          *int64  `json:"offer,omitempty"`
	Vehicle        *int64  `json:"vehicle,omitempty"`
	Customer       *int64  `json:"customer,omitempty"`
	MonthlyRate    *string `json:"monthly_rate,omitempty"`
	DownPayment    *string `json:"down_payment,omitempty"`
	DurationMonths *int    `json:"duration_months,omitempty"`
	KMLimitPerYear *int    `json:"km_limit_per_year,omitempty"`
	ResidualValue  *string `json:"residual_value,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	EndDate        *string `json:"end_date,omitempty"`
	Status         *string `json:"status,omitempty"`
	SignedAt       *string `json:"signed_at,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}
