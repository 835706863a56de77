package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Decimal fields (prices, rates) arrive as JSON strings and are kept verbatim.

// User is the authenticated dashboard user returned by /auth/me/.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
}

// VehicleImage is one photo of a vehicle; Order 0 is the primary image.
type VehicleImage struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
	Order int    `json:"order"`
}

// VariantSummary is the compact catalog variant embedded in a vehicle.
type VariantSummary struct {
	ID           int64   `json:"id"`
	Variant      *string `json:"variant"`
	Modification *string `json:"modification"`
	BodyType     *string `json:"body_type"`
	FuelType     *string `json:"fuel_type"`
	PowerHP      *int    `json:"power_hp"`
	Transmission *string `json:"transmission"`
	Drivetrain   *string `json:"drivetrain,omitempty"`
}

// Vehicle is a fleet vehicle or a scraped market listing.
type Vehicle struct {
	ID                 int64           `json:"id"`
	SearchConfig       *int64          `json:"search_config"`
	Variant            *int64          `json:"variant"`
	VariantDetail      *VariantSummary `json:"variant_detail"`
	Make               *int64          `json:"make"`
	CarModel           *int64          `json:"car_model"`
	DisplayName        string          `json:"display_name"`
	Trim               string          `json:"trim"`
	Year               *int            `json:"year"`
	FirstRegistration  string          `json:"first_registration"`
	BodyType           string          `json:"body_type"`
	ListingID          *string         `json:"listing_id"`
	SourceURL          string          `json:"source_url"`
	Price              *string         `json:"price"`
	PriceVAT           bool            `json:"price_vat"`
	PriceVATExempt     bool            `json:"price_vat_exempt"`
	MileageKM          *int            `json:"mileage_km"`
	MileageUpdatedAt   *time.Time      `json:"mileage_updated_at"`
	FuelType           string          `json:"fuel_type"`
	PowerHP            *int            `json:"power_hp"`
	BatteryCapacityKWh *string         `json:"battery_capacity_kwh"`
	Color              string          `json:"color"`
	ColorCode          string          `json:"color_code"`
	InteriorColor      string          `json:"interior_color"`
	Equipment          []string        `json:"equipment"`
	ThumbnailURL       string          `json:"thumbnail_url"`
	Images             []VehicleImage  `json:"images"`
	PriceRating        string          `json:"price_rating,omitempty"`
	Country            string          `json:"country,omitempty"`
	SellerType         string          `json:"seller_type,omitempty"`
	PlateNumber        *string         `json:"plate_number"`
	VIN                *string         `json:"vin"`
	Status             string          `json:"status"`
	PurchaseDate       *string         `json:"purchase_date"`
	PurchasePrice      *string         `json:"purchase_price"`
	Notes              string          `json:"notes"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// VehicleCarModel is a model under a vehicles-app make.
type VehicleCarModel struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	MobileDeID *int   `json:"mobile_de_id"`
}

// VehicleMake is the normalised make used for vehicle filtering.
type VehicleMake struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	MobileDeID *int              `json:"mobile_de_id"`
	Models     []VehicleCarModel `json:"models"`
}

// LeasingOffer is a priced leasing proposal for a vehicle or a catalog variant.
type LeasingOffer struct {
	ID             int64     `json:"id"`
	Vehicle        *int64    `json:"vehicle"`
	Variant        *int64    `json:"variant"`
	MonthlyRate    string    `json:"monthly_rate"`
	DownPayment    string    `json:"down_payment"`
	DurationMonths int       `json:"duration_months"`
	KMLimitPerYear int       `json:"km_limit_per_year"`
	ResidualValue  *string   `json:"residual_value"`
	ExcessKMRate   *string   `json:"excess_km_rate"`
	Status         string    `json:"status"`
	ValidFrom      *string   `json:"valid_from"`
	ValidUntil     *string   `json:"valid_until"`
	Notes          string    `json:"notes"`
	CreatedBy      *int64    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LeasingContract is a signed leasing agreement with pricing snapshotted
// from its offer.
type LeasingContract struct {
	ID             int64      `json:"id"`
	Offer          int64      `json:"offer"`
	Vehicle        int64      `json:"vehicle"`
	Customer       int64      `json:"customer"`
	MonthlyRate    string     `json:"monthly_rate"`
	DownPayment    string     `json:"down_payment"`
	DurationMonths int        `json:"duration_months"`
	KMLimitPerYear int        `json:"km_limit_per_year"`
	ResidualValue  *string    `json:"residual_value"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Status         string     `json:"status"`
	SignedAt       *time.Time `json:"signed_at"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CatalogMake is a manufacturer in the read-only technical catalog.
type CatalogMake struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country *string `json:"country"`
	Founded *int    `json:"founded"`
	LogoURL string  `json:"logo_url"`
	DataID  *int    `json:"data_id"`
}

// CatalogModel is a model line under a catalog make.
type CatalogModel struct {
	ID          int64               `json:"id"`
	Make        int64               `json:"make"`
	Name        string              `json:"name"`
	DataID      *int                `json:"data_id"`
	Generations []CatalogGeneration `json:"generations,omitempty"`
}

// CatalogGeneration is a production generation of a model.
type CatalogGeneration struct {
	ID              int64            `json:"id"`
	CarModel        int64            `json:"car_model"`
	Name            *string          `json:"name"`
	ProductionStart *int             `json:"production_start"`
	ProductionEnd   *int             `json:"production_end"`
	DataID          *int             `json:"data_id"`
	Variants        []VariantSummary `json:"variants,omitempty"`
}

// CatalogVariant is the full technical record of one trim/engine.
type CatalogVariant struct {
	ID                    int64   `json:"id"`
	Generation            int64   `json:"generation"`
	Variant               *string `json:"variant"`
	Modification          *string `json:"modification"`
	BodyType              *string `json:"body_type"`
	Seats                 *int    `json:"seats"`
	Doors                 *int    `json:"doors"`
	FuelType              *string `json:"fuel_type"`
	EngineDisplacementCC  *int    `json:"engine_displacement_cc"`
	EngineCylinders       *int    `json:"engine_cylinders"`
	PowerHP               *int    `json:"power_hp"`
	PowerKW               *int    `json:"power_kw"`
	TorqueNM              *int    `json:"torque_nm"`
	Transmission          *string `json:"transmission"`
	NumberOfGears         *int    `json:"number_of_gears"`
	Drive                 *string `json:"drive"`
	Acceleration0100      *string `json:"acceleration_0_100"`
	TopSpeedKMH           *int    `json:"top_speed_kmh"`
	FuelConsumptionL100KM *string `json:"fuel_consumption_l100km"`
	CO2GKM                *int    `json:"co2_g_km"`
	GrossBatteryCapacity  *string `json:"gross_battery_capacity"`
	AllElectricRange      *int    `json:"all_electric_range"`
}
