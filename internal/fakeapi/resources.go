package fakeapi

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Paaskehare/SevenShift/client"
)

// ------------------------------
// Vehicles
// ------------------------------

func (s *Server) vehicleSpec() listSpec[client.Vehicle] {
	type V = client.Vehicle
	return listSpec[V]{
		filters: map[string]func(V, string) bool{
			"status":    matchString(func(v V) string { return v.Status }),
			"year":      matchOptInt(func(v V) *int { return v.Year }),
			"fuel_type": matchString(func(v V) string { return v.FuelType }),
			"make":      matchOptID(func(v V) *int64 { return v.Make }),
			"car_model": matchOptID(func(v V) *int64 { return v.CarModel }),
			"variant":   matchOptID(func(v V) *int64 { return v.Variant }),
			"is_active": matchBool(func(v V) bool { return v.IsActive }),
		},
		search: func(v V) []string {
			return []string{deref(v.PlateNumber), deref(v.VIN), deref(v.ListingID), v.Trim, v.DisplayName}
		},
		ordering: map[string]func(a, b V) int{
			"created_at": func(a, b V) int { return a.CreatedAt.Compare(b.CreatedAt) },
			"year":       func(a, b V) int { return cmpOpt(a.Year, b.Year) },
			"mileage_km": func(a, b V) int { return cmpOpt(a.MileageKM, b.MileageKM) },
			"status":     func(a, b V) int { return cmp.Compare(a.Status, b.Status) },
			"price":      func(a, b V) int { return cmpDecimal(deref(a.Price), deref(b.Price)) },
		},
		defaultOrder: func(a, b V) int { return b.CreatedAt.Compare(a.CreatedAt) },
	}
}

func (s *Server) vehicleWrite() writeSpec[client.Vehicle, client.VehicleInput] {
	return writeSpec[client.Vehicle, client.VehicleInput]{
		validate: func(in client.VehicleInput, current *client.Vehicle) fieldErrors {
			fe := fieldErrors{}
			if current == nil && in.Make == nil {
				fe.required("make")
			}
			if in.Make != nil {
				if _, ok := s.vehicleMakes.get(*in.Make); !ok {
					fe.add("make", invalidPK(*in.Make))
				}
			}
			if in.Variant != nil {
				if _, ok := s.variants.get(*in.Variant); !ok {
					fe.add("variant", invalidPK(*in.Variant))
				}
			}
			if in.Status != nil {
				checkChoice(fe, "status", *in.Status, client.VehicleStatuses)
			}
			if in.Year != nil && (*in.Year < 1900 || *in.Year > 2100) {
				fe.add("year", "Ensure this value is between 1900 and 2100.")
			}
			if in.MileageKM != nil && *in.MileageKM < 0 {
				fe.add("mileage_km", "Ensure this value is greater than or equal to 0.")
			}
			checkDecimal(fe, "price", in.Price)
			checkDecimal(fe, "purchase_price", in.PurchasePrice)
			checkDate(fe, "purchase_date", in.PurchaseDate)
			return fe
		},
		unique: func(in client.VehicleInput, id int64) fieldErrors {
			fe := fieldErrors{}
			if in.VIN == nil || *in.VIN == "" {
				return fe
			}
			for _, v := range s.vehicles.all() {
				if v.ID != id && deref(v.VIN) == *in.VIN {
					fe.add("vin", "vehicle with this vin already exists.")
					break
				}
			}
			return fe
		},
		apply: s.applyVehicle,
		init: func(v *client.Vehicle, id int64, now time.Time, _ client.User) {
			v.ID = id
			v.CreatedAt, v.UpdatedAt = now, now
			if v.Status == "" {
				v.Status = "available"
			}
			if v.Images == nil {
				v.Images = []client.VehicleImage{}
			}
			v.DisplayName = s.displayName(*v)
		},
		touch: func(v *client.Vehicle, now time.Time) {
			v.UpdatedAt = now
			v.DisplayName = s.displayName(*v)
		},
	}
}

func (s *Server) applyVehicle(v *client.Vehicle, in client.VehicleInput) {
	setOpt(&v.Make, in.Make)
	setOpt(&v.CarModel, in.CarModel)
	setOpt(&v.Variant, in.Variant)
	setOpt(&v.Year, in.Year)
	setOpt(&v.MileageKM, in.MileageKM)
	setOpt(&v.Price, in.Price)
	setOpt(&v.PlateNumber, in.PlateNumber)
	setOpt(&v.VIN, in.VIN)
	setOpt(&v.PurchaseDate, in.PurchaseDate)
	setOpt(&v.PurchasePrice, in.PurchasePrice)
	set(&v.Trim, in.Trim)
	set(&v.FuelType, in.FuelType)
	set(&v.Status, in.Status)
	set(&v.Notes, in.Notes)
	if in.IsActive != nil {
		v.IsActive = *in.IsActive
	} else if v.ID == 0 {
		v.IsActive = true
	}
	if in.Variant != nil {
		if cv, ok := s.variants.get(*in.Variant); ok {
			v.VariantDetail = variantSummary(cv)
		}
	}
}

// displayName is "<make> <model> <trim>" with missing parts skipped.
func (s *Server) displayName(v client.Vehicle) string {
	var parts []string
	if v.Make != nil {
		if m, ok := s.vehicleMakes.get(*v.Make); ok {
			parts = append(parts, m.Name)
			if v.CarModel != nil {
				for _, cm := range m.Models {
					if cm.ID == *v.CarModel {
						parts = append(parts, cm.Name)
					}
				}
			}
		}
	}
	if v.Trim != "" {
		parts = append(parts, v.Trim)
	}
	return strings.Join(parts, " ")
}

func (s *Server) vehicleMakeSpec() listSpec[client.VehicleMake] {
	type M = client.VehicleMake
	return listSpec[M]{
		search:       func(m M) []string { return []string{m.Name, m.Slug} },
		ordering:     map[string]func(a, b M) int{"name": func(a, b M) int { return cmp.Compare(a.Name, b.Name) }},
		defaultOrder: func(a, b M) int { return cmp.Compare(a.Name, b.Name) },
	}
}

// ------------------------------
// Leasing
// ------------------------------

func (s *Server) offerSpec() listSpec[client.LeasingOffer] {
	type O = client.LeasingOffer
	return listSpec[O]{
		filters: map[string]func(O, string) bool{
			"status":  matchString(func(o O) string { return o.Status }),
			"vehicle": matchOptID(func(o O) *int64 { return o.Vehicle }),
			"variant": matchOptID(func(o O) *int64 { return o.Variant }),
		},
		search: func(o O) []string {
			var texts []string
			if o.Vehicle != nil {
				if v, ok := s.vehicles.get(*o.Vehicle); ok {
					texts = append(texts, deref(v.PlateNumber), v.DisplayName)
				}
			}
			if o.Variant != nil {
				if cv, ok := s.variants.get(*o.Variant); ok {
					texts = append(texts, deref(cv.Variant), s.variantMakeName(cv))
				}
			}
			return texts
		},
		ordering: map[string]func(a, b O) int{
			"created_at":      func(a, b O) int { return a.CreatedAt.Compare(b.CreatedAt) },
			"monthly_rate":    func(a, b O) int { return cmpDecimal(a.MonthlyRate, b.MonthlyRate) },
			"duration_months": func(a, b O) int { return cmp.Compare(a.DurationMonths, b.DurationMonths) },
		},
		defaultOrder: func(a, b O) int { return b.CreatedAt.Compare(a.CreatedAt) },
	}
}

func (s *Server) offerWrite() writeSpec[client.LeasingOffer, client.OfferInput] {
	return writeSpec[client.LeasingOffer, client.OfferInput]{
		validate: func(in client.OfferInput, current *client.LeasingOffer) fieldErrors {
			fe := fieldErrors{}
			if current == nil {
				if in.MonthlyRate == nil {
					fe.required("monthly_rate")
				}
				if in.DurationMonths == nil {
					fe.required("duration_months")
				}
			}
			vehicle, variant := in.Vehicle, in.Variant
			if current != nil {
				if vehicle == nil {
					vehicle = current.Vehicle
				}
				if variant == nil {
					variant = current.Variant
				}
			}
			if vehicle == nil && variant == nil {
				fe.add("non_field_errors", "An offer must reference either a fleet vehicle or a catalog variant.")
			}
			if in.Vehicle != nil {
				if _, ok := s.vehicles.get(*in.Vehicle); !ok {
					fe.add("vehicle", invalidPK(*in.Vehicle))
				}
			}
			if in.Variant != nil {
				if _, ok := s.variants.get(*in.Variant); !ok {
					fe.add("variant", invalidPK(*in.Variant))
				}
			}
			if in.Status != nil {
				checkChoice(fe, "status", *in.Status, client.OfferStatuses)
			}
			if in.DurationMonths != nil && *in.DurationMonths <= 0 {
				fe.add("duration_months", "Ensure this value is greater than or equal to 1.")
			}
			checkDecimal(fe, "monthly_rate", in.MonthlyRate)
			checkDecimal(fe, "down_payment", in.DownPayment)
			checkDecimal(fe, "residual_value", in.ResidualValue)
			checkDecimal(fe, "excess_km_rate", in.ExcessKMRate)
			checkDate(fe, "valid_from", in.ValidFrom)
			checkDate(fe, "valid_until", in.ValidUntil)
			return fe
		},
		apply: func(o *client.LeasingOffer, in client.OfferInput) {
			setOpt(&o.Vehicle, in.Vehicle)
			setOpt(&o.Variant, in.Variant)
			setOpt(&o.ResidualValue, in.ResidualValue)
			setOpt(&o.ExcessKMRate, in.ExcessKMRate)
			setOpt(&o.ValidFrom, in.ValidFrom)
			setOpt(&o.ValidUntil, in.ValidUntil)
			set(&o.MonthlyRate, in.MonthlyRate)
			set(&o.DownPayment, in.DownPayment)
			set(&o.DurationMonths, in.DurationMonths)
			set(&o.KMLimitPerYear, in.KMLimitPerYear)
			set(&o.Status, in.Status)
			set(&o.Notes, in.Notes)
		},
		init: func(o *client.LeasingOffer, id int64, now time.Time, by client.User) {
			o.ID = id
			o.CreatedAt, o.UpdatedAt = now, now
			if by.ID != 0 {
				o.CreatedBy = &by.ID
			}
			if o.Status == "" {
				o.Status = "draft"
			}
			if o.DownPayment == "" {
				o.DownPayment = "0.00"
			}
			if o.KMLimitPerYear == 0 {
				o.KMLimitPerYear = 15000
			}
		},
		touch: func(o *client.LeasingOffer, now time.Time) { o.UpdatedAt = now },
	}
}

func (s *Server) contractSpec() listSpec[client.LeasingContract] {
	type C = client.LeasingContract
	return listSpec[C]{
		filters: map[string]func(C, string) bool{
			"status":   matchString(func(c C) string { return c.Status }),
			"vehicle":  matchID(func(c C) int64 { return c.Vehicle }),
			"customer": matchID(func(c C) int64 { return c.Customer }),
			"offer":    matchID(func(c C) int64 { return c.Offer }),
		},
		search: func(c C) []string {
			var texts []string
			if v, ok := s.vehicles.get(c.Vehicle); ok {
				texts = append(texts, deref(v.PlateNumber))
			}
			if u, ok := s.userByID(c.Customer); ok {
				texts = append(texts, u.Username, u.Email)
			}
			return texts
		},
		ordering: map[string]func(a, b C) int{
			"start_date": func(a, b C) int { return cmp.Compare(a.StartDate, b.StartDate) },
			"end_date":   func(a, b C) int { return cmp.Compare(a.EndDate, b.EndDate) },
			"created_at": func(a, b C) int { return a.CreatedAt.Compare(b.CreatedAt) },
		},
		defaultOrder: func(a, b C) int { return cmp.Compare(b.StartDate, a.StartDate) },
	}
}

func (s *Server) contractWrite() writeSpec[client.LeasingContract, client.ContractInput] {
	return writeSpec[client.LeasingContract, client.ContractInput]{
		validate: func(in client.ContractInput, current *client.LeasingContract) fieldErrors {
			fe := fieldErrors{}
			if current == nil {
				for field, missing := range map[string]bool{
					"offer":           in.Offer == nil,
					"vehicle":         in.Vehicle == nil,
					"customer":        in.Customer == nil,
					"monthly_rate":    in.MonthlyRate == nil,
					"duration_months": in.DurationMonths == nil,
					"start_date":      in.StartDate == nil,
					"end_date":        in.EndDate == nil,
				} {
					if missing {
						fe.required(field)
					}
				}
			}
			if in.Offer != nil {
				if _, ok := s.offers.get(*in.Offer); !ok {
					fe.add("offer", invalidPK(*in.Offer))
				}
			}
			if in.Vehicle != nil {
				if _, ok := s.vehicles.get(*in.Vehicle); !ok {
					fe.add("vehicle", invalidPK(*in.Vehicle))
				}
			}
			if in.Customer != nil {
				if _, ok := s.userByID(*in.Customer); !ok {
					fe.add("customer", invalidPK(*in.Customer))
				}
			}
			if in.Status != nil {
				checkChoice(fe, "status", *in.Status, client.ContractStatuses)
			}
			checkDecimal(fe, "monthly_rate", in.MonthlyRate)
			checkDecimal(fe, "down_payment", in.DownPayment)
			checkDecimal(fe, "residual_value", in.ResidualValue)
			checkDate(fe, "start_date", in.StartDate)
			checkDate(fe, "end_date", in.EndDate)

			start, end := deref(in.StartDate), deref(in.EndDate)
			if current != nil {
				if start == "" {
					start = current.StartDate
				}
				if end == "" {
					end = current.EndDate
				}
			}
			if start != "" && end != "" && len(fe["start_date"]) == 0 && len(fe["end_date"]) == 0 && end <= start {
				fe.add("non_field_errors", "end_date must be after start_date.")
			}
			return fe
		},
		apply: func(c *client.LeasingContract, in client.ContractInput) {
			set(&c.Offer, in.Offer)
			set(&c.Vehicle, in.Vehicle)
			set(&c.Customer, in.Customer)
			set(&c.MonthlyRate, in.MonthlyRate)
			set(&c.DownPayment, in.DownPayment)
			set(&c.DurationMonths, in.DurationMonths)
			set(&c.KMLimitPerYear, in.KMLimitPerYear)
			setOpt(&c.ResidualValue, in.ResidualValue)
			set(&c.StartDate, in.StartDate)
			set(&c.EndDate, in.EndDate)
			set(&c.Status, in.Status)
			set(&c.Notes, in.Notes)
			if in.SignedAt != nil {
				if t, err := time.Parse(time.RFC3339, *in.SignedAt); err == nil {
					c.SignedAt = &t
				}
			}
		},
		init: func(c *client.LeasingContract, id int64, now time.Time, _ client.User) {
			c.ID = id
			c.CreatedAt, c.UpdatedAt = now, now
			if c.Status == "" {
				c.Status = "pending"
			}
			if c.DownPayment == "" {
				c.DownPayment = "0.00"
			}
		},
		touch: func(c *client.LeasingContract, now time.Time) { c.UpdatedAt = now },
	}
}

// ------------------------------
// Catalog
// ------------------------------

func (s *Server) catalogMakeSpec() listSpec[client.CatalogMake] {
	type M = client.CatalogMake
	return listSpec[M]{
		filters: map[string]func(M, string) bool{
			"country": matchOptString(func(m M) *string { return m.Country }),
		},
		search:       func(m M) []string { return []string{m.Name} },
		ordering:     map[string]func(a, b M) int{"name": func(a, b M) int { return cmp.Compare(a.Name, b.Name) }},
		defaultOrder: func(a, b M) int { return cmp.Compare(a.Name, b.Name) },
	}
}

func (s *Server) catalogModelSpec() listSpec[client.CatalogModel] {
	type M = client.CatalogModel
	return listSpec[M]{
		filters: map[string]func(M, string) bool{
			"make": matchID(func(m M) int64 { return m.Make }),
		},
		search: func(m M) []string {
			texts := []string{m.Name}
			if mk, ok := s.makes.get(m.Make); ok {
				texts = append(texts, mk.Name)
			}
			return texts
		},
		ordering: map[string]func(a, b M) int{"name": func(a, b M) int { return cmp.Compare(a.Name, b.Name) }},
		defaultOrder: func(a, b M) int {
			return cmp.Or(cmp.Compare(a.Make, b.Make), cmp.Compare(a.Name, b.Name))
		},
	}
}

func (s *Server) catalogGenerationSpec() listSpec[client.CatalogGeneration] {
	type G = client.CatalogGeneration
	return listSpec[G]{
		filters: map[string]func(G, string) bool{
			"car_model": matchID(func(g G) int64 { return g.CarModel }),
		},
		search: func(g G) []string {
			texts := []string{deref(g.Name)}
			if m, ok := s.models.get(g.CarModel); ok {
				texts = append(texts, m.Name)
				if mk, ok := s.makes.get(m.Make); ok {
					texts = append(texts, mk.Name)
				}
			}
			return texts
		},
		ordering: map[string]func(a, b G) int{
			"production_start": func(a, b G) int { return cmpOpt(a.ProductionStart, b.ProductionStart) },
		},
		defaultOrder: func(a, b G) int {
			return cmp.Or(cmp.Compare(a.CarModel, b.CarModel), cmpOpt(a.ProductionStart, b.ProductionStart))
		},
	}
}

func (s *Server) catalogVariantSpec() listSpec[client.CatalogVariant] {
	type V = client.CatalogVariant
	return listSpec[V]{
		filters: map[string]func(V, string) bool{
			"generation":   matchID(func(v V) int64 { return v.Generation }),
			"fuel_type":    matchOptString(func(v V) *string { return v.FuelType }),
			"transmission": matchOptString(func(v V) *string { return v.Transmission }),
			"drive":        matchOptString(func(v V) *string { return v.Drive }),
			"body_type":    matchOptString(func(v V) *string { return v.BodyType }),
		},
		search: func(v V) []string {
			return []string{deref(v.Variant), deref(v.Modification), s.variantMakeName(v)}
		},
		ordering: map[string]func(a, b V) int{
			"power_hp": func(a, b V) int { return cmpOpt(a.PowerHP, b.PowerHP) },
		},
		defaultOrder: func(a, b V) int {
			return cmp.Or(cmp.Compare(a.Generation, b.Generation), cmpOpt(a.Variant, b.Variant))
		},
	}
}

func (s *Server) variantMakeName(v client.CatalogVariant) string {
	g, ok := s.generations.get(v.Generation)
	if !ok {
		return ""
	}
	m, ok := s.models.get(g.CarModel)
	if !ok {
		return ""
	}
	mk, _ := s.makes.get(m.Make)
	return mk.Name + " " + m.Name
}

func variantSummary(v client.CatalogVariant) *client.VariantSummary {
	return &client.VariantSummary{
		ID:           v.ID,
		Variant:      v.Variant,
		Modification: v.Modification,
		BodyType:     v.BodyType,
		FuelType:     v.FuelType,
		PowerHP:      v.PowerHP,
		Transmission: v.Transmission,
		Drivetrain:   v.Drive,
	}
}

// ------------------------------
// Field helpers
// ------------------------------

func set[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

func setOpt[V any](dst **V, src *V) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func invalidPK(id int64) string {
	return fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, id)
}

func checkChoice(fe fieldErrors, field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		fe.add(field, fmt.Sprintf(`"%s" is not a valid choice.`, value))
	}
}

func checkDecimal(fe fieldErrors, field string, value *string) {
	if value == nil {
		return
	}
	if _, err := strconv.ParseFloat(*value, 64); err != nil {
		fe.add(field, "A valid number is required.")
	}
}

func checkDate(fe fieldErrors, field string, value *string) {
	if value == nil {
		return
	}
	if _, err := time.Parse(time.DateOnly, *value); err != nil {
		fe.add(field, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
}
