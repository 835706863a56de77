package fakeapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/Paaskehare/SevenShift/client"
)

// Seed sizes. Vehicle statuses cycle, so "available" has 12 rows and the
// other statuses 11 each.
const (
	SeedVehicles  = 57
	SeedOffers    = 30
	SeedContracts = 12
)

// seedEpoch is the creation time of the first seeded row; later rows are one
// hour apart.
var seedEpoch = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

type seedMake struct {
	name    string
	country string
	founded int
	models  []seedModel
}

type seedModel struct {
	name        string
	generations []seedGeneration
}

type seedGeneration struct {
	name       string
	start, end int
	variants   []seedVariant
}

type seedVariant struct {
	name, modification, body, fuel, transmission, drive string
	hp                                                  int
}

var seedCatalog = []seedMake{
	{"Volkswagen", "Germany", 1937, []seedModel{
		{"Golf", []seedGeneration{
			{"Mk8", 2019, 0, []seedVariant{
				{"1.5 eTSI", "Life", "hatchback", "petrol", "automatic", "fwd", 150},
				{"GTE", "GTE", "hatchback", "plug_in_hybrid", "automatic", "fwd", 245},
			}},
		}},
		{"ID.4", []seedGeneration{
			{"E21", 2020, 0, []seedVariant{
				{"Pro", "77 kWh", "suv", "electric", "automatic", "rwd", 286},
				{"GTX", "77 kWh AWD", "suv", "electric", "automatic", "awd", 340},
			}},
		}},
	}},
	{"BMW", "Germany", 1916, []seedModel{
		{"3 Series", []seedGeneration{
			{"G20", 2019, 0, []seedVariant{
				{"320d", "xDrive", "sedan", "diesel", "automatic", "awd", 190},
				{"330e", "Plug-in", "sedan", "plug_in_hybrid", "automatic", "rwd", 292},
			}},
		}},
		{"i4", []seedGeneration{
			{"G26", 2021, 0, []seedVariant{
				{"eDrive40", "Gran Coupe", "coupe", "electric", "automatic", "rwd", 340},
			}},
		}},
	}},
	{"Tesla", "United States", 2003, []seedModel{
		{"Model 3", []seedGeneration{
			{"Highland", 2023, 0, []seedVariant{
				{"RWD", "Standard Range", "sedan", "electric", "automatic", "rwd", 283},
				{"Long Range", "Dual Motor", "sedan", "electric", "automatic", "awd", 498},
			}},
		}},
		{"Model Y", []seedGeneration{
			{"Juniper", 2025, 0, []seedVariant{
				{"Long Range", "Dual Motor", "suv", "electric", "automatic", "awd", 514},
			}},
		}},
	}},
	{"Skoda", "Czech Republic", 1895, []seedModel{
		{"Octavia", []seedGeneration{
			{"IV", 2020, 0, []seedVariant{
				{"2.0 TDI", "Style", "wagon", "diesel", "automatic", "fwd", 150},
				{"1.4 iV", "RS iV", "wagon", "plug_in_hybrid", "automatic", "fwd", 245},
			}},
		}},
		{"Enyaq", []seedGeneration{
			{"5A", 2021, 0, []seedVariant{
				{"85", "Loden", "suv", "electric", "automatic", "rwd", 286},
			}},
		}},
	}},
	{"Toyota", "Japan", 1937, []seedModel{
		{"Corolla", []seedGeneration{
			{"E210", 2018, 0, []seedVariant{
				{"1.8 Hybrid", "Active", "hatchback", "hybrid", "automatic", "fwd", 140},
			}},
		}},
		{"RAV4", []seedGeneration{
			{"XA50", 2018, 2025, []seedVariant{
				{"2.5 Hybrid", "AWD-i", "suv", "hybrid", "automatic", "awd", 222},
				{"2.5 Plug-in", "GR Sport", "suv", "plug_in_hybrid", "automatic", "awd", 306},
			}},
		}},
	}},
	{"Volvo", "Sweden", 1927, []seedModel{
		{"XC40", []seedGeneration{
			{"536", 2017, 0, []seedVariant{
				{"B4", "Core", "suv", "petrol", "automatic", "fwd", 197},
			}},
		}},
		{"EX30", []seedGeneration{
			{"2023", 2023, 0, []seedVariant{
				{"Single Motor", "Extended Range", "suv", "electric", "automatic", "rwd", 272},
				{"Twin Motor", "Performance", "suv", "electric", "automatic", "awd", 428},
			}},
		}},
	}},
}

var seedColors = []string{"Black", "White", "Silver", "Blue", "Grey", "Red"}

// seedData fills every table deterministically.
func (s *Server) seedData() {
	s.seedCatalog()
	s.seedVehicles()
	s.seedOffers()
	s.seedContracts()
}

func (s *Server) seedCatalog() {
	var modelID, genID, variantID int64
	for i, sm := range seedCatalog {
		makeID := int64(i + 1)
		s.makes.put(client.CatalogMake{
			ID:      makeID,
			Name:    sm.name,
			Country: ptr(sm.country),
			Founded: ptr(sm.founded),
		})
		vm := client.VehicleMake{ID: makeID, Name: sm.name, Slug: slug(sm.name)}

		for _, smod := range sm.models {
			modelID++
			s.models.put(client.CatalogModel{ID: modelID, Make: makeID, Name: smod.name})
			vm.Models = append(vm.Models, client.VehicleCarModel{ID: modelID, Name: smod.name, Slug: slug(smod.name)})

			for _, sg := range smod.generations {
				genID++
				g := client.CatalogGeneration{
					ID:              genID,
					CarModel:        modelID,
					Name:            ptr(sg.name),
					ProductionStart: ptr(sg.start),
				}
				if sg.end != 0 {
					g.ProductionEnd = ptr(sg.end)
				}
				s.generations.put(g)

				for _, sv := range sg.variants {
					variantID++
					s.variants.put(client.CatalogVariant{
						ID:           variantID,
						Generation:   genID,
						Variant:      ptr(sv.name),
						Modification: ptr(sv.modification),
						BodyType:     ptr(sv.body),
						FuelType:     ptr(sv.fuel),
						PowerHP:      ptr(sv.hp),
						PowerKW:      ptr(sv.hp * 735 / 1000),
						Transmission: ptr(sv.transmission),
						Drive:        ptr(sv.drive),
						Seats:        ptr(5),
						Doors:        ptr(5),
					})
				}
			}
		}
		s.vehicleMakes.put(vm)
	}
}

func (s *Server) seedVehicles() {
	variants := s.variants.all()
	for i := range SeedVehicles {
		id := int64(i + 1)
		cv := variants[i%len(variants)]
		g, _ := s.generations.get(cv.Generation)
		m, _ := s.models.get(g.CarModel)

		created := seedEpoch.Add(time.Duration(i) * time.Hour)
		v := client.Vehicle{
			ID:                id,
			Variant:           &cv.ID,
			VariantDetail:     variantSummary(cv),
			Make:              ptr(m.Make),
			CarModel:          ptr(m.ID),
			Trim:              deref(cv.Modification),
			Year:              ptr(2019 + i%7),
			FirstRegistration: fmt.Sprintf("%02d/%d", i%12+1, 2019+i%7),
			BodyType:          deref(cv.BodyType),
			Price:             ptr(fmt.Sprintf("%d.00", 18000+i*750)),
			PriceVAT:          i%2 == 0,
			MileageKM:         ptr(5000 + i*2311%90000),
			FuelType:          deref(cv.FuelType),
			PowerHP:           cv.PowerHP,
			Color:             seedColors[i%len(seedColors)],
			Country:           "DK",
			SellerType:        "dealer",
			Equipment:         []string{"navigation", "heated_seats"},
			Images:            []client.VehicleImage{},
			PlateNumber:       ptr(fmt.Sprintf("SS %05d", 10000+i*137)),
			VIN:               ptr(fmt.Sprintf("WSS0000000%07d", id)),
			Status:            client.VehicleStatuses[i%len(client.VehicleStatuses)],
			PurchaseDate:      ptr(created.AddDate(0, -6, 0).Format(time.DateOnly)),
			PurchasePrice:     ptr(fmt.Sprintf("%d.00", 16000+i*700)),
			IsActive:          i%10 != 9,
			CreatedAt:         created,
			UpdatedAt:         created,
		}
		if i%4 == 0 {
			v.ListingID = ptr(fmt.Sprintf("L-%06d", 400000+i))
			v.SourceURL = "https://listings.example/" + *v.ListingID
		}
		if fuel := deref(cv.FuelType); fuel == "electric" {
			v.BatteryCapacityKWh = ptr("77.0")
		}
		v.DisplayName = s.displayName(v)
		s.vehicles.put(v)
	}
}

func (s *Server) seedOffers() {
	for i := range SeedOffers {
		id := int64(i + 1)
		created := seedEpoch.Add(time.Duration(SeedVehicles+i) * time.Hour)
		o := client.LeasingOffer{
			ID:             id,
			MonthlyRate:    fmt.Sprintf("%d.00", 2999+i*100),
			DownPayment:    fmt.Sprintf("%d.00", (i%3)*5000),
			DurationMonths: []int{12, 24, 36, 48}[i%4],
			KMLimitPerYear: []int{10000, 15000, 20000}[i%3],
			ResidualValue:  ptr(fmt.Sprintf("%d.00", 90000+i*1000)),
			ExcessKMRate:   ptr("1.25"),
			Status:         client.OfferStatuses[i%len(client.OfferStatuses)],
			ValidFrom:      ptr(created.Format(time.DateOnly)),
			ValidUntil:     ptr(created.AddDate(0, 3, 0).Format(time.DateOnly)),
			CreatedBy:      ptr(int64(1 + i%2)),
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		// Every third offer quotes a catalog variant instead of a fleet vehicle.
		if i%3 == 2 {
			o.Variant = ptr(int64(i%s.variants.count() + 1))
		} else {
			o.Vehicle = ptr(int64(i + 1))
		}
		s.offers.put(o)
	}
}

func (s *Server) seedContracts() {
	customers := []int64{3, 4}
	for i := range SeedContracts {
		id := int64(i + 1)
		// Contracts are drawn from the vehicle-backed offers.
		offerID := int64(i/2*3 + i%2 + 1)
		o, _ := s.offers.get(offerID)
		start := seedEpoch.AddDate(0, i, 0)
		created := seedEpoch.Add(time.Duration(SeedVehicles+SeedOffers+i) * time.Hour)
		c := client.LeasingContract{
			ID:             id,
			Offer:          offerID,
			Vehicle:        deref(o.Vehicle),
			Customer:       customers[i%len(customers)],
			MonthlyRate:    o.MonthlyRate,
			DownPayment:    o.DownPayment,
			DurationMonths: o.DurationMonths,
			KMLimitPerYear: o.KMLimitPerYear,
			ResidualValue:  o.ResidualValue,
			StartDate:      start.Format(time.DateOnly),
			EndDate:        start.AddDate(0, o.DurationMonths, 0).Format(time.DateOnly),
			Status:         client.ContractStatuses[i%len(client.ContractStatuses)],
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		if c.Status != "pending" {
			signed := start.AddDate(0, 0, -3)
			c.SignedAt = &signed
		}
		s.contracts.put(c)
	}
}

func ptr[V any](v V) *V { return &v }

func slug(name string) string {
	return strings.ToLower(strings.NewReplacer(" ", "-", ".", "").Replace(name))
}
