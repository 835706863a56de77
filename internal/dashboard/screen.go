package dashboard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Paaskehare/SevenShift/client"
	"github.com/Paaskehare/SevenShift/listing"
)

// screenID names every list screen of the dashboard.
type screenID int

const (
	screenVehicles screenID = iota
	screenOffers
	screenContracts
	screenMakes
	screenModels
	screenGenerations
	screenVariants
)

// tabs are the screens reachable with tab/shift+tab. The catalog tiers
// below makes are reached by drilling down.
var tabs = []screenID{screenVehicles, screenOffers, screenContracts, screenMakes}

// tabOf maps a drill-down tier to the tab it belongs to.
func tabOf(id screenID) screenID {
	if id > screenMakes {
		return screenMakes
	}
	return id
}

// drill describes where enter leads from a catalog tier: the next screen
// and the filter key that receives the selected row's id.
type drill struct {
	to     screenID
	filter string
}

// screen is the type-erased view of a listScreen.
type screen interface {
	title() string
	controller() controllerView
	move(delta int)
	selected() (record any, id int64, ok bool)
	drill() *drill
	cycleStatus()
	view(theme Theme, width, height int) string
}

// controllerView is the part of listing.Controller the model drives
// without knowing the record type.
type controllerView interface {
	SetFilter(key, value string)
	NextPage() bool
	PrevPage() bool
	Refresh()
	Wait()
	Close()
}

type column[T any] struct {
	title string
	width int
	value func(T) string
	// status marks the column rendered in the status color.
	status bool
}

// listScreen binds one listing.Controller to a table.
type listScreen[T any] struct {
	name     string
	ctl      *listing.Controller[T]
	columns  []column[T]
	id       func(T) int64
	statuses []string
	next     *drill
	cursor   int
	lastPage int
}

func (s *listScreen[T]) title() string              { return s.name }
func (s *listScreen[T]) controller() controllerView { return s.ctl }
func (s *listScreen[T]) drill() *drill              { return s.next }

// sync moves the cursor back to the top when the page changed and keeps it
// inside the current items.
func (s *listScreen[T]) sync(st listing.State[T]) {
	if st.Page != s.lastPage {
		s.cursor, s.lastPage = 0, st.Page
	}
	s.cursor = max(0, min(s.cursor, len(st.Items)-1))
}

func (s *listScreen[T]) move(delta int) {
	st := s.ctl.State()
	s.sync(st)
	s.cursor = max(0, min(s.cursor+delta, len(st.Items)-1))
}

func (s *listScreen[T]) selected() (any, int64, bool) {
	st := s.ctl.State()
	s.sync(st)
	items := st.Items
	if s.cursor >= len(items) {
		return nil, 0, false
	}
	row := items[s.cursor]
	return row, s.id(row), true
}

// cycleStatus advances the status filter through the allowed values and
// back to "all".
func (s *listScreen[T]) cycleStatus() {
	if len(s.statuses) == 0 {
		return
	}
	current := s.ctl.State().Filter("status")
	next := ""
	if i := slices.Index(s.statuses, current); i < len(s.statuses)-1 {
		next = s.statuses[i+1]
	}
	s.ctl.SetFilter("status", next)
}

func (s *listScreen[T]) view(theme Theme, width, height int) string {
	st := s.ctl.State()
	s.sync(st)

	var b strings.Builder
	b.WriteString(s.filterLine(theme, st))
	b.WriteString("\n")

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	cells := make([]string, len(s.columns))
	for i, col := range s.columns {
		cells[i] = cell(header, col.width, col.title)
	}
	b.WriteString(strings.Join(cells, " "))
	b.WriteString("\n")

	rows := max(1, height-4)
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	for i, row := range st.Items {
		if i >= rows {
			break
		}
		for j, col := range s.columns {
			style := normal
			if col.status {
				style = style.Foreground(theme.StatusColor(col.value(row)))
			}
			if i == s.cursor {
				style = style.Background(theme.SelectedBackground).Bold(true)
			}
			cells[j] = cell(style, col.width, col.value(row))
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	if len(st.Items) == 0 && !st.Loading {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render("No results."))
		b.WriteString("\n")
	}

	b.WriteString(s.pageLine(theme, st))
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func (s *listScreen[T]) filterLine(theme Theme, st listing.State[T]) string {
	keys := make([]string, 0, len(st.Filters))
	for k := range st.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+st.Filters[k])
	}
	text := "filters: none"
	if len(parts) > 0 {
		text = "filters: " + strings.Join(parts, "  ")
	}
	return lipgloss.NewStyle().Foreground(theme.FaintText).Render(text)
}

func (s *listScreen[T]) pageLine(theme Theme, st listing.State[T]) string {
	line := fmt.Sprintf("Page %d/%d  %d results", st.Page, max(1, st.TotalPages()), st.TotalCount)
	if st.Loading {
		line += "  loading..."
	}
	out := lipgloss.NewStyle().Foreground(theme.FaintText).Render(line)
	if st.Err != nil {
		out += "  " + lipgloss.NewStyle().Foreground(theme.ErrorText).Render(client.Message(st.Err))
	}
	return out
}

// cell renders text padded or cut to exactly width columns.
func cell(style lipgloss.Style, width int, text string) string {
	if r := []rune(text); len(r) > width {
		text = string(r[:width-1]) + "…"
	}
	return style.Width(width).Render(text)
}

func str(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func num[N int | int64](p *N) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func id(v int64) string { return fmt.Sprint(v) }

// newScreens builds one controller per screen. onChange is shared by all
// controllers.
func newScreens(c *client.Client, pageSize int, onChange func()) map[screenID]screen {
	opts := func(name string) []listing.Option {
		return []listing.Option{listing.WithName(name), listing.WithPageSize(pageSize), listing.WithOnChange(onChange)}
	}
	catalog := c.Catalog()

	return map[screenID]screen{
		screenVehicles: &listScreen[client.Vehicle]{
			name:     "Vehicles",
			ctl:      listing.New(c.Vehicles().Fetcher(), opts("vehicles")...),
			id:       func(v client.Vehicle) int64 { return v.ID },
			statuses: client.VehicleStatuses,
			columns: []column[client.Vehicle]{
				{title: "ID", width: 5, value: func(v client.Vehicle) string { return id(v.ID) }},
				{title: "Vehicle", width: 30, value: func(v client.Vehicle) string { return v.DisplayName }},
				{title: "Year", width: 5, value: func(v client.Vehicle) string { return num(v.Year) }},
				{title: "Plate", width: 10, value: func(v client.Vehicle) string { return str(v.PlateNumber) }},
				{title: "Km", width: 8, value: func(v client.Vehicle) string { return num(v.MileageKM) }},
				{title: "Price", width: 11, value: func(v client.Vehicle) string { return str(v.Price) }},
				{title: "Status", width: 11, value: func(v client.Vehicle) string { return v.Status }, status: true},
			},
		},
		screenOffers: &listScreen[client.LeasingOffer]{
			name:     "Offers",
			ctl:      listing.New(c.Offers().Fetcher(), opts("offers")...),
			id:       func(o client.LeasingOffer) int64 { return o.ID },
			statuses: client.OfferStatuses,
			columns: []column[client.LeasingOffer]{
				{title: "ID", width: 5, value: func(o client.LeasingOffer) string { return id(o.ID) }},
				{title: "Vehicle", width: 8, value: func(o client.LeasingOffer) string { return num(o.Vehicle) }},
				{title: "Variant", width: 8, value: func(o client.LeasingOffer) string { return num(o.Variant) }},
				{title: "Monthly", width: 10, value: func(o client.LeasingOffer) string { return o.MonthlyRate }},
				{title: "Months", width: 7, value: func(o client.LeasingOffer) string { return fmt.Sprint(o.DurationMonths) }},
				{title: "Km/yr", width: 7, value: func(o client.LeasingOffer) string { return fmt.Sprint(o.KMLimitPerYear) }},
				{title: "Status", width: 9, value: func(o client.LeasingOffer) string { return o.Status }, status: true},
			},
		},
		screenContracts: &listScreen[client.LeasingContract]{
			name:     "Contracts",
			ctl:      listing.New(c.Contracts().Fetcher(), opts("contracts")...),
			id:       func(k client.LeasingContract) int64 { return k.ID },
			statuses: client.ContractStatuses,
			columns: []column[client.LeasingContract]{
				{title: "ID", width: 5, value: func(k client.LeasingContract) string { return id(k.ID) }},
				{title: "Offer", width: 6, value: func(k client.LeasingContract) string { return id(k.Offer) }},
				{title: "Vehicle", width: 8, value: func(k client.LeasingContract) string { return id(k.Vehicle) }},
				{title: "Customer", width: 9, value: func(k client.LeasingContract) string { return id(k.Customer) }},
				{title: "Start", width: 10, value: func(k client.LeasingContract) string { return k.StartDate }},
				{title: "End", width: 10, value: func(k client.LeasingContract) string { return k.EndDate }},
				{title: "Monthly", width: 10, value: func(k client.LeasingContract) string { return k.MonthlyRate }},
				{title: "Status", width: 10, value: func(k client.LeasingContract) string { return k.Status }, status: true},
			},
		},
		screenMakes: &listScreen[client.CatalogMake]{
			name: "Catalog",
			ctl:  listing.New(catalog.Makes().Fetcher(), opts("catalog_makes")...),
			id:   func(m client.CatalogMake) int64 { return m.ID },
			next: &drill{to: screenModels, filter: "make"},
			columns: []column[client.CatalogMake]{
				{title: "ID", width: 5, value: func(m client.CatalogMake) string { return id(m.ID) }},
				{title: "Make", width: 20, value: func(m client.CatalogMake) string { return m.Name }},
				{title: "Country", width: 16, value: func(m client.CatalogMake) string { return str(m.Country) }},
				{title: "Founded", width: 8, value: func(m client.CatalogMake) string { return num(m.Founded) }},
			},
		},
		screenModels: &listScreen[client.CatalogModel]{
			name: "Models",
			ctl:  listing.New(catalog.Models().Fetcher(), opts("catalog_models")...),
			id:   func(m client.CatalogModel) int64 { return m.ID },
			next: &drill{to: screenGenerations, filter: "car_model"},
			columns: []column[client.CatalogModel]{
				{title: "ID", width: 5, value: func(m client.CatalogModel) string { return id(m.ID) }},
				{title: "Model", width: 24, value: func(m client.CatalogModel) string { return m.Name }},
			},
		},
		screenGenerations: &listScreen[client.CatalogGeneration]{
			name: "Generations",
			ctl:  listing.New(catalog.Generations().Fetcher(), opts("catalog_generations")...),
			id:   func(g client.CatalogGeneration) int64 { return g.ID },
			next: &drill{to: screenVariants, filter: "generation"},
			columns: []column[client.CatalogGeneration]{
				{title: "ID", width: 5, value: func(g client.CatalogGeneration) string { return id(g.ID) }},
				{title: "Generation", width: 20, value: func(g client.CatalogGeneration) string { return str(g.Name) }},
				{title: "From", width: 6, value: func(g client.CatalogGeneration) string { return num(g.ProductionStart) }},
				{title: "To", width: 6, value: func(g client.CatalogGeneration) string { return num(g.ProductionEnd) }},
			},
		},
		screenVariants: &listScreen[client.CatalogVariant]{
			name: "Variants",
			ctl:  listing.New(catalog.Variants().Fetcher(), opts("catalog_variants")...),
			id:   func(v client.CatalogVariant) int64 { return v.ID },
			columns: []column[client.CatalogVariant]{
				{title: "ID", width: 5, value: func(v client.CatalogVariant) string { return id(v.ID) }},
				{title: "Variant", width: 16, value: func(v client.CatalogVariant) string { return str(v.Variant) }},
				{title: "Modification", width: 18, value: func(v client.CatalogVariant) string { return str(v.Modification) }},
				{title: "Fuel", width: 15, value: func(v client.CatalogVariant) string { return str(v.FuelType) }},
				{title: "HP", width: 5, value: func(v client.CatalogVariant) string { return num(v.PowerHP) }},
				{title: "Gearbox", width: 10, value: func(v client.CatalogVariant) string { return str(v.Transmission) }},
				{title: "Drive", width: 5, value: func(v client.CatalogVariant) string { return str(v.Drive) }},
			},
		},
	}
}
