package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Paaskehare/SevenShift/client"
	"github.com/Paaskehare/SevenShift/listing"
)

// field is one output column of a list command.
type field[T any] struct {
	header string
	value  func(T) string
}

// collection describes how a list command talks to one endpoint.
type collection[T any] struct {
	name     string
	fetcher  func(*client.Client) listing.FetchFunc[T]
	filters  []string
	statuses []string
	fields   []field[T]
}

// flagName maps a query parameter to its flag spelling (car_model -> car-model).
func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

func newListCmd[T any](col collection[T]) *cobra.Command {
	var (
		search   string
		status   string
		ordering string
		page     int
		pageSize int
		asJSON   bool
	)
	fk := make(map[string]*string, len(col.filters))

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + col.name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !slices.Contains(col.statuses, status) {
				return fmt.Errorf("invalid --status %q (want one of %s)", status, strings.Join(col.statuses, ", "))
			}
			if pageSize == 0 {
				pageSize = cfg.PageSize
			}

			filters := map[string]string{
				listing.FilterSearch:   search,
				listing.FilterStatus:   status,
				listing.FilterOrdering: ordering,
			}
			for key, v := range fk {
				filters[key] = *v
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			log.Debug().
				Str("collection", col.name).
				Interface("filters", filters).
				Int("page", page).
				Int("page_size", pageSize).
				Msg("listing collection")

			ctl := listing.New(col.fetcher(c),
				listing.WithName(col.name),
				listing.WithPageSize(pageSize),
				listing.WithFilters(filters),
			)
			defer ctl.Close()

			start := time.Now()
			ctl.Refresh()
			ctl.Wait()
			if page > 1 && ctl.State().Err == nil {
				if got := ctl.SetPage(page); got != page {
					log.Warn().Int("requested", page).Int("page", got).Msg("page out of range; showing last page")
				}
				ctl.Wait()
			}
			st := ctl.State()
			elapsed := time.Since(start)

			if st.Err != nil {
				log.Error().
					Err(st.Err).
					Str("collection", col.name).
					Dur("elapsed", elapsed).
					Msg("list failed")
				return errors.New(client.Message(st.Err))
			}
			log.Debug().Int("count", st.TotalCount).Dur("elapsed", elapsed).Msg("list completed")

			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"count":       st.TotalCount,
					"page":        st.Page,
					"total_pages": st.TotalPages(),
					"results":     st.Items,
				})
			}
			return writeTable(cmd.OutOrStdout(), col.fields, st)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Free-text search")
	if len(col.statuses) > 0 {
		cmd.Flags().StringVar(&status, "status", "", "Status filter ("+strings.Join(col.statuses, ", ")+")")
	}
	cmd.Flags().StringVar(&ordering, "ordering", "", "Sort field, prefix with - for descending")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (clamped to the last page)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Results per page (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	for _, key := range col.filters {
		fk[key] = cmd.Flags().String(flagName(key), "", "Filter by "+strings.ReplaceAll(key, "_", " "))
	}

	return cmd
}

func writeTable[T any](w io.Writer, fields []field[T], st listing.State[T]) error {
	if len(st.Items) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, item := range st.Items {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.value(item)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d/%d  %d results\n", st.Page, st.TotalPages(), st.TotalCount)
	return err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newGetCmd[T any](name string, get func(*client.Client, context.Context, int64) (*T, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one " + name + " record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			rec, err := get(c, ctx, id)
			if err != nil {
				log.Error().Err(err).Str("collection", name).Int64("id", id).Msg("get failed")
				return errors.New(client.Message(err))
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num[N int | int64](p *N) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(int64(*p), 10)
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func newVehiclesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "vehicles", Short: "Fleet vehicles"}

	cmd.AddCommand(newListCmd(collection[client.Vehicle]{
		name:     "vehicles",
		fetcher:  func(c *client.Client) listing.FetchFunc[client.Vehicle] { return c.Vehicles().Fetcher() },
		filters:  []string{"make", "car_model", "variant", "fuel_type", "year", "is_active"},
		statuses: client.VehicleStatuses,
		fields: []field[client.Vehicle]{
			{"ID", func(v client.Vehicle) string { return id(v.ID) }},
			{"NAME", func(v client.Vehicle) string { return v.DisplayName }},
			{"PLATE", func(v client.Vehicle) string { return str(v.PlateNumber) }},
			{"STATUS", func(v client.Vehicle) string { return v.Status }},
			{"FUEL", func(v client.Vehicle) string { return v.FuelType }},
			{"PRICE", func(v client.Vehicle) string { return str(v.Price) }},
		},
	}))
	cmd.AddCommand(newGetCmd("vehicle", func(c *client.Client, ctx context.Context, id int64) (*client.Vehicle, error) {
		return c.Vehicles().Get(ctx, id)
	}))

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vid, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			if err := c.Vehicles().Delete(ctx, vid); err != nil {
				log.Error().Err(err).Int64("id", vid).Msg("delete vehicle failed")
				return errors.New(client.Message(err))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted vehicle %d\n", vid)
			return err
		},
	}
	cmd.AddCommand(del)

	return cmd
}

func newOffersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "offers", Short: "Leasing offers"}

	cmd.AddCommand(newListCmd(collection[client.LeasingOffer]{
		name:     "offers",
		fetcher:  func(c *client.Client) listing.FetchFunc[client.LeasingOffer] { return c.Offers().Fetcher() },
		filters:  []string{"vehicle", "variant"},
		statuses: client.OfferStatuses,
		fields: []field[client.LeasingOffer]{
			{"ID", func(o client.LeasingOffer) string { return id(o.ID) }},
			{"VEHICLE", func(o client.LeasingOffer) string { return num(o.Vehicle) }},
			{"VARIANT", func(o client.LeasingOffer) string { return num(o.Variant) }},
			{"MONTHLY", func(o client.LeasingOffer) string { return o.MonthlyRate }},
			{"MONTHS", func(o client.LeasingOffer) string { return strconv.Itoa(o.DurationMonths) }},
			{"STATUS", func(o client.LeasingOffer) string { return o.Status }},
		},
	}))
	cmd.AddCommand(newGetCmd("offer", func(c *client.Client, ctx context.Context, id int64) (*client.LeasingOffer, error) {
		return c.Offers().Get(ctx, id)
	}))

	return cmd
}

func newContractsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "contracts", Short: "Leasing contracts"}

	cmd.AddCommand(newListCmd(collection[client.LeasingContract]{
		name:     "contracts",
		fetcher:  func(c *client.Client) listing.FetchFunc[client.LeasingContract] { return c.Contracts().Fetcher() },
		filters:  []string{"offer", "vehicle", "customer"},
		statuses: client.ContractStatuses,
		fields: []field[client.LeasingContract]{
			{"ID", func(k client.LeasingContract) string { return id(k.ID) }},
			{"OFFER", func(k client.LeasingContract) string { return id(k.Offer) }},
			{"VEHICLE", func(k client.LeasingContract) string { return id(k.Vehicle) }},
			{"CUSTOMER", func(k client.LeasingContract) string { return id(k.Customer) }},
			{"START", func(k client.LeasingContract) string { return k.StartDate }},
			{"END", func(k client.LeasingContract) string { return k.EndDate }},
			{"STATUS", func(k client.LeasingContract) string { return k.Status }},
		},
	}))
	cmd.AddCommand(newGetCmd("contract", func(c *client.Client, ctx context.Context, id int64) (*client.LeasingContract, error) {
		return c.Contracts().Get(ctx, id)
	}))

	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Read-only technical catalog"}

	makes := newListCmd(collection[client.CatalogMake]{
		name:    "catalog makes",
		fetcher: func(c *client.Client) listing.FetchFunc[client.CatalogMake] { return c.Catalog().Makes().Fetcher() },
		filters: []string{"country"},
		fields: []field[client.CatalogMake]{
			{"ID", func(m client.CatalogMake) string { return id(m.ID) }},
			{"NAME", func(m client.CatalogMake) string { return m.Name }},
			{"COUNTRY", func(m client.CatalogMake) string { return str(m.Country) }},
			{"FOUNDED", func(m client.CatalogMake) string { return num(m.Founded) }},
		},
	})
	makes.Use = "makes"

	models := newListCmd(collection[client.CatalogModel]{
		name:    "catalog models",
		fetcher: func(c *client.Client) listing.FetchFunc[client.CatalogModel] { return c.Catalog().Models().Fetcher() },
		filters: []string{"make"},
		fields: []field[client.CatalogModel]{
			{"ID", func(m client.CatalogModel) string { return id(m.ID) }},
			{"MAKE", func(m client.CatalogModel) string { return id(m.Make) }},
			{"NAME", func(m client.CatalogModel) string { return m.Name }},
		},
	})
	models.Use = "models"

	generations := newListCmd(collection[client.CatalogGeneration]{
		name:    "catalog generations",
		fetcher: func(c *client.Client) listing.FetchFunc[client.CatalogGeneration] { return c.Catalog().Generations().Fetcher() },
		filters: []string{"car_model"},
		fields: []field[client.CatalogGeneration]{
			{"ID", func(g client.CatalogGeneration) string { return id(g.ID) }},
			{"MODEL", func(g client.CatalogGeneration) string { return id(g.CarModel) }},
			{"NAME", func(g client.CatalogGeneration) string { return str(g.Name) }},
			{"FROM", func(g client.CatalogGeneration) string { return num(g.ProductionStart) }},
			{"TO", func(g client.CatalogGeneration) string { return num(g.ProductionEnd) }},
		},
	})
	generations.Use = "generations"

	variants := newListCmd(collection[client.CatalogVariant]{
		name:    "catalog variants",
		fetcher: func(c *client.Client) listing.FetchFunc[client.CatalogVariant] { return c.Catalog().Variants().Fetcher() },
		filters: []string{"generation", "fuel_type", "transmission", "drive", "body_type"},
		fields: []field[client.CatalogVariant]{
			{"ID", func(v client.CatalogVariant) string { return id(v.ID) }},
			{"GENERATION", func(v client.CatalogVariant) string { return id(v.Generation) }},
			{"VARIANT", func(v client.CatalogVariant) string { return str(v.Variant) }},
			{"FUEL", func(v client.CatalogVariant) string { return str(v.FuelType) }},
			{"HP", func(v client.CatalogVariant) string { return num(v.PowerHP) }},
		},
	})
	variants.Use = "variants"

	cmd.AddCommand(makes, models, generations, variants)
	return cmd
}
