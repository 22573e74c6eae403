package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/validation"
	"github.com/vbonduro/shelflife/internal/viewmodel"
)

// formFlags binds the product form to command flags.
type formFlags struct {
	name, quantity, unit, category, location, expires, lot string
}

func (f *formFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "product name")
	fl.StringVar(&f.quantity, "quantity", "1", "quantity, e.g. 1.5")
	fl.StringVar(&f.unit, "unit", "", "unit, e.g. kg or pcs")
	fl.StringVar(&f.category, "category", string(domain.CategoryOther), "category: "+joinValues(domain.Categories))
	fl.StringVar(&f.location, "location", string(domain.LocationFridge), "storage location: "+joinValues(domain.Locations))
	fl.StringVar(&f.expires, "expires", "", "expiration date (YYYY-MM-DD)")
	fl.StringVar(&f.lot, "lot", "", "lot number")
}

// apply copies every flag the user set onto form. With all set, every flag
// is copied regardless.
func (f *formFlags) apply(cmd *cobra.Command, form *validation.Form, all bool) error {
	changed := func(name string) bool { return all || cmd.Flags().Changed(name) }
	if changed("name") {
		form.Name = f.name
	}
	if changed("quantity") {
		form.Quantity = f.quantity
	}
	if changed("unit") {
		form.Unit = f.unit
	}
	if changed("category") {
		form.Category = domain.Category(strings.ToLower(f.category))
	}
	if changed("location") {
		form.Location = domain.StorageLocation(strings.ToLower(f.location))
	}
	if changed("expires") && f.expires != "" {
		d, err := parseDate(f.expires)
		if err != nil {
			return err
		}
		form.ExpirationDate = d
	}
	if changed("lot") {
		form.LotNumber = f.lot
	}
	return nil
}

func joinValues[T ~string](values []T) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}

func newAddCmd(run runner) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the inventory",
		Args:  cobra.NoArgs,
		RunE: run(func(a *app, cmd *cobra.Command, _ []string) error {
			c := viewmodel.NewAddProductController(a.products, a.scheduler, a.controllerOptions()...)
			defer c.Close()

			form := c.Form()
			if err := flags.apply(cmd, &form, true); err != nil {
				return err
			}
			c.SetForm(form)
			c.Save(cmd.Context())

			if violations := c.Violations(); len(violations) > 0 {
				for _, v := range violations {
					cmd.PrintErrln(expiredStyle.Render("✗ " + v.Description()))
				}
				return fmt.Errorf("product not saved: %d invalid field(s)", len(violations))
			}
			if err := controllerError(c.Err()); err != nil {
				return err
			}
			p := c.Saved()
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Added %s (%s)", p.Name, p.ID)))
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newListCmd(run runner) *cobra.Command {
	var sortBy, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the inventory",
		Args:  cobra.NoArgs,
		RunE: run(func(a *app, cmd *cobra.Command, _ []string) error {
			order, err := viewmodel.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}

			c := viewmodel.NewProductListController(a.products, a.scheduler, nil, a.controllerOptions()...)
			defer c.Close()

			c.SetSort(order)
			if search != "" {
				c.Search(cmd.Context(), search)
			} else {
				c.Load(cmd.Context())
			}
			if err := controllerError(c.Err()); err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), c.Products(), timeNow(), a.cfg.SoonExpiringDays)
			return nil
		}),
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(viewmodel.SortByName), "sort order: "+joinValues(viewmodel.SortOrders))
	cmd.Flags().StringVar(&search, "search", "", "filter by name, lot number or category")
	return cmd
}

func newEditCmd(run runner) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a product; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(a *app, cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}

			c := viewmodel.NewEditProductController(a.products, a.scheduler, a.controllerOptions()...)
			defer c.Close()

			c.Load(cmd.Context(), id)
			if err := controllerError(c.Err()); err != nil {
				return err
			}

			form := c.Form()
			if err := flags.apply(cmd, &form, false); err != nil {
				return err
			}
			c.SetForm(form)
			c.Save(cmd.Context())

			if err := controllerError(c.Err()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Updated %s (%s)", c.Saved().Name, id)))
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product and its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(a *app, cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}

			c := viewmodel.NewProductListController(a.products, a.scheduler, nil, a.controllerOptions()...)
			defer c.Close()

			c.Delete(cmd.Context(), &domain.Product{ID: id})
			if err := controllerError(c.Err()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s deleted\n", id)
			return nil
		}),
	}
}
