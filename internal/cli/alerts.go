package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/viewmodel"
)

func newAlertsCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Show expired and soon expiring products",
		Args:  cobra.NoArgs,
		RunE: run(func(a *app, cmd *cobra.Command, _ []string) error {
			c := viewmodel.NewAlertsController(a.products, a.scheduler, nil, a.alertsConfig(), a.controllerOptions()...)
			defer c.Close()

			c.LoadAlerts(cmd.Context())
			if err := controllerError(c.Err()); err != nil {
				return err
			}
			printAlerts(cmd.OutOrStdout(), c, timeNow())
			return nil
		}),
	}
}

func printAlerts(w io.Writer, c *viewmodel.AlertsController, now time.Time) {
	if !c.HasAlerts() {
		fmt.Fprintln(w, okStyle.Render("Nothing is about to expire."))
		return
	}
	section := func(title string, style func(...string) string, products []*domain.Product) {
		if len(products) == 0 {
			return
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(products))))
		for _, p := range products {
			fmt.Fprintf(w, "  %s  %s\n", style(p.Name+", "+describeExpiry(p, now)), mutedStyle.Render(p.ID.String()))
		}
	}
	section("Expired", expiredStyle.Render, c.ExpiredProducts())
	section("Expiring soon", soonStyle.Render, c.SoonExpiredProducts())
	fmt.Fprintf(w, "%d alert(s)\n", c.TotalAlertsCount())
}

func newDismissCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss ID",
		Short: "Dismiss an expiration alert and drop its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(a *app, cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}

			c := viewmodel.NewAlertsController(a.products, a.scheduler, nil, a.alertsConfig(), a.controllerOptions()...)
			defer c.Close()

			c.LoadAlerts(cmd.Context())
			if err := controllerError(c.Err()); err != nil {
				return err
			}
			p := &domain.Product{ID: id}
			if c.AlertTypeForProduct(p) == viewmodel.AlertUnknown {
				return fmt.Errorf("no alert for product %s", id)
			}

			c.DismissAlert(cmd.Context(), p)
			if err := controllerError(c.Err()); err != nil {
				return fmt.Errorf("alert dismissed but its reminder is still scheduled: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert for %s dismissed, %d remaining\n", id, c.TotalAlertsCount())
			return nil
		}),
	}
}
