package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelflife/internal/reminder"
	"github.com/vbonduro/shelflife/internal/viewmodel"
)

func newRemindCmd(run runner) *cobra.Command {
	var once bool
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Schedule reminders for upcoming expirations and deliver them",
		Long: `Schedules a reminder for every product expiring within the upcoming
window, then delivers due reminders to the terminal. Without --once it keeps
polling until interrupted.`,
		Args: cobra.NoArgs,
		RunE: run(func(a *app, cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := syncReminders(ctx, a); err != nil {
				return err
			}

			worker := reminder.NewWorker(a.reminders, reminder.NewTerminalNotifier(cmd.OutOrStdout()), a.cfg.PollInterval, a.logger)
			if once {
				n := worker.RunOnce(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s) delivered\n", n)
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.MetricsAddr
			}
			if metricsAddr != "" {
				srv := serveMetrics(a, metricsAddr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						a.logger.Error("failed to stop metrics server", "error", err)
					}
				}()
			}

			worker.Start(ctx)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&once, "once", false, "deliver due reminders once and exit")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides METRICS_ADDR)")
	return cmd
}

// syncReminders schedules a reminder for every product in the upcoming
// window.
func syncReminders(ctx context.Context, a *app) error {
	list := viewmodel.NewProductListController(a.products, a.scheduler, nil, a.controllerOptions()...)
	defer list.Close()
	list.Load(ctx)
	if err := controllerError(list.Err()); err != nil {
		return err
	}

	alerts := viewmodel.NewAlertsController(a.products, a.scheduler, nil, a.alertsConfig(), a.controllerOptions()...)
	defer alerts.Close()
	if err := alerts.ScheduleNotificationsForUpcomingProducts(ctx, list.Products()); err != nil {
		// Disabled notifications are not fatal; the worker still delivers
		// what is already stored.
		a.logger.Warn("failed to schedule upcoming reminders", "error", err)
	}
	return nil
}

func serveMetrics(a *app, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	return srv
}
