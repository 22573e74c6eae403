package reminder

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Worker periodically delivers reminders that have come due.
type Worker struct {
	reminders reminderRepository
	notifier  Notifier
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewWorker(reminders reminderRepository, notifier Notifier, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		reminders: reminders,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Start runs the delivery loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting reminder worker", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		}
	}
}

// RunOnce delivers every due reminder and returns how many were delivered.
// A reminder whose delivery fails stays pending for the next run.
func (w *Worker) RunOnce(ctx context.Context) int {
	now := w.now()
	due, err := w.reminders.ListDue(ctx, now)
	if err != nil {
		w.logger.Error("failed to list due reminders", "error", err)
		return 0
	}

	delivered := 0
	for _, r := range due {
		select {
		case <-ctx.Done():
			return delivered
		default:
		}

		if err := w.notifier.Notify(ctx, r.Title, r.Body); err != nil {
			w.logger.Error("failed to deliver reminder", "product_id", r.ProductID, "error", err)
			continue
		}
		if err := w.reminders.MarkDelivered(ctx, r.ProductID, now); err != nil {
			w.logger.Error("failed to mark reminder delivered", "product_id", r.ProductID, "error", err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		w.logger.Info("reminders delivered", "count", delivered)
	}
	return delivered
}
