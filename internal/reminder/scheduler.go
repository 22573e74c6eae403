// Package reminder schedules and delivers local expiration reminders.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/store"
)

// reminderRepository is the subset of store.ReminderStore the scheduler and
// worker require.
type reminderRepository interface {
	Upsert(ctx context.Context, r *store.Reminder) error
	Delete(ctx context.Context, productID uuid.UUID) error
	ListDue(ctx context.Context, now time.Time) ([]*store.Reminder, error)
	MarkDelivered(ctx context.Context, productID uuid.UUID, at time.Time) error
}

// Scheduler persists one pending reminder per product. Every error it
// returns belongs to the Notification branch of apperr.
type Scheduler struct {
	reminders reminderRepository
	enabled   bool
	leadTime  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewScheduler(reminders reminderRepository, enabled bool, leadTime time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		enabled:   enabled,
		leadTime:  leadTime,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Schedule sets a reminder to fire leadTime before the product expires. When
// that moment has already passed the reminder is due at once. Scheduling the
// same product again with an unchanged expiration does not re-deliver it.
func (s *Scheduler) Schedule(ctx context.Context, p *domain.Product) error {
	if !s.enabled {
		return apperr.New(apperr.PermissionDeny)
	}
	if strings.TrimSpace(p.Name) == "" || p.ID == uuid.Nil {
		return apperr.New(apperr.InvalidContent)
	}

	fireAt := p.ExpirationDate.Add(-s.leadTime)

	r := &store.Reminder{
		ProductID: p.ID,
		Title:     fmt.Sprintf("%s expires soon", p.Name),
		Body:      reminderBody(p),
		FireAt:    fireAt,
	}
	if err := s.reminders.Upsert(ctx, r); err != nil {
		return apperr.Wrap(apperr.SchedulingFail, err)
	}
	s.logger.Debug("reminder scheduled", "product_id", p.ID, "fire_at", fireAt, "due", !fireAt.After(s.now()))
	return nil
}

// Remove drops any reminder for productID.
func (s *Scheduler) Remove(ctx context.Context, productID uuid.UUID) error {
	if err := s.reminders.Delete(ctx, productID); err != nil {
		return apperr.Wrap(apperr.SchedulingFail, err)
	}
	s.logger.Debug("reminder removed", "product_id", productID)
	return nil
}

func reminderBody(p *domain.Product) string {
	body := fmt.Sprintf("%s in the %s expires on %s.", p.Name, p.Location, p.ExpirationDate.Format("Mon Jan 2"))
	if p.LotNumber != "" {
		body += fmt.Sprintf(" Lot %s.", p.LotNumber)
	}
	return body
}
