package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Reminder struct {
	ProductID uuid.UUID
	Title     string
	Body      string
	FireAt    time.Time
}

type reminderRow struct {
	ProductID string `db:"product_id"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	FireAt    int64  `db:"fire_at"`
}

type ReminderStore struct {
	db *sqlx.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: sqlx.NewDb(db, "sqlite")}
}

// Upsert schedules a reminder, replacing any existing one for the same
// product. A delivered reminder stays delivered unless its fire time moves.
func (s *ReminderStore) Upsert(ctx context.Context, r *Reminder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (product_id, title, body, fire_at, delivered_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (product_id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			fire_at = excluded.fire_at,
			delivered_at = CASE
				WHEN reminders.fire_at = excluded.fire_at THEN reminders.delivered_at
				ELSE NULL
			END
	`, r.ProductID.String(), r.Title, r.Body, r.FireAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert reminder: %w", err)
	}
	return nil
}

// Delete removes the reminder for productID. Removing a reminder that does
// not exist is not an error.
func (s *ReminderStore) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE product_id = ?`, productID.String()); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// ListDue returns undelivered reminders whose fire time is at or before now.
func (s *ReminderStore) ListDue(ctx context.Context, now time.Time) ([]*Reminder, error) {
	var rows []reminderRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT product_id, title, body, fire_at FROM reminders
		WHERE delivered_at IS NULL AND fire_at <= ?
		ORDER BY fire_at ASC
	`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}

	reminders := make([]*Reminder, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder product id %q: %w", row.ProductID, err)
		}
		reminders = append(reminders, &Reminder{
			ProductID: id,
			Title:     row.Title,
			Body:      row.Body,
			FireAt:    time.UnixMilli(row.FireAt),
		})
	}
	return reminders, nil
}

// Get returns the reminder for productID, or nil when none is scheduled.
func (s *ReminderStore) Get(ctx context.Context, productID uuid.UUID) (*Reminder, error) {
	var row reminderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT product_id, title, body, fire_at FROM reminders WHERE product_id = ?
	`, productID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &Reminder{
		ProductID: productID,
		Title:     row.Title,
		Body:      row.Body,
		FireAt:    time.UnixMilli(row.FireAt),
	}, nil
}

func (s *ReminderStore) MarkDelivered(ctx context.Context, productID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET delivered_at = ? WHERE product_id = ?
	`, at.UnixMilli(), productID.String())
	if err != nil {
		return fmt.Errorf("failed to mark reminder delivered: %w", err)
	}
	return nil
}
