package viewmodel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/shelflife/internal/domain"
)

// ProductRepository is the product backing store as seen by the controllers.
// service.ProductService satisfies it.
type ProductRepository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Add(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	ListExpired(ctx context.Context) ([]*domain.Product, error)
	ListExpiringWithin(ctx context.Context, days int) ([]*domain.Product, error)
}

// ReminderScheduler manages local expiration reminders. reminder.Scheduler
// satisfies it.
type ReminderScheduler interface {
	Schedule(ctx context.Context, p *domain.Product) error
	Remove(ctx context.Context, productID uuid.UUID) error
}

// ChangeFeed delivers the "inventory changed" signal. changefeed.Feed
// satisfies it.
type ChangeFeed interface {
	Subscribe(fn func()) (cancel func())
}

// Recorder observes the retry executor. metrics.PrometheusRecorder
// satisfies it.
type Recorder interface {
	Attempt(operation string)
	Retry(operation string, delay time.Duration)
	Outcome(operation, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) Attempt(string)              {}
func (noopRecorder) Retry(string, time.Duration) {}
func (noopRecorder) Outcome(string, string)      {}
