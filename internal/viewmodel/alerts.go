package viewmodel

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/shelflife/internal/domain"
)

// DefaultUpcomingDays is how far ahead reminders are scheduled for.
const DefaultUpcomingDays = 7

type AlertType string

const (
	AlertExpired     AlertType = "expired"
	AlertSoonExpired AlertType = "soonExpired"
	AlertUnknown     AlertType = "unknown"
)

// AlertsConfig tunes the alert windows in days. Zero means today only;
// negative fields take their defaults.
type AlertsConfig struct {
	SoonExpiringDays int
	UpcomingDays     int
}

func DefaultAlertsConfig() AlertsConfig {
	return AlertsConfig{
		SoonExpiringDays: domain.SoonExpiringDays,
		UpcomingDays:     DefaultUpcomingDays,
	}
}

func (c AlertsConfig) withDefaults() AlertsConfig {
	def := DefaultAlertsConfig()
	if c.SoonExpiringDays < 0 {
		c.SoonExpiringDays = def.SoonExpiringDays
	}
	if c.UpcomingDays < 0 {
		c.UpcomingDays = def.UpcomingDays
	}
	return c
}

// AlertsController backs the alerts screen: it loads expired and soon
// expiring products and lets the user dismiss or delete them.
type AlertsController struct {
	*Base

	products  ProductRepository
	reminders ReminderScheduler
	cfg       AlertsConfig

	listMu      sync.RWMutex
	expired     []*domain.Product
	soonExpired []*domain.Product

	reloads *reloader
}

// NewAlertsController wires the controller. When feed is non-nil the alerts
// are reloaded in the background every time the inventory changes.
func NewAlertsController(products ProductRepository, reminders ReminderScheduler, feed ChangeFeed, cfg AlertsConfig, opts ...BaseOption) *AlertsController {
	c := &AlertsController{
		Base:        NewBase(opts...),
		products:    products,
		reminders:   reminders,
		cfg:         cfg.withDefaults(),
		expired:     []*domain.Product{},
		soonExpired: []*domain.Product{},
	}
	c.reloads = newReloader(feed, c.LoadAlerts)
	return c
}

// LoadAlerts fetches the expired and soon expiring products concurrently and
// replaces both lists once both queries succeed.
func (c *AlertsController) LoadAlerts(ctx context.Context) {
	ExecuteWithRetry(ctx, c.Base, c.fetchAlerts, func(r *domain.ExpirationAlertsResult) {
		c.listMu.Lock()
		defer c.listMu.Unlock()
		c.expired = r.Expired
		c.soonExpired = r.SoonExpired
	}, WithLabel("load_alerts"))
}

func (c *AlertsController) fetchAlerts(ctx context.Context) (*domain.ExpirationAlertsResult, error) {
	var expired, soon []*domain.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expired, err = c.products.ListExpired(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		soon, err = c.products.ListExpiringWithin(gctx, c.cfg.SoonExpiringDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domain.NewExpirationAlertsResult(expired, soon), nil
}

// DismissAlert removes the product from both lists right away, then drops its
// reminder. A failed removal is reported through Err but the product stays
// hidden.
func (c *AlertsController) DismissAlert(ctx context.Context, p *domain.Product) {
	c.apply(func() { c.removeLocal(p.ID) })

	if err := c.reminders.Remove(ctx, p.ID); err != nil {
		c.logger.Warn("failed to remove reminder for dismissed alert", "product_id", p.ID, "error", err)
		c.SetError(err)
	}
}

// DeleteProduct deletes the product from the store and drops its reminder.
// The lists are only updated once the delete succeeded.
func (c *AlertsController) DeleteProduct(ctx context.Context, p *domain.Product) {
	ExecuteWithRetry(ctx, c.Base, func(ctx context.Context) (struct{}, error) {
		if err := c.products.Delete(ctx, p.ID); err != nil {
			return struct{}{}, err
		}
		if err := c.reminders.Remove(ctx, p.ID); err != nil {
			c.logger.Warn("failed to remove reminder for deleted product", "product_id", p.ID, "error", err)
		}
		return struct{}{}, nil
	}, func(struct{}) {
		c.removeLocal(p.ID)
	}, WithLabel("delete_product"))
}

// ScheduleNotificationsForUpcomingProducts schedules a reminder for every
// product expiring within the upcoming window, all at once. It waits for
// every request and returns the first failure; reminders already scheduled
// are kept.
func (c *AlertsController) ScheduleNotificationsForUpcomingProducts(ctx context.Context, products []*domain.Product) error {
	now := c.now()
	var g errgroup.Group
	for _, p := range products {
		days := p.DaysUntilExpiration(now)
		if days < 0 || days > c.cfg.UpcomingDays {
			continue
		}
		p := p
		g.Go(func() error {
			return c.reminders.Schedule(ctx, p)
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("failed to schedule upcoming reminders", "error", err)
		return err
	}
	return nil
}

func (c *AlertsController) removeLocal(id uuid.UUID) {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	match := func(p *domain.Product) bool { return p.ID == id }
	c.expired = slices.DeleteFunc(c.expired, match)
	c.soonExpired = slices.DeleteFunc(c.soonExpired, match)
}

// ExpiredProducts returns a copy of the expired list.
func (c *AlertsController) ExpiredProducts() []*domain.Product {
	c.listMu.RLock()
	defer c.listMu.RUnlock()
	return slices.Clone(c.expired)
}

// SoonExpiredProducts returns a copy of the soon expiring list.
func (c *AlertsController) SoonExpiredProducts() []*domain.Product {
	c.listMu.RLock()
	defer c.listMu.RUnlock()
	return slices.Clone(c.soonExpired)
}

func (c *AlertsController) TotalAlertsCount() int {
	c.listMu.RLock()
	defer c.listMu.RUnlock()
	return len(c.expired) + len(c.soonExpired)
}

func (c *AlertsController) HasAlerts() bool {
	return c.TotalAlertsCount() > 0
}

func (c *AlertsController) AlertTypeForProduct(p *domain.Product) AlertType {
	c.listMu.RLock()
	defer c.listMu.RUnlock()
	match := func(q *domain.Product) bool { return q.ID == p.ID }
	switch {
	case slices.ContainsFunc(c.expired, match):
		return AlertExpired
	case slices.ContainsFunc(c.soonExpired, match):
		return AlertSoonExpired
	default:
		return AlertUnknown
	}
}

// Close unsubscribes from the change feed, cancels background reloads and
// waits for them to return.
func (c *AlertsController) Close() {
	c.Base.Close()
	c.reloads.stop()
}
