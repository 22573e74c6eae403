package viewmodel

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/validation"
)

// EditProductController backs the edit screen of an existing product.
type EditProductController struct {
	*Base

	products  ProductRepository
	reminders ReminderScheduler

	mu         sync.RWMutex
	original   *domain.Product
	form       validation.Form
	violations []*apperr.Error
	saved      *domain.Product
}

func NewEditProductController(products ProductRepository, reminders ReminderScheduler, opts ...BaseOption) *EditProductController {
	return &EditProductController{
		Base:      NewBase(opts...),
		products:  products,
		reminders: reminders,
	}
}

// Load fetches the product and prefills the form with it.
func (c *EditProductController) Load(ctx context.Context, id uuid.UUID) {
	ExecuteWithRetry(ctx, c.Base, func(ctx context.Context) (*domain.Product, error) {
		return c.products.Get(ctx, id)
	}, func(p *domain.Product) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.original = p
		c.form = validation.FormFromProduct(p)
		c.saved = nil
	}, WithLabel("load_product"))
}

// Original returns the product as it was loaded, or nil before Load.
func (c *EditProductController) Original() *domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.original
}

func (c *EditProductController) Form() validation.Form {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.form
}

func (c *EditProductController) SetForm(f validation.Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

func (c *EditProductController) Violations() []*apperr.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.violations
}

// Save validates the form and updates the loaded product, keeping its
// identifier and arrival date. The reminder is rescheduled for the new
// expiration date.
func (c *EditProductController) Save(ctx context.Context) {
	c.mu.Lock()
	original := c.original
	form := c.form
	c.violations = validation.ValidateForm(form, c.now())
	violations := c.violations
	c.saved = nil
	c.mu.Unlock()

	if original == nil {
		c.SetError(apperr.New(apperr.NotFound))
		return
	}
	if len(violations) > 0 {
		c.SetError(violations[0])
		return
	}
	p, err := form.Product(c.now())
	if err != nil {
		c.SetError(err)
		return
	}
	p.ID = original.ID
	p.ArrivalDate = original.ArrivalDate

	ExecuteWithRetry(ctx, c.Base, func(ctx context.Context) (*domain.Product, error) {
		return c.products.Update(ctx, p)
	}, func(updated *domain.Product) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.saved = updated
		c.original = updated
	}, WithLabel("update_product"))

	if updated := c.Saved(); updated != nil && c.reminders != nil {
		if err := c.reminders.Schedule(ctx, updated); err != nil {
			c.logger.Warn("failed to reschedule reminder", "product_id", updated.ID, "error", err)
		}
	}
}

// Saved returns the updated product once Save succeeded, or nil.
func (c *EditProductController) Saved() *domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saved
}
