package viewmodel

import (
	"context"
	"sync"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/validation"
)

// AddProductController backs the add-product form.
type AddProductController struct {
	*Base

	products  ProductRepository
	reminders ReminderScheduler

	mu         sync.RWMutex
	form       validation.Form
	violations []*apperr.Error
	saved      *domain.Product
}

func NewAddProductController(products ProductRepository, reminders ReminderScheduler, opts ...BaseOption) *AddProductController {
	return &AddProductController{
		Base:      NewBase(opts...),
		products:  products,
		reminders: reminders,
		form: validation.Form{
			Category: domain.CategoryOther,
			Location: domain.LocationFridge,
		},
	}
}

func (c *AddProductController) Form() validation.Form {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.form
}

func (c *AddProductController) SetForm(f validation.Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// Validate checks the form and returns every violation. The first one is
// also set as the controller error.
func (c *AddProductController) Validate() []*apperr.Error {
	c.mu.Lock()
	c.violations = validation.ValidateForm(c.form, c.now())
	violations := c.violations
	c.mu.Unlock()

	if len(violations) > 0 {
		c.SetError(violations[0])
	}
	return violations
}

// Violations returns the result of the last Validate.
func (c *AddProductController) Violations() []*apperr.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.violations
}

// Save validates the form, stores the product and schedules its reminder.
// Validation failures are reported at once and never retried. A reminder
// that cannot be scheduled does not undo the save.
func (c *AddProductController) Save(ctx context.Context) {
	c.mu.Lock()
	c.saved = nil
	c.mu.Unlock()

	if len(c.Validate()) > 0 {
		return
	}
	p, err := c.Form().Product(c.now())
	if err != nil {
		c.SetError(err)
		return
	}

	ExecuteWithRetry(ctx, c.Base, func(ctx context.Context) (*domain.Product, error) {
		return c.products.Add(ctx, p)
	}, func(created *domain.Product) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.saved = created
	}, WithLabel("add_product"))

	if created := c.Saved(); created != nil && c.reminders != nil {
		if err := c.reminders.Schedule(ctx, created); err != nil {
			c.logger.Warn("failed to schedule reminder", "product_id", created.ID, "error", err)
		}
	}
}

// Saved returns the stored product once Save succeeded, or nil.
func (c *AddProductController) Saved() *domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saved
}
