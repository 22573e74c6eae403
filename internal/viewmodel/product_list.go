package viewmodel

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vbonduro/shelflife/internal/domain"
)

type SortOrder string

const (
	SortByName       SortOrder = "name"
	SortByExpiration SortOrder = "expiration"
	SortByQuantity   SortOrder = "quantity"
	SortByCategory   SortOrder = "category"
)

var SortOrders = []SortOrder{SortByName, SortByExpiration, SortByQuantity, SortByCategory}

func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortOrders, o) {
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// ProductListController backs the inventory list: loading, searching,
// sorting and deleting products.
type ProductListController struct {
	*Base

	products  ProductRepository
	reminders ReminderScheduler

	mu    sync.RWMutex
	items []*domain.Product
	query string
	order SortOrder

	reloads *reloader
}

func NewProductListController(products ProductRepository, reminders ReminderScheduler, feed ChangeFeed, opts ...BaseOption) *ProductListController {
	c := &ProductListController{
		Base:      NewBase(opts...),
		products:  products,
		reminders: reminders,
		items:     []*domain.Product{},
		order:     SortByName,
	}
	c.reloads = newReloader(feed, c.Refresh)
	return c
}

// Load fetches every product, dropping any active search.
func (c *ProductListController) Load(ctx context.Context) {
	c.mu.Lock()
	c.query = ""
	c.mu.Unlock()
	c.fetch(ctx, "")
}

// Refresh reruns the current search, or the full listing when there is none.
func (c *ProductListController) Refresh(ctx context.Context) {
	c.mu.RLock()
	q := c.query
	c.mu.RUnlock()
	c.fetch(ctx, q)
}

func (c *ProductListController) Search(ctx context.Context, query string) {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	c.fetch(ctx, query)
}

func (c *ProductListController) fetch(ctx context.Context, query string) {
	op := func(ctx context.Context) ([]*domain.Product, error) {
		if strings.TrimSpace(query) == "" {
			return c.products.List(ctx)
		}
		return c.products.Search(ctx, query)
	}
	ExecuteWithRetry(ctx, c.Base, op, func(items []*domain.Product) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.items = items
		sortProducts(c.items, c.order)
	}, WithLabel("load_products"))
}

// SetSort reorders the cached list in place; nothing is refetched.
func (c *ProductListController) SetSort(order SortOrder) {
	c.apply(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.order = order
		sortProducts(c.items, order)
	})
}

func (c *ProductListController) Sort() SortOrder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order
}

// Delete removes the product and its reminder, then drops it from the list.
func (c *ProductListController) Delete(ctx context.Context, p *domain.Product) {
	ExecuteWithRetry(ctx, c.Base, func(ctx context.Context) (struct{}, error) {
		if err := c.products.Delete(ctx, p.ID); err != nil {
			return struct{}{}, err
		}
		if c.reminders != nil {
			if err := c.reminders.Remove(ctx, p.ID); err != nil {
				c.logger.Warn("failed to remove reminder for deleted product", "product_id", p.ID, "error", err)
			}
		}
		return struct{}{}, nil
	}, func(struct{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.items = slices.DeleteFunc(c.items, func(q *domain.Product) bool { return q.ID == p.ID })
	}, WithLabel("delete_product"))
}

// Products returns a copy of the current list in display order.
func (c *ProductListController) Products() []*domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *ProductListController) Close() {
	c.Base.Close()
	c.reloads.stop()
}

// sortProducts orders by the chosen key, breaking ties by name. Quantity sorts
// largest first.
func sortProducts(items []*domain.Product, order SortOrder) {
	byName := func(a, b *domain.Product) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	slices.SortStableFunc(items, func(a, b *domain.Product) int {
		var c int
		switch order {
		case SortByExpiration:
			c = a.ExpirationDate.Compare(b.ExpirationDate)
		case SortByQuantity:
			c = cmp.Compare(b.Quantity, a.Quantity)
		case SortByCategory:
			c = cmp.Compare(a.Category, b.Category)
		}
		if c != 0 {
			return c
		}
		return byName(a, b)
	})
}
