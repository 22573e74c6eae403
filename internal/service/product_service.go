package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/store"
	"github.com/vbonduro/shelflife/internal/validation"
)

// productRepository is the subset of store.ProductStore that ProductService requires.
type productRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	ListExpired(ctx context.Context, now time.Time) ([]*domain.Product, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// publisher is the subset of changefeed.Feed that ProductService requires.
type publisher interface {
	Publish()
}

// ProductService holds the product use cases. Every error it returns is an
// *apperr.Error from the Data or Validation branch.
type ProductService struct {
	products productRepository
	changes  publisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewProductService(products productRepository, changes publisher, logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		changes:  changes,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for arrival stamps and expiry
// queries.
func (s *ProductService) WithClock(now func() time.Time) *ProductService {
	s.now = now
	return s
}

func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, dataError(apperr.FetchFailed, err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, dataError(apperr.FetchFailed, err)
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound)
	}
	return p, nil
}

func (s *ProductService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx)
	}
	products, err := s.products.Search(ctx, query)
	if err != nil {
		return nil, dataError(apperr.FetchFailed, err)
	}
	return products, nil
}

func (s *ProductService) ListExpired(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListExpired(ctx, s.now())
	if err != nil {
		return nil, dataError(apperr.FetchFailed, err)
	}
	return products, nil
}

// ListExpiringWithin returns products that are not yet expired and expire
// within the given number of days.
func (s *ProductService) ListExpiringWithin(ctx context.Context, days int) ([]*domain.Product, error) {
	now := s.now()
	products, err := s.products.ListExpiringBetween(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, dataError(apperr.FetchFailed, err)
	}
	return products, nil
}

// Add stores a new product. It assigns the identifier and, when unset, stamps
// the arrival time.
func (s *ProductService) Add(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created := *p
	created.ID = uuid.New()
	if created.ArrivalDate.IsZero() {
		created.ArrivalDate = s.now()
	}
	if err := checkProduct(&created); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, &created); err != nil {
		return nil, dataError(apperr.SaveFailed, err)
	}
	s.logger.Info("product added", "product_id", created.ID, "name", created.Name, "expires_at", created.ExpirationDate)
	s.changes.Publish()
	return &created, nil
}

// Update overwrites the editable fields of an existing product. The
// identifier and arrival time are kept from the stored record.
func (s *ProductService) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	updated := *p
	updated.ID = existing.ID
	updated.ArrivalDate = existing.ArrivalDate
	if err := checkProduct(&updated); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, &updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err)
		}
		return nil, dataError(apperr.SaveFailed, err)
	}
	s.logger.Info("product updated", "product_id", updated.ID)
	s.changes.Publish()
	return &updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Wrap(apperr.NotFound, err)
		}
		return dataError(apperr.DeleteFailed, err)
	}
	s.logger.Info("product deleted", "product_id", id)
	s.changes.Publish()
	return nil
}

func checkProduct(p *domain.Product) error {
	for _, err := range []error{
		validation.Name(p.Name),
		validation.Quantity(p.Quantity),
		validation.LotNumber(p.LotNumber),
		validation.Category(p.Category),
		validation.Location(p.Location),
	} {
		if err != nil {
			return err
		}
	}
	if !p.ExpirationDate.After(p.ArrivalDate) {
		return apperr.New(apperr.PastExpiration)
	}
	return nil
}

// dataError maps a store failure onto the Data branch. Constraint violations
// are reported as StoreError since retrying cannot fix them.
func dataError(code apperr.Code, err error) *apperr.Error {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return apperr.Wrap(code, err)
	}
	// Extended result codes carry the primary code in the low byte.
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return &apperr.Error{Code: apperr.StoreFailure, Message: "constraint violation", Err: err}
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return apperr.Wrap(apperr.StoreFatal, fmt.Errorf("database unusable: %w", err))
	default:
		return apperr.Wrap(code, err)
	}
}
