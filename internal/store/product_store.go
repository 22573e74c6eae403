package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/shelflife/internal/domain"
)

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("not found")

const productColumns = `id, name, quantity, unit, category, location, arrival_at, expires_at, lot_number`

// productRow is the on-disk shape of a product. Timestamps are stored as Unix
// milliseconds so range queries compare integers.
type productRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Quantity  float64 `db:"quantity"`
	Unit      string  `db:"unit"`
	Category  string  `db:"category"`
	Location  string  `db:"location"`
	ArrivalAt int64   `db:"arrival_at"`
	ExpiresAt int64   `db:"expires_at"`
	LotNumber string  `db:"lot_number"`
}

func (r *productRow) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", r.ID, err)
	}
	return &domain.Product{
		ID:             id,
		Name:           r.Name,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		Category:       domain.Category(r.Category),
		Location:       domain.StorageLocation(r.Location),
		ArrivalDate:    time.UnixMilli(r.ArrivalAt),
		ExpirationDate: time.UnixMilli(r.ExpiresAt),
		LotNumber:      r.LotNumber,
	}, nil
}

type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: sqlx.NewDb(db, "sqlite")}
}

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID.String(), p.Name, p.Quantity, p.Unit, string(p.Category), string(p.Location),
		p.ArrivalDate.UnixMilli(), p.ExpirationDate.UnixMilli(), p.LotNumber)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return row.toDomain()
}

func (s *ProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	return s.selectProducts(ctx, "list products", `
		SELECT `+productColumns+` FROM products ORDER BY name COLLATE NOCASE ASC
	`)
}

// Search matches name, lot number and category case-insensitively.
func (s *ProductStore) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	return s.selectProducts(ctx, "search products", `
		SELECT `+productColumns+` FROM products
		WHERE LOWER(name) LIKE ? OR LOWER(lot_number) LIKE ? OR LOWER(category) LIKE ?
		ORDER BY name COLLATE NOCASE ASC
	`, pattern, pattern, pattern)
}

// ListExpired returns products whose expiration is strictly before now.
func (s *ProductStore) ListExpired(ctx context.Context, now time.Time) ([]*domain.Product, error) {
	return s.selectProducts(ctx, "list expired products", `
		SELECT `+productColumns+` FROM products
		WHERE expires_at < ?
		ORDER BY expires_at ASC
	`, now.UnixMilli())
}

// ListExpiringBetween returns products expiring in [from, to].
func (s *ProductStore) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Product, error) {
	return s.selectProducts(ctx, "list expiring products", `
		SELECT `+productColumns+` FROM products
		WHERE expires_at >= ? AND expires_at <= ?
		ORDER BY expires_at ASC
	`, from.UnixMilli(), to.UnixMilli())
}

func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, quantity = ?, unit = ?, category = ?, location = ?, expires_at = ?, lot_number = ?
		WHERE id = ?
	`, p.Name, p.Quantity, p.Unit, string(p.Category), string(p.Location),
		p.ExpirationDate.UnixMilli(), p.LotNumber, p.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}

	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return nil
}

func (s *ProductStore) selectProducts(ctx context.Context, op, query string, args ...any) ([]*domain.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	products := make([]*domain.Product, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", op, err)
		}
		products = append(products, p)
	}
	return products, nil
}
