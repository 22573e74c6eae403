// Package validation holds the synchronous input checks shared by the add and
// edit product flows.
package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
)

func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.New(apperr.EmptyName)
	}
	return nil
}

func Quantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return apperr.New(apperr.InvalidQuantity)
	}
	return nil
}

// ParseQuantity parses free-text quantity input. Both "1.5" and "1,5" are
// accepted.
func ParseQuantity(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.New(apperr.InvalidQuantity)
	}
	if err := Quantity(q); err != nil {
		return 0, err
	}
	return q, nil
}

// FutureDate fails unless t is strictly after now.
func FutureDate(t, now time.Time) error {
	if !t.After(now) {
		return apperr.New(apperr.PastExpiration)
	}
	return nil
}

func LotNumber(lot string) error {
	if strings.TrimSpace(lot) == "" {
		return apperr.New(apperr.EmptyLotNumber)
	}
	return nil
}

func Category(c domain.Category) error {
	if !c.Valid() {
		return apperr.New(apperr.InvalidCategory)
	}
	return nil
}

func Location(l domain.StorageLocation) error {
	if !l.Valid() {
		return apperr.New(apperr.InvalidLocation)
	}
	return nil
}

// Form is the raw input of the add and edit screens. Quantity is kept as
// text so a parse failure is reported like any other violation.
type Form struct {
	Name           string
	Quantity       string
	Unit           string
	Category       domain.Category
	Location       domain.StorageLocation
	ExpirationDate time.Time
	LotNumber      string
}

// ValidateForm runs every check and returns all violations, in no
// particular order. An empty result means the form is valid.
func ValidateForm(f Form, now time.Time) []*apperr.Error {
	var errs []*apperr.Error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, apperr.Classify(err))
		}
	}

	collect(Name(f.Name))
	_, qerr := ParseQuantity(f.Quantity)
	collect(qerr)
	collect(FutureDate(f.ExpirationDate, now))
	collect(LotNumber(f.LotNumber))
	collect(Category(f.Category))
	collect(Location(f.Location))

	return errs
}

// Product converts a validated form into a product. It re-runs the checks
// and fails with the first violation.
func (f Form) Product(now time.Time) (*domain.Product, error) {
	if errs := ValidateForm(f, now); len(errs) > 0 {
		return nil, errs[0]
	}
	q, _ := ParseQuantity(f.Quantity)
	return &domain.Product{
		Name:           strings.TrimSpace(f.Name),
		Quantity:       q,
		Unit:           strings.TrimSpace(f.Unit),
		Category:       f.Category,
		Location:       f.Location,
		ExpirationDate: f.ExpirationDate,
		LotNumber:      strings.TrimSpace(f.LotNumber),
	}, nil
}

// FormFromProduct prefills a form for editing.
func FormFromProduct(p *domain.Product) Form {
	return Form{
		Name:           p.Name,
		Quantity:       strconv.FormatFloat(p.Quantity, 'f', -1, 64),
		Unit:           p.Unit,
		Category:       p.Category,
		Location:       p.Location,
		ExpirationDate: p.ExpirationDate,
		LotNumber:      p.LotNumber,
	}
}
