package viewmodel

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
)

var fixedNow = time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sleepRecorder replaces the backoff wait and remembers every delay.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.delays)
}

func testOpts(sleeper *sleepRecorder) []BaseOption {
	return []BaseOption{
		WithLogger(discardLogger()),
		WithSleeper(sleeper.sleep),
		WithClock(func() time.Time { return fixedNow }),
	}
}

func product(name string, expiresIn time.Duration) *domain.Product {
	return &domain.Product{
		ID:             uuid.New(),
		Name:           name,
		Quantity:       1,
		Unit:           "pcs",
		Category:       domain.CategoryDairy,
		Location:       domain.LocationFridge,
		ArrivalDate:    fixedNow.Add(-48 * time.Hour),
		ExpirationDate: fixedNow.Add(expiresIn),
		LotNumber:      "L1",
	}
}

// fakeRepo is an in-memory ProductRepository. failures pops one error per
// call of the named method before the call is allowed to succeed. When set,
// beforeAlertQuery runs at the start of both alert queries without holding
// the lock.
type fakeRepo struct {
	mu       sync.Mutex
	products []*domain.Product
	expired  []*domain.Product
	soon     []*domain.Product
	soonDays []int
	failures map[string][]error
	calls    map[string]int

	beforeAlertQuery func()
}

func newFakeRepo(products ...*domain.Product) *fakeRepo {
	return &fakeRepo{
		products: products,
		failures: map[string][]error{},
		calls:    map[string]int{},
	}
}

func (r *fakeRepo) failNext(method string, errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method] = append(r.failures[method], errs...)
}

func (r *fakeRepo) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *fakeRepo) enter(method string) error {
	r.calls[method]++
	if errs := r.failures[method]; len(errs) > 0 {
		r.failures[method] = errs[1:]
		return errs[0]
	}
	return nil
}

func (r *fakeRepo) List(context.Context) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("List"); err != nil {
		return nil, err
	}
	return slices.Clone(r.products), nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Get"); err != nil {
		return nil, err
	}
	for _, p := range r.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound)
}

func (r *fakeRepo) Add(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Add"); err != nil {
		return nil, err
	}
	created := *p
	created.ID = uuid.New()
	created.ArrivalDate = fixedNow
	r.products = append(r.products, &created)
	return &created, nil
}

func (r *fakeRepo) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Update"); err != nil {
		return nil, err
	}
	for i, q := range r.products {
		if q.ID == p.ID {
			updated := *p
			r.products[i] = &updated
			return &updated, nil
		}
	}
	return nil, apperr.New(apperr.NotFound)
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Delete"); err != nil {
		return err
	}
	r.products = slices.DeleteFunc(r.products, func(p *domain.Product) bool { return p.ID == id })
	return nil
}

func (r *fakeRepo) Search(_ context.Context, query string) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Search"); err != nil {
		return nil, err
	}
	var out []*domain.Product
	for _, p := range r.products {
		if p.Name == query {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListExpired(context.Context) ([]*domain.Product, error) {
	if r.beforeAlertQuery != nil {
		r.beforeAlertQuery()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListExpired"); err != nil {
		return nil, err
	}
	return slices.Clone(r.expired), nil
}

func (r *fakeRepo) ListExpiringWithin(_ context.Context, days int) ([]*domain.Product, error) {
	if r.beforeAlertQuery != nil {
		r.beforeAlertQuery()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.soonDays = append(r.soonDays, days)
	if err := r.enter("ListExpiringWithin"); err != nil {
		return nil, err
	}
	return slices.Clone(r.soon), nil
}

// rendezvous returns a function that blocks until n callers have reached it.
// A caller still waiting after a second reports that the calls did not
// overlap.
func rendezvous(t *testing.T, n int) func() {
	var arrived sync.WaitGroup
	arrived.Add(n)
	return func() {
		arrived.Done()
		all := make(chan struct{})
		go func() {
			arrived.Wait()
			close(all)
		}()
		select {
		case <-all:
		case <-time.After(time.Second):
			t.Errorf("expected %d overlapping calls", n)
		}
	}
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockScheduler) Remove(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type manualFeed struct {
	mu   sync.Mutex
	subs []func()
}

func (f *manualFeed) Subscribe(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *manualFeed) fire() {
	f.mu.Lock()
	subs := slices.Clone(f.subs)
	f.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
