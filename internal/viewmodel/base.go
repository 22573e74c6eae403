// Package viewmodel holds the screen controllers: the retry executor shared
// by every screen, the expiration alerts logic, and the product list, add and
// edit controllers built on them.
package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/shelflife/internal/apperr"
)

const (
	// MaxRetryAttempts is the number of retries after the initial attempt.
	MaxRetryAttempts = 3
	// DefaultBaseDelay is the backoff before the first retry; it doubles
	// for each following one.
	DefaultBaseDelay = 500 * time.Millisecond
)

// Base carries the state shared by every screen controller: the loading flag,
// the terminal error and the attempt count of the last failure.
type Base struct {
	mu       sync.RWMutex
	err      *apperr.Error
	loading  bool
	attempts int
	closed   bool

	queue     Queue
	logger    *slog.Logger
	recorder  Recorder
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

type BaseOption func(*Base)

func WithQueue(q Queue) BaseOption {
	return func(b *Base) { b.queue = q }
}

func WithLogger(l *slog.Logger) BaseOption {
	return func(b *Base) { b.logger = l }
}

func WithRecorder(r Recorder) BaseOption {
	return func(b *Base) { b.recorder = r }
}

func WithBaseDelay(d time.Duration) BaseOption {
	return func(b *Base) { b.baseDelay = d }
}

// WithSleeper replaces the backoff wait. The function must return a non-nil
// error when ctx ends before d elapses.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) BaseOption {
	return func(b *Base) { b.sleep = sleep }
}

// WithClock sets the time source used for date checks.
func WithClock(now func() time.Time) BaseOption {
	return func(b *Base) { b.now = now }
}

func NewBase(opts ...BaseOption) *Base {
	b := &Base{
		queue:     InlineQueue{},
		logger:    slog.Default(),
		recorder:  noopRecorder{},
		baseDelay: DefaultBaseDelay,
		sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Err returns the current terminal error, or nil.
func (b *Base) Err() *apperr.Error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

func (b *Base) IsLoading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Attempts is the number of attempts made by the last call that ended in a
// terminal error. It is reset to zero by a successful call.
func (b *Base) Attempts() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attempts
}

func (b *Base) ClearError() {
	b.apply(func() {
		b.mu.Lock()
		b.err = nil
		b.mu.Unlock()
	})
}

// Close marks the controller as torn down. Operations still in flight finish
// but no longer touch its state or run their callbacks.
func (b *Base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Base) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// apply runs fn on the controller queue unless the controller was closed.
func (b *Base) apply(fn func()) {
	b.queue.Do(func() {
		if b.isClosed() {
			return
		}
		fn()
	})
}

func (b *Base) setLoading(v bool) {
	b.apply(func() {
		b.mu.Lock()
		b.loading = v
		b.mu.Unlock()
	})
}

// SetError replaces the current error. Non-taxonomy errors are coerced to
// Unknown.
func (b *Base) SetError(err error) {
	ae := apperr.Classify(err)
	b.apply(func() {
		b.mu.Lock()
		b.err = ae
		b.mu.Unlock()
	})
}

func (b *Base) backoff(attempt int) time.Duration {
	return b.baseDelay * time.Duration(1<<attempt)
}

type retryConfig struct {
	shouldRetry func(error) bool
	label       string
}

type RetryOption func(*retryConfig)

// WithShouldRetry overrides apperr.IsRetriable for one call.
func WithShouldRetry(pred func(error) bool) RetryOption {
	return func(c *retryConfig) { c.shouldRetry = pred }
}

// WithLabel names the operation in logs and metrics.
func WithLabel(label string) RetryOption {
	return func(c *retryConfig) { c.label = label }
}

// ExecuteWithRetry runs operation up to MaxRetryAttempts+1 times, sleeping
// baseDelay*2^n between attempts while the failure is retriable. On success
// onSuccess runs on the controller queue and the error is cleared; otherwise
// the classified error becomes the controller's terminal error. Exactly one
// of the two happens; a panicking onSuccess counts as a failure. The loading
// flag is raised for the whole call.
func ExecuteWithRetry[T any](ctx context.Context, b *Base, operation func(context.Context) (T, error), onSuccess func(T), opts ...RetryOption) {
	cfg := retryConfig{shouldRetry: apperr.IsRetriable, label: "operation"}
	for _, opt := range opts {
		opt(&cfg)
	}

	b.setLoading(true)
	defer b.setLoading(false)

	var lastErr error
	attempt := 0
	for ; attempt <= MaxRetryAttempts; attempt++ {
		b.recorder.Attempt(cfg.label)
		v, err := runAttempt(ctx, operation)
		if err == nil {
			failed := make(chan *apperr.Error, 1)
			b.apply(func() {
				if cerr := runCallback(onSuccess, v); cerr != nil {
					failed <- cerr
					b.mu.Lock()
					b.err = cerr
					b.attempts = attempt + 1
					b.mu.Unlock()
					return
				}
				b.mu.Lock()
				b.err = nil
				b.attempts = 0
				b.mu.Unlock()
			})
			select {
			case cerr := <-failed:
				b.logger.Error("success callback failed", "operation", cfg.label, "error", cerr)
				b.recorder.Outcome(cfg.label, "failure")
			default:
				b.recorder.Outcome(cfg.label, "success")
			}
			return
		}

		lastErr = err
		if attempt == MaxRetryAttempts || !cfg.shouldRetry(err) {
			break
		}

		delay := b.backoff(attempt)
		b.logger.Warn("operation failed, retrying",
			"operation", cfg.label, "attempt", attempt+1, "delay", delay, "error", err)
		b.recorder.Retry(cfg.label, delay)
		if serr := b.sleep(ctx, delay); serr != nil {
			b.logger.Warn("retry abandoned", "operation", cfg.label, "error", serr)
			break
		}
	}

	terminal := apperr.Classify(lastErr)
	attempts := attempt + 1
	b.apply(func() {
		b.mu.Lock()
		b.err = terminal
		b.attempts = attempts
		b.mu.Unlock()
	})
	b.logger.Error("operation failed",
		"operation", cfg.label, "attempts", attempts, "code", terminal.Code, "error", lastErr)
	b.recorder.Outcome(cfg.label, "failure")
}

// runAttempt calls operation, turning a panic into an Unknown error so the
// executor never propagates past its boundary.
func runAttempt[T any](ctx context.Context, operation func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Unknown(fmt.Sprint(r))
		}
	}()
	return operation(ctx)
}

// runCallback calls onSuccess, turning a panic into an Unknown error.
func runCallback[T any](onSuccess func(T), v T) (err *apperr.Error) {
	if onSuccess == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Unknown(fmt.Sprint(r))
		}
	}()
	onSuccess(v)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
