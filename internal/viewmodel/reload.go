package viewmodel

import (
	"context"
	"sync"
)

// reloader runs a controller's reload in the background each time the change
// feed fires. Triggers and stop are serialized, so no reload starts once stop
// has begun waiting.
type reloader struct {
	mu      sync.Mutex
	stopped bool
	running sync.WaitGroup

	cancel      context.CancelFunc
	unsubscribe func()
}

// newReloader subscribes reload to feed. A nil feed yields a reloader that
// never fires.
func newReloader(feed ChangeFeed, reload func(ctx context.Context)) *reloader {
	ctx, cancel := context.WithCancel(context.Background())
	r := &reloader{cancel: cancel}
	if feed != nil {
		r.unsubscribe = feed.Subscribe(func() { r.trigger(ctx, reload) })
	}
	return r
}

func (r *reloader) trigger(ctx context.Context, reload func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.running.Add(1)
	go func() {
		defer r.running.Done()
		reload(ctx)
	}()
}

// stop unsubscribes, cancels reloads in flight and waits for them to return.
func (r *reloader) stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.cancel()
	r.running.Wait()
}
