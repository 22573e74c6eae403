// Package changefeed carries the out-of-band "inventory changed" signal from
// the persistence layer to the screen controllers that cache product lists.
package changefeed

import "sync"

// Feed fans a change signal out to every subscriber. The zero value is ready
// to use.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func New() *Feed {
	return &Feed{}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (f *Feed) Subscribe(fn func()) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func())
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Publish invokes every subscriber synchronously. Subscribers are snapshotted
// first so a callback may subscribe or cancel without deadlocking.
func (f *Feed) Publish() {
	f.mu.Lock()
	subs := make([]func(), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
