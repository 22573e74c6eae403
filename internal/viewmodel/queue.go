package viewmodel

import "sync"

// Queue is the single context on which controller state is mutated and
// success callbacks run. Do blocks until fn has run. fn must not call Do on
// the same queue.
type Queue interface {
	Do(fn func())
}

// InlineQueue runs fn on the calling goroutine. Controller state stays
// consistent through the controllers' own locks; it is the choice for the
// CLI and for tests.
type InlineQueue struct{}

func (InlineQueue) Do(fn func()) { fn() }

// SerialQueue runs every fn on one dedicated goroutine, in submission order,
// the way a UI main thread would.
type SerialQueue struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *SerialQueue) loop() {
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.done:
			return
		}
	}
}

// Do submits fn and waits for it. After Stop, Do returns without running fn.
func (q *SerialQueue) Do(fn func()) {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case q.tasks <- task:
	case <-q.done:
		return
	}

	select {
	case <-finished:
	case <-q.done:
	}
}

func (q *SerialQueue) Stop() {
	q.once.Do(func() { close(q.done) })
}
