// Package eventloop runs callbacks on a single goroutine so that UI handlers,
// timer callbacks and network continuations never execute in parallel.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	Stop()
}

// Scheduler is the execution model the form logic is written against.
type Scheduler interface {
	// Go runs work off the loop, then runs done on the loop.
	Go(work func(), done func())
	// After runs fn on the loop once d has elapsed.
	After(d time.Duration, fn func()) Timer
	// Every runs fn on the loop each time d elapses until stopped.
	Every(d time.Duration, fn func()) Timer
}

// Loop is a Scheduler backed by a goroutine draining a queue of callbacks.
type Loop struct {
	post     func(fn func())
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a Loop whose callbacks run inside Run.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	l := &Loop{
		queue:   make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
	l.post = l.enqueue
	return l
}

// NewPosting creates a Loop that hands callbacks to an external event loop,
// such as a terminal UI program, instead of running its own.
func NewPosting(post func(fn func())) *Loop {
	return &Loop{
		post:    post,
		stopped: make(chan struct{}),
	}
}

// Run executes queued callbacks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops accepting callbacks and halts all timers.
func (l *Loop) Close() {
	l.stopOnce.Do(func() {
		close(l.stopped)
	})
}

// Post schedules fn on the loop.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stopped:
		return
	default:
	}
	l.post(fn)
}

func (l *Loop) enqueue(fn func()) {
	select {
	case <-l.stopped:
	case l.queue <- fn:
	}
}

// Go implements Scheduler.
func (l *Loop) Go(work func(), done func()) {
	go func() {
		work()
		l.Post(done)
	}()
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &timer{}
	t.stdTimer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.Load() {
				fn()
			}
		})
	})
	return t
}

// Every implements Scheduler.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &timer{halt: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-t.halt:
				return
			case <-l.stopped:
				return
			case <-ticker.C:
				l.Post(func() {
					// A tick posted before Stop must not fire after it.
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()

	return t
}

type timer struct {
	stopped  atomic.Bool
	stdTimer *time.Timer
	halt     chan struct{}
}

func (t *timer) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.stdTimer != nil {
		t.stdTimer.Stop()
	}
	if t.halt != nil {
		close(t.halt)
	}
}
