package eventloop

import "time"

// Manual is a Scheduler driven by a virtual clock. Work passed to Go runs
// immediately; its continuation is held until Drain or Advance is called.
type Manual struct {
	now     time.Duration
	seq     int
	timers  []*manualTimer
	pending []func()
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	due     time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() {
	t.stopped = true
}

// Go implements Scheduler.
func (m *Manual) Go(work func(), done func()) {
	work()
	m.pending = append(m.pending, done)
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTimer {
	m.seq++
	t := &manualTimer{
		due:    m.now + d,
		period: period,
		seq:    m.seq,
		fn:     fn,
	}
	m.timers = append(m.timers, t)
	return t
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of continuations waiting to run.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// ActiveTimers returns the number of timers that have not been stopped or fired.
func (m *Manual) ActiveTimers() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Drain runs held continuations in order, including any they schedule.
func (m *Manual) Drain() {
	for len(m.pending) > 0 {
		fn := m.pending[0]
		m.pending = m.pending[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in order and
// draining continuations after each one.
func (m *Manual) Advance(d time.Duration) {
	m.advance(d, true)
}

// Step moves the clock forward by d without running held continuations, so
// responses stay in flight across timer firings.
func (m *Manual) Step(d time.Duration) {
	m.advance(d, false)
}

func (m *Manual) advance(d time.Duration, drain bool) {
	target := m.now + d
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.stopped = true
		}
		next.fn()
		if drain {
			m.Drain()
		}
	}
	m.now = target
	if drain {
		m.Drain()
	}
	m.compact()
}

func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.stopped || t.due > limit {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}
