package eventloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_AdvanceFiresInOrder(t *testing.T) {
	m := NewManual()

	var order []string
	m.After(3*time.Second, func() { order = append(order, "c") })
	m.After(1*time.Second, func() { order = append(order, "a") })
	m.After(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 3*time.Second, m.Now())
	assert.Equal(t, 0, m.ActiveTimers())
}

func TestManual_EveryRepeats(t *testing.T) {
	m := NewManual()

	n := 0
	timer := m.Every(time.Second, func() { n++ })

	m.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, n)

	timer.Stop()
	m.Advance(5 * time.Second)
	assert.Equal(t, 3, n)
}

func TestManual_GoHoldsContinuation(t *testing.T) {
	m := NewManual()

	worked, finished := false, false
	m.Go(func() { worked = true }, func() { finished = true })

	assert.True(t, worked)
	assert.False(t, finished)
	assert.Equal(t, 1, m.Pending())

	m.Drain()
	assert.True(t, finished)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StepKeepsContinuationsInFlight(t *testing.T) {
	m := NewManual()

	ticks := 0
	m.Every(time.Second, func() {
		ticks++
		m.Go(func() {}, func() {})
	})

	m.Step(2 * time.Second)
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 2, m.Pending())
}
