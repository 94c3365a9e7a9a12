package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClockRunsInDeadlineOrder(t *testing.T) {
	c := NewManualClock()
	var order []string

	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b2") })

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b", "b2"}, order)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "b2", "c"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestManualClockStop(t *testing.T) {
	c := NewManualClock()
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Hour)
	assert.False(t, fired)

	ran := c.AfterFunc(0, func() {})
	c.Advance(0)
	assert.False(t, ran.Stop(), "stopping a fired timer reports false")
}

func TestManualClockNextDeadline(t *testing.T) {
	c := NewManualClock()
	_, ok := c.NextDeadline()
	assert.False(t, ok)

	c.AfterFunc(5*time.Second, func() {})
	c.Advance(2 * time.Second)
	d, ok := c.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
}
