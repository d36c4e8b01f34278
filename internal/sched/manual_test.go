package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_StartsAtEpoch(t *testing.T) {
	m := NewManual()
	assert.Equal(t, Epoch, m.Now())
	assert.Equal(t, 0, m.Pending())
}

func TestManual_AfterFunc_FiresWhenDue(t *testing.T) {
	m := NewManual()
	fired := 0
	m.AfterFunc(2*time.Second, func() { fired++ })

	m.Advance(1999 * time.Millisecond)
	assert.Equal(t, 0, fired)

	m.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	m.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot fires once")
}

func TestManual_CallbackSeesDueTime(t *testing.T) {
	m := NewManual()
	var seen time.Time
	m.AfterFunc(3*time.Second, func() { seen = m.Now() })

	m.Advance(10 * time.Second)
	assert.Equal(t, Epoch.Add(3*time.Second), seen)
	assert.Equal(t, Epoch.Add(10*time.Second), m.Now())
}

func TestManual_Every(t *testing.T) {
	m := NewManual()
	ticks := 0
	m.Every(time.Second, func() { ticks++ })

	m.Advance(5500 * time.Millisecond)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, m.Pending())
}

func TestManual_OrderByDueThenSequence(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "late") })
	m.AfterFunc(time.Second, func() { order = append(order, "first") })
	m.AfterFunc(time.Second, func() { order = append(order, "second") })

	m.Advance(5 * time.Second)
	assert.Equal(t, []string{"first", "second", "late"}, order)
}

func TestManual_Stop(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports false")

	m.Advance(time.Minute)
	assert.False(t, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StopAfterFire(t *testing.T) {
	m := NewManual()
	timer := m.AfterFunc(time.Second, func() {})
	m.Advance(time.Second)

	assert.False(t, timer.Stop())
}

func TestManual_EveryStopsItself(t *testing.T) {
	m := NewManual()
	ticks := 0
	var timer Timer
	timer = m.Every(time.Second, func() {
		ticks++
		if ticks == 3 {
			timer.Stop()
		}
	})

	m.Advance(10 * time.Second)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_CallbackSchedulesMore(t *testing.T) {
	// Self-rescheduling chain, like the spike on/off timer.
	m := NewManual()
	var fires []time.Duration
	var chain func()
	chain = func() {
		fires = append(fires, m.Now().Sub(Epoch))
		m.AfterFunc(2*time.Second, chain)
	}
	m.AfterFunc(time.Second, chain)

	m.Advance(6 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}, fires)
}

func TestManual_ZeroDelayFiresOnNextAdvance(t *testing.T) {
	m := NewManual()
	fired := false
	m.AfterFunc(0, func() { fired = true })
	assert.False(t, fired)

	m.Advance(0)
	assert.True(t, fired)
}

func TestManual_NextDue(t *testing.T) {
	m := NewManual()
	_, ok := m.NextDue()
	assert.False(t, ok)

	m.AfterFunc(4*time.Second, func() {})
	m.AfterFunc(time.Second, func() {})

	due, ok := m.NextDue()
	require.True(t, ok)
	assert.Equal(t, Epoch.Add(time.Second), due)
}

func TestManual_AdvanceToPastIsNoop(t *testing.T) {
	m := NewManual()
	m.Advance(time.Minute)
	m.AdvanceTo(Epoch)
	assert.Equal(t, Epoch.Add(time.Minute), m.Now())
}

func TestStopTimer(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	timer = StopTimer(timer)
	assert.Nil(t, timer)
	assert.Nil(t, StopTimer(nil))

	m.Advance(time.Minute)
	assert.False(t, fired)
}
