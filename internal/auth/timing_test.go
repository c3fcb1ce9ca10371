package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingDelay_TargetWithinRange(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 100, RandomDelayMs: 50})

	for i := 0; i < 20; i++ {
		target := td.Target()
		assert.GreaterOrEqual(t, target, 100*time.Millisecond)
		assert.Less(t, target, 150*time.Millisecond)
	}
}

func TestTimingDelay_WaitFrom_SleepsRemainder(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 200})
	var slept time.Duration
	td.sleep = func(d time.Duration) { slept = d }

	td.WaitFrom(time.Now().Add(-50 * time.Millisecond))

	assert.Greater(t, slept, 100*time.Millisecond)
	assert.LessOrEqual(t, slept, 150*time.Millisecond)
}

func TestTimingDelay_WaitFrom_NoWaitIfAlreadyExceeded(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 10})
	called := false
	td.sleep = func(time.Duration) { called = true }

	td.WaitFrom(time.Now().Add(-time.Second))

	assert.False(t, called)
}

func TestTimingDelay_NilIsNoop(t *testing.T) {
	var td *TimingDelay
	assert.NotPanics(t, func() { td.WaitFrom(time.Now()) })
}
