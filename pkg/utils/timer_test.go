package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFires(t *testing.T) {
	var fired atomic.Int32
	timer := NewTimer(5*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, timer.Active())
	assert.False(t, timer.Stop())
}

func TestTimerStop(t *testing.T) {
	var fired atomic.Int32
	timer := NewTimer(20*time.Millisecond, func() { fired.Add(1) })

	assert.True(t, timer.Active())
	assert.True(t, timer.Stop())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimerReset(t *testing.T) {
	var fired atomic.Int32
	timer := NewTimer(time.Hour, func() { fired.Add(1) })
	timer.Reset(time.Millisecond)

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	assert.False(t, timer.Stop())
	assert.False(t, timer.Active())
}
