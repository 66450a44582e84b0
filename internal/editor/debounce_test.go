package editor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_LastScheduleWins(t *testing.T) {
	var runs atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 5; i++ {
		d.Schedule()
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	var runs atomic.Int32
	d := newDebouncer(10*time.Millisecond, func() { runs.Add(1) })

	d.Schedule()
	d.Stop()
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, d.Pending())
}
