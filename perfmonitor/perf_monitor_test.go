package perfmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceMonitor_Unstarted(t *testing.T) {
	pm := NewPerformanceMonitor()
	assert.NotNil(t, pm)
	assert.Zero(t, pm.Elapsed())
	assert.Equal(t, 0.0, pm.ElapsedMilliseconds())

	t.Run("stop without start records nothing", func(t *testing.T) {
		pm.Stop()
		assert.True(t, pm.endTime.IsZero())
		assert.Zero(t, pm.Elapsed())
	})

	t.Run("start without stop reports zero", func(t *testing.T) {
		pm.Start()
		assert.False(t, pm.startTime.IsZero())
		assert.Zero(t, pm.Elapsed())
	})
}

func TestPerformanceMonitor_Measures(t *testing.T) {
	pm := NewPerformanceMonitor()

	pm.Start()
	time.Sleep(20 * time.Millisecond)
	pm.Stop()

	assert.GreaterOrEqual(t, pm.Elapsed(), 20*time.Millisecond)
	assert.Less(t, pm.Elapsed(), 2*time.Second)
	assert.InDelta(t, float64(pm.Elapsed())/float64(time.Millisecond), pm.ElapsedMilliseconds(), 1e-9)

	t.Run("later stop extends the measurement", func(t *testing.T) {
		first := pm.Elapsed()
		time.Sleep(5 * time.Millisecond)
		pm.Stop()
		assert.Greater(t, pm.Elapsed(), first)
	})

	t.Run("restart moves the start instant", func(t *testing.T) {
		before := pm.startTime
		time.Sleep(time.Millisecond)
		pm.Start()
		assert.True(t, pm.startTime.After(before))
	})
}

func TestPerformanceMonitor_Reset(t *testing.T) {
	pm := NewPerformanceMonitor()
	pm.Start()
	pm.Stop()

	pm.Reset()
	assert.True(t, pm.startTime.IsZero())
	assert.True(t, pm.endTime.IsZero())
	assert.Zero(t, pm.Elapsed())

	pm.Stop()
	assert.True(t, pm.endTime.IsZero(), "stop after reset needs a new start")
}

func TestPerformanceMonitor_Reuse(t *testing.T) {
	pm := NewPerformanceMonitor()

	for i := 0; i < 3; i++ {
		pm.Reset()
		pm.Start()
		time.Sleep(2 * time.Millisecond)
		pm.Stop()
		assert.Greater(t, pm.ElapsedMilliseconds(), 0.0)
	}
}
