package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskTrackerDrawdown(t *testing.T) {
	r := newRiskTracker(-500)

	r.add(100)
	assert.Equal(t, 100.0, r.peakPnL)
	assert.Equal(t, 0.0, r.maxDrawdown)

	r.add(-150)
	assert.Equal(t, -50.0, r.realizedPnL)
	assert.Equal(t, 100.0, r.peakPnL)
	assert.Equal(t, 150.0, r.maxDrawdown)
	assert.False(t, r.violated)

	r.add(200)
	assert.Equal(t, 150.0, r.peakPnL)
	assert.Equal(t, 150.0, r.maxDrawdown, "drawdown never shrinks")
}

func TestRiskTrackerViolationLatches(t *testing.T) {
	r := newRiskTracker(-100)

	r.add(-100)
	assert.True(t, r.violated, "breach at exactly max loss")

	// recovery does not clear the latch
	r.add(500)
	assert.True(t, r.violated)
}
