package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{1899, 7},
		{1900, 8},
		{4999, 11},
		{5000, 12},
		{999999, 12},
		{-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.xp), "LevelFor(%d)", tt.xp)
	}
}

func TestLevelFor_NonDecreasing(t *testing.T) {
	prev := LevelFor(0)
	for xp := 1; xp <= 6000; xp++ {
		lvl := LevelFor(xp)
		assert.GreaterOrEqual(t, lvl, prev, "xp %d", xp)
		prev = lvl
	}
}

func TestThresholdsMonotonic(t *testing.T) {
	assert.Len(t, thresholds, MaxLevel)
	for i := 1; i < len(thresholds); i++ {
		assert.Greater(t, thresholds[i], thresholds[i-1])
	}
	assert.Equal(t, 0, Threshold(0))
	assert.Equal(t, 5000, Threshold(99))
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(175)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 75, p.CurrentXP)
	assert.Equal(t, 150, p.XPToNext)
	assert.InDelta(t, 50.0, p.Percent, 1e-9)
	assert.False(t, p.MaxLevel)

	p = ProgressFor(6200)
	assert.Equal(t, MaxLevel, p.Level)
	assert.Equal(t, 1200, p.CurrentXP)
	assert.Equal(t, 0, p.XPToNext)
	assert.Equal(t, 100.0, p.Percent)
	assert.True(t, p.MaxLevel)
}

func TestCalendar(t *testing.T) {
	bkk := time.FixedZone("ICT", 7*3600)
	cal := NewCalendar(bkk)

	// 18:30 UTC on the 9th is already the 10th in Bangkok.
	at := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", cal.Day(at))
	assert.Equal(t, "2026-03-09", cal.Yesterday(at))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, bkk), cal.Midnight(at))

	assert.Equal(t, "2026-02-28", cal.Yesterday(time.Date(2026, 3, 1, 5, 0, 0, 0, bkk)))
	assert.Equal(t, time.UTC, NewCalendar(nil).Location())
}
