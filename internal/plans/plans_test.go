package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	tests := []struct {
		name         string
		plan         string
		wantAmount   int64
		wantDuration time.Duration
	}{
		{"basic", "basic", 50, time.Hour},
		{"standard", "standard", 450, 7 * 24 * time.Hour},
		{"premium", "premium", 850, 14 * 24 * time.Hour},
		{"pro", "pro", 1600, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Get(tt.plan)
			require.True(t, ok)
			assert.Equal(t, tt.wantAmount, p.Amount)
			assert.Equal(t, tt.wantDuration, p.Duration)
			assert.NotEmpty(t, p.AllowedPages)
		})
	}
}

func TestGetUnknownPlan(t *testing.T) {
	_, ok := Get("enterprise")
	assert.False(t, ok)
	assert.False(t, Exists("enterprise"))
}

func TestAmountMinorUnits(t *testing.T) {
	p, ok := Get("standard")
	require.True(t, ok)
	assert.Equal(t, int64(45000), p.AmountMinorUnits())
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	p, ok := Get("basic")
	require.True(t, ok)
	start, end := Window(p, now)
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(time.Hour), end)
}

func TestWindowWithDuration(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	start, end := WindowWithDuration(now, 10*24*time.Hour)
	assert.Equal(t, now, start)
	assert.Equal(t, now.AddDate(0, 0, 10), end)
}

func TestAllowsPage(t *testing.T) {
	basic, _ := Get("basic")
	pro, _ := Get("pro")

	assert.True(t, basic.AllowsPage("std.html"))
	assert.False(t, basic.AllowsPage("emergency_support.html"))
	assert.True(t, pro.AllowsPage("emergency_support.html"))
	assert.False(t, pro.AllowsPage("unknown.html"))
}

func TestHigherPlansIncludeLowerPages(t *testing.T) {
	basic, _ := Get("basic")
	for _, plan := range []string{"standard", "premium", "pro"} {
		p, _ := Get(plan)
		for _, page := range basic.AllowedPages {
			assert.True(t, p.AllowsPage(page), "plan %s should allow %s", plan, page)
		}
	}
}
