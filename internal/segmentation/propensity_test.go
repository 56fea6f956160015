package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePropensityBaseMapping(t *testing.T) {
	cfg := DefaultPropensityConfig()

	tier, category := ScorePropensity(100, BehaviorFlags{}, cfg)
	assert.Equal(t, 5.0, tier)
	assert.Equal(t, PropensityVeryHigh, category)

	tier, category = ScorePropensity(1, BehaviorFlags{}, cfg)
	assert.Equal(t, 1.0, tier)
	assert.Equal(t, PropensityVeryLow, category)

	// percentile 50 -> base 3.0 -> Medium
	tier, category = ScorePropensity(50, BehaviorFlags{}, cfg)
	assert.Equal(t, 3.0, tier)
	assert.Equal(t, PropensityMedium, category)
}

func TestScorePropensityPurchaseBoost(t *testing.T) {
	cfg := DefaultPropensityConfig()

	// base 3.0 * 1.3 = 3.9 -> High
	tier, category := ScorePropensity(50, BehaviorFlags{Purchase: 5, HasPurchase: true}, cfg)
	assert.Equal(t, 4.0, tier)
	assert.Equal(t, PropensityHigh, category)

	// boost clamps at the scale max: base 5.0 * 1.3 -> 5
	tier, _ = ScorePropensity(100, BehaviorFlags{Purchase: 5, HasPurchase: true}, cfg)
	assert.Equal(t, 5.0, tier)
}

func TestScorePropensityPurchasePenalty(t *testing.T) {
	cfg := DefaultPropensityConfig()

	// base 3.0 * 0.75 = 2.25 -> Low
	tier, category := ScorePropensity(50, BehaviorFlags{Purchase: 1, HasPurchase: true}, cfg)
	assert.Equal(t, 2.0, tier)
	assert.Equal(t, PropensityLow, category)

	// mid-scale purchase triggers no adjustment
	tier, _ = ScorePropensity(50, BehaviorFlags{Purchase: 3, HasPurchase: true}, cfg)
	assert.Equal(t, 3.0, tier)
}

func TestScorePropensityWillingness(t *testing.T) {
	cfg := DefaultPropensityConfig()

	// base 3.0 * 1.15 = 3.45 -> Medium still
	tier, _ := ScorePropensity(50, BehaviorFlags{Willingness: 4, HasWillingness: true}, cfg)
	assert.Equal(t, 3.0, tier)

	// base 3.0 * 0.85 = 2.55 -> Low
	tier, _ = ScorePropensity(50, BehaviorFlags{Willingness: 2, HasWillingness: true}, cfg)
	assert.Equal(t, 2.0, tier)

	// absent willingness means no adjustment even at zero value
	tier, _ = ScorePropensity(50, BehaviorFlags{}, cfg)
	assert.Equal(t, 3.0, tier)
}

func TestScorePropensityQuantizationCuts(t *testing.T) {
	cfg := DefaultPropensityConfig()

	tests := []struct {
		percentile float64
		wantTier   float64
	}{
		{100, 5},   // 5.0
		{82.51, 5}, // just above the 4.3 cut
		{82.49, 4}, // just below it
		{65.1, 4},  // just above 3.6
		{64.9, 3},  // just below it
		{45.1, 3},  // just above 2.8
		{44.9, 2},  // just below it
		{25.1, 2},  // just above 2.0
		{24.9, 1},
	}
	for _, tt := range tests {
		tier, _ := ScorePropensity(tt.percentile, BehaviorFlags{}, cfg)
		assert.Equalf(t, tt.wantTier, tier, "percentile %v", tt.percentile)
	}
}

func TestScorePropensityMonotonicInPercentile(t *testing.T) {
	cfg := DefaultPropensityConfig()
	flags := BehaviorFlags{Purchase: 5, HasPurchase: true, Willingness: 2, HasWillingness: true}

	prev := 0.0
	for p := 1.0; p <= 100; p += 0.5 {
		tier, _ := ScorePropensity(p, flags, cfg)
		assert.GreaterOrEqualf(t, tier, prev, "tier regressed at percentile %v", p)
		prev = tier
	}
}
