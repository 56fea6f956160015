package segmentation

// Propensity tier labels, highest first.
const (
	PropensityVeryHigh = "Very High"
	PropensityHigh     = "High"
	PropensityMedium   = "Medium"
	PropensityLow      = "Low"
	PropensityVeryLow  = "Very Low"
)

// PropensityConfig holds the behavioral multipliers and tier cut points.
// The cuts are empirically chosen, deliberately not evenly spaced.
type PropensityConfig struct {
	PurchaseBoost      float64 // applied when the purchase flag is at scale max
	PurchasePenalty    float64 // applied when the purchase flag is at scale min
	WillingnessBoost   float64 // applied when willingness >= WillingnessHigh
	WillingnessPenalty float64 // applied when willingness <= WillingnessLow
	WillingnessHigh    float64
	WillingnessLow     float64

	// TierCuts quantize the adjusted score into tiers 5,4,3,2 in order;
	// anything below the last cut is tier 1.
	TierCuts [4]float64
}

// DefaultPropensityConfig returns the reference multipliers and cuts.
func DefaultPropensityConfig() PropensityConfig {
	return PropensityConfig{
		PurchaseBoost:      1.3,
		PurchasePenalty:    0.75,
		WillingnessBoost:   1.15,
		WillingnessPenalty: 0.85,
		WillingnessHigh:    4,
		WillingnessLow:     2,
		TierCuts:           [4]float64{4.3, 3.6, 2.8, 2.0},
	}
}

// BehaviorFlags carries the normalized behavioral scores that adjust the
// percentile-derived base. Has* distinguishes a present score from an
// unanswered question, which triggers no adjustment at all.
type BehaviorFlags struct {
	Purchase    float64
	HasPurchase bool

	Willingness    float64
	HasWillingness bool
}

// ScorePropensity converts a percentile rank plus behavioral flags into a
// quantized propensity-to-pay tier and its label. Monotonic non-decreasing in
// percentile when the flags are held constant.
func ScorePropensity(percentile float64, flags BehaviorFlags, cfg PropensityConfig) (float64, string) {
	score := 1 + (percentile/100)*4

	if flags.HasPurchase {
		if flags.Purchase >= ScaleMax {
			score = clampScale(score * cfg.PurchaseBoost)
		} else if flags.Purchase <= ScaleMin {
			score = clampScale(score * cfg.PurchasePenalty)
		}
	}

	if flags.HasWillingness {
		if flags.Willingness >= cfg.WillingnessHigh {
			score = clampScale(score * cfg.WillingnessBoost)
		} else if flags.Willingness <= cfg.WillingnessLow {
			score = clampScale(score * cfg.WillingnessPenalty)
		}
	}

	switch {
	case score >= cfg.TierCuts[0]:
		return 5.0, PropensityVeryHigh
	case score >= cfg.TierCuts[1]:
		return 4.0, PropensityHigh
	case score >= cfg.TierCuts[2]:
		return 3.0, PropensityMedium
	case score >= cfg.TierCuts[3]:
		return 2.0, PropensityLow
	default:
		return 1.0, PropensityVeryLow
	}
}
