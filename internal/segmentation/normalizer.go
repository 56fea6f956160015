package segmentation

import (
	"math"
	"strings"

	"personaforge/internal/model"
)

// Scale bounds for normalized answer scores.
const (
	ScaleMin     = 1.0
	ScaleMax     = 5.0
	NeutralScore = 3.0
)

// textScore is one case-insensitive substring rule. Rules are checked in
// order and the first match wins, so negated phrases ("strongly disagree",
// "not important") sit above the shorter phrases they contain.
type textScore struct {
	match string
	score float64
}

var textScores = []textScore{
	{"strongly agree", 5},
	{"very important", 5},
	{"extremely", 5},
	{"always", 5},
	{"strongly disagree", 1},
	{"not at all", 1},
	{"never", 1},
	{"not important", 2},
	{"disagree", 2},
	{"rarely", 2},
	{"agree", 4},
	{"important", 4},
	{"often", 4},
	{"frequently", 4},
	{"neutral", 3},
	{"neither", 3},
	{"somewhat", 3},
	{"sometimes", 3},
}

// Normalize maps a raw answer onto the 1-5 scale. Missing answers and
// unrecognized text normalize to the neutral default; callers that need to
// distinguish absence use NormalizePresent instead.
func Normalize(a model.Answer) float64 {
	score, ok := NormalizePresent(a)
	if !ok {
		return NeutralScore
	}
	return score
}

// NormalizePresent maps a raw answer onto the 1-5 scale, reporting ok=false
// when the answer is absent so aggregations can exclude it. Unrecognized
// non-empty text is present-but-neutral, not absent.
func NormalizePresent(a model.Answer) (float64, bool) {
	switch a.Kind {
	case model.AnswerNumber:
		return clampScale(a.Number), true
	case model.AnswerText:
		return normalizeText(a.Text), true
	case model.AnswerBool:
		if a.Bool {
			return ScaleMax, true
		}
		return ScaleMin, true
	default:
		return 0, false
	}
}

// ApplyInvert reflects a normalized score across the scale midpoint. Only
// valid for the 1-5 scale, where 6-score preserves the bounds.
func ApplyInvert(score float64, invert bool) float64 {
	if !invert {
		return score
	}
	return (ScaleMax + ScaleMin) - score
}

func clampScale(v float64) float64 {
	// NaN fails both comparisons; without this it would leak through the
	// clamp and poison every downstream aggregate.
	if math.IsNaN(v) {
		return NeutralScore
	}
	if v < ScaleMin {
		return ScaleMin
	}
	if v > ScaleMax {
		return ScaleMax
	}
	return v
}

func normalizeText(s string) float64 {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return NeutralScore
	}

	switch lower {
	case "yes", "y":
		return ScaleMax
	case "no", "n":
		return ScaleMin
	}

	for _, ts := range textScores {
		if strings.Contains(lower, ts.match) {
			return ts.score
		}
	}

	return NeutralScore
}
