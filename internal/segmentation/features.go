package segmentation

import (
	"math"
	"strings"

	"personaforge/internal/model"
)

// VectorDim is the fixed feature-vector length. Every respondent encodes to
// exactly this many dimensions so vectors are directly comparable.
const VectorDim = 100

// featureScaleDivisor assumes a 7-point underlying scale for raw numeric
// answers. Feature vectors feed clustering, not the 1-5 weighted classifier,
// so the two scales are intentionally distinct.
const featureScaleDivisor = 7.0

// frequencyScores encodes frequency words onto [0,1], matched by substring
// in order.
var frequencyScores = []textScore{
	{"always", 1.0},
	{"often", 0.75},
	{"sometimes", 0.5},
	{"rarely", 0.25},
	{"never", 0.0},
}

// BuildVector encodes a respondent's answers, in encounter order, into a
// fixed-length vector of values in [0,1]. Shorter answer sets are zero-padded
// and longer ones truncated.
func BuildVector(r *model.Respondent) []float64 {
	vec := make([]float64, VectorDim)
	for i, qa := range r.Answers {
		if i >= VectorDim {
			break
		}
		vec[i] = EncodeFeature(qa.Answer)
	}
	return vec
}

// EncodeFeature maps a single raw answer onto [0,1] for clustering.
func EncodeFeature(a model.Answer) float64 {
	switch a.Kind {
	case model.AnswerNumber:
		return clampUnit(a.Number / featureScaleDivisor)
	case model.AnswerBool:
		if a.Bool {
			return 1.0
		}
		return 0.0
	case model.AnswerText:
		return encodeText(a.Text)
	default:
		return 0.0
	}
}

func encodeText(s string) float64 {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return 0.0
	}

	switch lower {
	case "yes", "agree", "true":
		return 1.0
	case "no", "disagree", "false":
		return 0.0
	}

	for _, fs := range frequencyScores {
		if strings.Contains(lower, fs.match) {
			return fs.score
		}
	}

	return hashFraction(lower)
}

// hashFraction reduces a string to a stable pseudo-value in [0,1). It is a
// plain rolling hash: its only guarantee is that the same string always
// yields the same value, which keeps vectors reproducible without persisting
// a category dictionary. It is not a semantic encoding.
func hashFraction(s string) float64 {
	var h uint32
	for _, c := range s {
		h = h*31 + uint32(c)
	}
	return float64(h) / float64(math.MaxUint32)
}

func clampUnit(v float64) float64 {
	// NaN encodes like an absent answer
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
