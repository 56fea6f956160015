package segmentation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"personaforge/internal/model"
)

var (
	// ErrNoRespondents is returned when a classification run receives an
	// empty population. Ranking is global, so there is nothing sane to emit.
	ErrNoRespondents = errors.New("segmentation: no respondents to classify")

	// ErrBadConfig is returned for catalogues or bands that cannot partition
	// a population.
	ErrBadConfig = errors.New("segmentation: invalid classifier config")
)

// ClassifierConfig drives the deterministic, auditable classification path.
// It is caller-supplied configuration, passed explicitly so concurrent runs
// over different datasets cannot interfere.
type ClassifierConfig struct {
	Variables []model.ClassificationVariable
	Bands     []model.SegmentBand
	Behaviors []model.BehaviorPhrase

	// PurchaseVariable and WillingnessVariable name the catalogue variables
	// used as behavioral flags by the propensity scorer.
	PurchaseVariable    string
	WillingnessVariable string

	Propensity PropensityConfig
}

// DefaultClassifierConfig returns the reference sustainability catalogue.
// Weights, band cuts and thresholds are empirically tuned constants; override
// them rather than deriving replacements.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Variables: []model.ClassificationVariable{
			{Name: "sustainability_importance", QuestionID: "sustainability_importance", Weight: 2.0},
			{Name: "purchase_behavior", QuestionID: "sustainable_purchase", Weight: 2.5},
			{Name: "willingness_to_pay", QuestionID: "premium_willingness", Weight: 2.0},
			{Name: "brand_values", QuestionID: "brand_values_alignment", Weight: 1.5},
			{Name: "price_sensitivity", QuestionID: "price_sensitivity", Weight: 1.0, Invert: true},
			{Name: "convenience_priority", QuestionID: "convenience_priority", Weight: 0.5, Invert: true},
		},
		Bands: []model.SegmentBand{
			{
				Name:         "Leader",
				CutPercent:   12.5,
				MinComposite: 3.8,
				KeyCriteria: []model.KeyCriterion{
					{Variable: "sustainability_importance", MinScore: 4},
					{Variable: "purchase_behavior", MinScore: 4},
				},
			},
			{
				Name:         "Leaning",
				CutPercent:   35,
				MinComposite: 3.2,
				KeyCriteria: []model.KeyCriterion{
					{Variable: "sustainability_importance", MinScore: 3.5},
					{Variable: "willingness_to_pay", MinScore: 3},
				},
			},
			{
				Name:         "Learner",
				CutPercent:   72.5,
				MinComposite: 2.5,
				KeyCriteria: []model.KeyCriterion{
					{Variable: "sustainability_importance", MinScore: 2.5},
				},
			},
			{
				Name:       "Laggard",
				CutPercent: 100,
			},
		},
		Behaviors: []model.BehaviorPhrase{
			{Variable: "purchase_behavior", MinScore: 5, Phrase: "has purchased for sustainability"},
			{Variable: "willingness_to_pay", MinScore: 4, Phrase: "willing to pay a premium"},
			{Variable: "brand_values", MinScore: 4, Phrase: "aligns with purpose-driven brands"},
		},
		PurchaseVariable:    "purchase_behavior",
		WillingnessVariable: "willingness_to_pay",
		Propensity:          DefaultPropensityConfig(),
	}
}

// Validate checks that the config can partition a ranked population.
func (c ClassifierConfig) Validate() error {
	if len(c.Variables) == 0 {
		return fmt.Errorf("%w: empty variable catalogue", ErrBadConfig)
	}
	for _, v := range c.Variables {
		if v.Weight <= 0 {
			return fmt.Errorf("%w: variable %q has non-positive weight %v", ErrBadConfig, v.Name, v.Weight)
		}
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("%w: no segment bands", ErrBadConfig)
	}
	prev := 0.0
	for _, b := range c.Bands {
		if b.CutPercent <= prev {
			return fmt.Errorf("%w: band %q cut %v is not above previous cut %v", ErrBadConfig, b.Name, b.CutPercent, prev)
		}
		prev = b.CutPercent
	}
	if prev != 100 {
		return fmt.Errorf("%w: last band must cut at 100, got %v", ErrBadConfig, prev)
	}
	return nil
}

// scored is one respondent with its composite and per-variable scores, kept
// through ranking.
type scored struct {
	respondent *model.Respondent
	composite  float64
	varScores  map[string]float64 // present variables only, invert applied
}

// ClassifyWeighted runs the catalogue path: composite scoring, stable
// percentile ranking, band assignment with the single-step downgrade rule,
// and propensity annotation.
func ClassifyWeighted(respondents []*model.Respondent, cfg ClassifierConfig) ([]model.ClassificationResult, error) {
	if len(respondents) == 0 {
		return nil, ErrNoRespondents
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]scored, len(respondents))
	for i, r := range respondents {
		ranked[i] = scoreRespondent(r, cfg.Variables)
	}

	// Descending composite; ties keep original input order for reproducibility.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].composite > ranked[j].composite
	})

	total := len(ranked)
	results := make([]model.ClassificationResult, total)
	for i, s := range ranked {
		percentile := (1 - float64(i)/float64(total)) * 100

		bandIdx := bandForIndex(i, total, cfg.Bands)
		if bandIdx < len(cfg.Bands)-1 && !meetsBandCriteria(cfg.Bands[bandIdx], s) {
			// Demote exactly one band. The failed check is not re-applied to
			// the destination band, so a respondent never falls further.
			bandIdx++
		}

		flags := behaviorFlags(s.varScores, cfg)
		tier, category := ScorePropensity(percentile, flags, cfg.Propensity)

		results[i] = model.ClassificationResult{
			RespondentID:       s.respondent.ID,
			Row:                s.respondent.Row,
			Rank:               i + 1,
			CompositeScore:     s.composite,
			PercentileRank:     percentile,
			Segment:            cfg.Bands[bandIdx].Name,
			ClusterIndex:       -1,
			PropensityScore:    tier,
			PropensityCategory: category,
			Reasoning:          buildReasoning(percentile, s.composite, category, s.varScores, cfg.Behaviors),
		}
	}

	return results, nil
}

// scoreRespondent computes the weighted composite over present answers.
// Missing variables are excluded from both sums, not zero-filled, so skipping
// optional questions carries no penalty. Variables whose question id no
// respondent ever answered are inert by the same rule.
func scoreRespondent(r *model.Respondent, variables []model.ClassificationVariable) scored {
	varScores := make(map[string]float64, len(variables))
	weightedSum := 0.0
	totalWeight := 0.0

	for _, v := range variables {
		ans, _ := r.Answer(v.QuestionID)
		score, ok := NormalizePresent(ans)
		if !ok {
			continue
		}
		score = ApplyInvert(score, v.Invert)
		varScores[v.Name] = score
		weightedSum += score * v.Weight
		totalWeight += v.Weight
	}

	composite := NeutralScore
	if totalWeight > 0 {
		composite = weightedSum / totalWeight
	}

	return scored{respondent: r, composite: composite, varScores: varScores}
}

// bandForIndex maps a sorted index to its percentile band. Cut indices use
// floor truncation, so a respondent exactly on a cut point lands in the upper
// band's index range.
func bandForIndex(i, total int, bands []model.SegmentBand) int {
	for b, band := range bands {
		limit := int(math.Floor(float64(total) * band.CutPercent / 100))
		if i < limit {
			return b
		}
	}
	return len(bands) - 1
}

// meetsBandCriteria checks the band's minimum composite and any-of key
// variable thresholds. Bands without criteria always pass.
func meetsBandCriteria(band model.SegmentBand, s scored) bool {
	if band.MinComposite > 0 && s.composite < band.MinComposite {
		return false
	}
	if len(band.KeyCriteria) == 0 {
		return true
	}
	for _, kc := range band.KeyCriteria {
		if score, ok := s.varScores[kc.Variable]; ok && score >= kc.MinScore {
			return true
		}
	}
	return false
}

func behaviorFlags(varScores map[string]float64, cfg ClassifierConfig) BehaviorFlags {
	var flags BehaviorFlags
	if score, ok := varScores[cfg.PurchaseVariable]; ok {
		flags.Purchase = score
		flags.HasPurchase = true
	}
	if score, ok := varScores[cfg.WillingnessVariable]; ok {
		flags.Willingness = score
		flags.HasWillingness = true
	}
	return flags
}

// buildReasoning assembles the audit string in fixed order: percentile
// phrase, propensity phrase, then any triggered behavior phrases.
func buildReasoning(percentile, composite float64, category string, varScores map[string]float64, behaviors []model.BehaviorPhrase) string {
	parts := []string{
		fmt.Sprintf("Scores in the %.1fth percentile with a composite of %.2f", percentile, composite),
		fmt.Sprintf("propensity to pay is %s", category),
	}
	for _, b := range behaviors {
		if score, ok := varScores[b.Variable]; ok && score >= b.MinScore {
			parts = append(parts, b.Phrase)
		}
	}
	return strings.Join(parts, "; ") + "."
}
