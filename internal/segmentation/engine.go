package segmentation

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"personaforge/internal/model"
)

// Dominant-value cut points, symmetric to the frequency encoding table.
const (
	dominantHigh = 0.75
	dominantLow  = 0.25
)

// RunOutput is one complete classification of a respondent set.
type RunOutput struct {
	Strategy      model.RunStrategy
	Results       []model.ClassificationResult
	SegmentCounts map[string]int
	ClusterStats  []model.ClusterStats // clustering path only
}

// Engine is the pure batch classification core. It holds no state between
// invocations: identical inputs and seed reproduce identical output.
type Engine struct{}

// NewEngine creates the engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Classify runs the catalogue-driven weighted path.
func (e *Engine) Classify(respondents []*model.Respondent, cfg ClassifierConfig) (*RunOutput, error) {
	results, err := ClassifyWeighted(respondents, cfg)
	if err != nil {
		return nil, err
	}
	return &RunOutput{
		Strategy:      model.StrategyWeighted,
		Results:       results,
		SegmentCounts: countSegments(results),
	}, nil
}

// Discover runs the unsupervised path: feature vectors, seeded k-means,
// per-cluster aggregates, and propensity annotation from an
// activation-derived percentile rank.
func (e *Engine) Discover(respondents []*model.Respondent, opts ClusterOptions, pcfg PropensityConfig) (*RunOutput, error) {
	if len(respondents) == 0 {
		return nil, ErrNoRespondents
	}

	vectors := make([][]float64, len(respondents))
	for i, r := range respondents {
		vectors[i] = BuildVector(r)
	}

	clusters, err := DiscoverClusters(vectors, opts)
	if err != nil {
		return nil, err
	}

	results := annotateClusterResults(respondents, vectors, clusters.Assignments, pcfg)
	clusterStats := buildClusterStats(respondents, clusters)

	return &RunOutput{
		Strategy:      model.StrategyCluster,
		Results:       results,
		SegmentCounts: countSegments(results),
		ClusterStats:  clusterStats,
	}, nil
}

// annotateClusterResults ranks respondents by mean populated feature
// activation (an engagement proxy; the clustering path has no composite
// score) and derives percentile and propensity from that ranking.
func annotateClusterResults(respondents []*model.Respondent, vectors [][]float64, assignments []int, pcfg PropensityConfig) []model.ClassificationResult {
	type rankedEntry struct {
		idx        int
		activation float64
	}

	ranked := make([]rankedEntry, len(respondents))
	for i := range respondents {
		ranked[i] = rankedEntry{idx: i, activation: meanActivation(vectors[i], len(respondents[i].Answers))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].activation > ranked[j].activation
	})

	total := len(ranked)
	results := make([]model.ClassificationResult, total)
	for pos, entry := range ranked {
		r := respondents[entry.idx]
		cluster := assignments[entry.idx]
		percentile := (1 - float64(pos)/float64(total)) * 100
		tier, category := ScorePropensity(percentile, BehaviorFlags{}, pcfg)
		segment := fmt.Sprintf("Cluster %d", cluster+1)

		results[pos] = model.ClassificationResult{
			RespondentID:       r.ID,
			Row:                r.Row,
			Rank:               pos + 1,
			CompositeScore:     clampScale(ScaleMin + entry.activation*(ScaleMax-ScaleMin)),
			PercentileRank:     percentile,
			Segment:            segment,
			ClusterIndex:       cluster,
			PropensityScore:    tier,
			PropensityCategory: category,
			Reasoning: fmt.Sprintf(
				"Scores in the %.1fth percentile by response engagement; propensity to pay is %s; member of %s.",
				percentile, category, segment),
		}
	}
	return results
}

// meanActivation averages the populated prefix of a feature vector, ignoring
// zero padding beyond the respondent's actual answers.
func meanActivation(vec []float64, answered int) float64 {
	if answered > len(vec) {
		answered = len(vec)
	}
	if answered == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vec[:answered] {
		sum += v
	}
	return sum / float64(answered)
}

// buildClusterStats computes the member lists and aggregate statistics
// consumed by the external interpreter. Per-field means filter NaN/Inf
// inputs; a field with no finite values is omitted rather than surfaced as
// NaN.
func buildClusterStats(respondents []*model.Respondent, clusters *ClusterResult) []model.ClusterStats {
	out := make([]model.ClusterStats, clusters.K)
	fieldValues := make([]map[string][]float64, clusters.K)
	for c := range out {
		out[c] = model.ClusterStats{
			ClusterIndex:       c,
			MemberIDs:          []string{},
			PerFieldMeans:      map[string]float64{},
			DominantValueFlags: map[string]string{},
			Centroid:           clusters.Centroids[c],
		}
		fieldValues[c] = map[string][]float64{}
	}

	for i, r := range respondents {
		c := clusters.Assignments[i]
		out[c].MemberCount++
		out[c].MemberIDs = append(out[c].MemberIDs, r.ID)
		for _, qa := range r.Answers {
			if qa.Answer.IsAbsent() {
				continue
			}
			v := EncodeFeature(qa.Answer)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			fieldValues[c][qa.QuestionID] = append(fieldValues[c][qa.QuestionID], v)
		}
	}

	for c := range out {
		for field, values := range fieldValues[c] {
			mean, err := stats.Mean(stats.Float64Data(values))
			if err != nil || math.IsNaN(mean) || math.IsInf(mean, 0) {
				continue
			}
			out[c].PerFieldMeans[field] = mean
			if mean >= dominantHigh {
				out[c].DominantValueFlags[field] = "high"
			} else if mean <= dominantLow {
				out[c].DominantValueFlags[field] = "low"
			}
		}
	}

	return out
}

func countSegments(results []model.ClassificationResult) map[string]int {
	counts := make(map[string]int)
	for _, res := range results {
		counts[res.Segment]++
	}
	return counts
}
