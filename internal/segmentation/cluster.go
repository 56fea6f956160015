package segmentation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrNoVectors is returned when clustering receives an empty population.
	ErrNoVectors = errors.New("segmentation: no feature vectors to cluster")

	// ErrBadClusterCount is returned when k cannot be satisfied by the
	// population size.
	ErrBadClusterCount = errors.New("segmentation: cluster count exceeds population")
)

// Auto-discovery bounds and the elbow cut-off.
const (
	autoKMin      = 3
	autoKMax      = 10
	autoKFinalMin = 3
	autoKFinalMax = 6
	autoKDefault  = 4
	elbowRatio    = 0.8

	defaultMaxIterations = 100
)

// ClusterOptions configures a discovery run. A zero K requests automatic
// selection via the elbow heuristic.
type ClusterOptions struct {
	K             int
	Seed          int64
	MaxIterations int
}

// ClusterResult is one complete k-means outcome.
type ClusterResult struct {
	K           int
	Assignments []int // vector index -> cluster index
	Centroids   [][]float64
	Inertia     float64 // total within-cluster squared distance
}

// DiscoverClusters runs seeded k-means over the vectors, selecting k
// automatically when none is supplied. Identical vectors and seed reproduce
// identical assignments and centroids.
func DiscoverClusters(vectors [][]float64, opts ClusterOptions) (*ClusterResult, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	k := opts.K
	if k <= 0 {
		k = selectK(vectors, opts.Seed, maxIter)
	}
	if k > len(vectors) {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrBadClusterCount, k, len(vectors))
	}

	return kMeans(vectors, k, opts.Seed, maxIter)
}

// selectK sweeps candidate cluster counts and picks the elbow: the first k
// where the ratio of consecutive inertia deltas exceeds elbowRatio, meaning
// additional clusters stop paying for themselves. Falls back to autoKDefault
// and clamps the result to [autoKFinalMin, autoKFinalMax].
func selectK(vectors [][]float64, seed int64, maxIter int) int {
	n := len(vectors)
	upper := autoKMax
	if limit := n / 10; limit < upper {
		upper = limit
	}

	candidates := make([]int, 0, autoKMax)
	inertias := make([]float64, 0, autoKMax)
	for k := autoKMin; k <= upper; k++ {
		// Each candidate reseeds so runs stay independent and reproducible.
		res, err := kMeans(vectors, k, seed, maxIter)
		inertia := math.Inf(1)
		if err == nil {
			inertia = res.Inertia
		}
		candidates = append(candidates, k)
		inertias = append(inertias, inertia)
	}

	chosen := autoKDefault
	for i := 0; i+2 < len(inertias); i++ {
		if math.IsInf(inertias[i], 1) || math.IsInf(inertias[i+1], 1) || math.IsInf(inertias[i+2], 1) {
			continue
		}
		prevDelta := inertias[i] - inertias[i+1]
		nextDelta := inertias[i+1] - inertias[i+2]
		if prevDelta <= 0 {
			continue
		}
		if nextDelta/prevDelta > elbowRatio {
			chosen = candidates[i+1]
			break
		}
	}

	if chosen < autoKFinalMin {
		chosen = autoKFinalMin
	}
	if chosen > autoKFinalMax {
		chosen = autoKFinalMax
	}
	return chosen
}

// kMeans is a deterministic Lloyd's iteration with k-means++ seeding.
func kMeans(vectors [][]float64, k int, seed int64, maxIter int) (*ClusterResult, error) {
	n := len(vectors)
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrBadClusterCount, k, n)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := initCentroids(vectors, k, rng)
	assignments := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		centroids = recomputeCentroids(vectors, assignments, centroids)

		if !changed && iter > 0 {
			break
		}
	}

	inertia := 0.0
	for i, v := range vectors {
		inertia += squaredDistance(v, centroids[assignments[i]])
	}

	return &ClusterResult{
		K:           k,
		Assignments: assignments,
		Centroids:   centroids,
		Inertia:     inertia,
	}, nil
}

// initCentroids is k-means++-style seeding: the first centroid is drawn
// uniformly, each later one proportionally to squared distance from the
// nearest centroid chosen so far.
func initCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := vectors[rng.Intn(len(vectors))]
	centroids = append(centroids, cloneVector(first))

	dists := make([]float64, len(vectors))
	for len(centroids) < k {
		total := 0.0
		for i, v := range vectors {
			d := squaredDistance(v, centroids[0])
			for _, c := range centroids[1:] {
				if dc := squaredDistance(v, c); dc < d {
					d = dc
				}
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; fall back to a
			// uniform draw so we still produce k centroids.
			centroids = append(centroids, cloneVector(vectors[rng.Intn(len(vectors))]))
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		picked := len(vectors) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				picked = i
				break
			}
		}
		centroids = append(centroids, cloneVector(vectors[picked]))
	}

	return centroids
}

func recomputeCentroids(vectors [][]float64, assignments []int, prev [][]float64) [][]float64 {
	k := len(prev)
	dim := len(prev[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for d := range v {
			sums[c][d] += v[d]
		}
	}

	next := make([][]float64, k)
	for c := range sums {
		if counts[c] == 0 {
			// Empty cluster keeps its previous centroid rather than
			// collapsing to the origin.
			next[c] = cloneVector(prev[c])
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
		next[c] = sums[c]
	}
	return next
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(v, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
