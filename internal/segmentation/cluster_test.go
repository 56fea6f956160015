package segmentation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobVectors builds n vectors split between two well-separated regions.
func twoBlobVectors(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float64, n)
	for i := range vectors {
		v := make([]float64, VectorDim)
		base := 0.1
		if i%2 == 1 {
			base = 0.9
		}
		for d := 0; d < 10; d++ {
			v[d] = base + rng.Float64()*0.05
		}
		vectors[i] = v
	}
	return vectors
}

func TestDiscoverClustersEmptyInput(t *testing.T) {
	_, err := DiscoverClusters(nil, ClusterOptions{K: 3, Seed: 42})
	assert.ErrorIs(t, err, ErrNoVectors)
}

func TestDiscoverClustersKExceedsPopulation(t *testing.T) {
	vectors := twoBlobVectors(4, 1)
	_, err := DiscoverClusters(vectors, ClusterOptions{K: 10, Seed: 42})
	assert.ErrorIs(t, err, ErrBadClusterCount)
}

func TestDiscoverClustersRespectsSuppliedK(t *testing.T) {
	vectors := twoBlobVectors(60, 1)
	res, err := DiscoverClusters(vectors, ClusterOptions{K: 5, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 5, res.K)
	assert.Len(t, res.Centroids, 5)
	assert.Len(t, res.Assignments, 60)
}

func TestDiscoverClustersDeterministic(t *testing.T) {
	vectors := twoBlobVectors(80, 7)

	first, err := DiscoverClusters(vectors, ClusterOptions{Seed: 42})
	require.NoError(t, err)
	second, err := DiscoverClusters(vectors, ClusterOptions{Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, first.K, second.K)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Centroids, second.Centroids)
	assert.Equal(t, first.Inertia, second.Inertia)
}

func TestDiscoverClustersAutoKWithinBounds(t *testing.T) {
	vectors := twoBlobVectors(120, 3)
	res, err := DiscoverClusters(vectors, ClusterOptions{Seed: 42})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.K, autoKFinalMin)
	assert.LessOrEqual(t, res.K, autoKFinalMax)
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	vectors := twoBlobVectors(40, 5)
	res, err := kMeans(vectors, 2, 42, defaultMaxIterations)
	require.NoError(t, err)

	// All even-index vectors share one cluster, all odd share the other.
	evenCluster := res.Assignments[0]
	oddCluster := res.Assignments[1]
	assert.NotEqual(t, evenCluster, oddCluster)
	for i, c := range res.Assignments {
		if i%2 == 0 {
			assert.Equal(t, evenCluster, c, "vector %d", i)
		} else {
			assert.Equal(t, oddCluster, c, "vector %d", i)
		}
	}
}

func TestKMeansInertiaDecreasesWithK(t *testing.T) {
	vectors := twoBlobVectors(100, 11)

	oneK, err := kMeans(vectors, 1, 42, defaultMaxIterations)
	require.NoError(t, err)
	twoK, err := kMeans(vectors, 2, 42, defaultMaxIterations)
	require.NoError(t, err)

	assert.Less(t, twoK.Inertia, oneK.Inertia)
	assert.GreaterOrEqual(t, twoK.Inertia, 0.0)
}
