package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"personaforge/internal/model"
	"personaforge/internal/segmentation"
)

func eventIndex(events []string, event string) int {
	for i, e := range events {
		if e == event {
			return i
		}
	}
	return -1
}

type segmentationFixture struct {
	svc         *SegmentationService
	runs        *fakeRunRepo
	runCache    *fakeRunCache
	broadcaster *recordingBroadcaster
	datasetID   string
}

func newSegmentationFixture(t *testing.T, respondentCount int) *segmentationFixture {
	t.Helper()

	datasets := newFakeDatasetRepo()
	respondents := newFakeRespondentRepo()
	runs := newFakeRunRepo()
	runCache := newFakeRunCache()
	profiles := newFakeProfileCache()
	broadcaster := &recordingBroadcaster{}

	svc := NewSegmentationService(runs, respondents, datasets, runCache, profiles, offlineInterpreter(), zap.NewNop())
	svc.SetBroadcaster(broadcaster)

	dataset := &model.Dataset{Name: "fixture", Status: model.DatasetStatusReady}
	require.NoError(t, datasets.Create(context.Background(), dataset))

	rng := rand.New(rand.NewSource(17))
	batch := make([]*model.Respondent, respondentCount)
	for i := range batch {
		batch[i] = &model.Respondent{
			ID:        fmt.Sprintf("resp%d", i),
			DatasetID: dataset.ID,
			Row:       i + 2,
			Answers: []model.QA{
				{QuestionID: "sustainability_importance", Answer: model.NumberAnswer(float64(1 + rng.Intn(5)))},
				{QuestionID: "sustainable_purchase", Answer: model.NumberAnswer(float64(1 + rng.Intn(5)))},
				{QuestionID: "premium_willingness", Answer: model.NumberAnswer(float64(1 + rng.Intn(5)))},
			},
		}
	}
	require.NoError(t, respondents.CreateMany(context.Background(), batch))

	return &segmentationFixture{
		svc:         svc,
		runs:        runs,
		runCache:    runCache,
		broadcaster: broadcaster,
		datasetID:   dataset.ID,
	}
}

func TestStartRunWeighted(t *testing.T) {
	fx := newSegmentationFixture(t, 40)

	run, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyWeighted,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.StrategyWeighted, run.Strategy)
	assert.Equal(t, model.RunStatusReady, run.Status)
	assert.Len(t, run.Results, 40)
	assert.Empty(t, run.ClusterStats)

	// Results land in the cache as part of the run
	cached, err := fx.runCache.GetResults(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, cached, 40)

	// Watchers see the lifecycle in order, not a started/completed pair
	// fired back to back after the fact
	events := fx.broadcaster.seen()
	started := eventIndex(events, EventRunStarted)
	progress := eventIndex(events, EventRunProgress)
	completed := eventIndex(events, EventRunCompleted)
	require.GreaterOrEqual(t, started, 0)
	assert.Greater(t, progress, started)
	assert.Greater(t, completed, progress)
}

func TestStartRunEngineFailureMarksRunFailed(t *testing.T) {
	fx := newSegmentationFixture(t, 0)

	_, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyWeighted,
	})
	assert.ErrorIs(t, err, segmentation.ErrNoRespondents)

	// The run document stays behind, marked failed
	runs, err := fx.svc.ListRuns(context.Background(), fx.datasetID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)

	events := fx.broadcaster.seen()
	assert.Contains(t, events, EventRunStarted)
	assert.Contains(t, events, EventRunFailed)
	assert.NotContains(t, events, EventRunCompleted)
}

func TestStartRunCluster(t *testing.T) {
	fx := newSegmentationFixture(t, 60)

	run, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyCluster,
		K:         3,
		Seed:      7,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StrategyCluster, run.Strategy)
	assert.Equal(t, int64(7), run.Seed)
	assert.Len(t, run.ClusterStats, 3)

	// Interpretation runs in the background and lands on the stored run
	require.Eventually(t, func() bool {
		return fx.runs.status(run.ID) == model.RunStatusInterpreted
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := fx.svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, stored.Profiles, 3)
	for i, p := range stored.Profiles {
		assert.Equal(t, i, p.ClusterIndex)
		assert.NotEmpty(t, p.Profile.Name)
	}
}

func TestStartRunUnknownDataset(t *testing.T) {
	fx := newSegmentationFixture(t, 10)

	_, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: "missing",
		Strategy:  model.StrategyWeighted,
	})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestStartRunUnknownStrategy(t *testing.T) {
	fx := newSegmentationFixture(t, 10)

	_, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.RunStrategy("RANDOM"),
	})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestResultsCacheMiss(t *testing.T) {
	fx := newSegmentationFixture(t, 20)

	run, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyWeighted,
	})
	require.NoError(t, err)

	// Simulate cache eviction; the read must repopulate from the store
	require.NoError(t, fx.runCache.Invalidate(context.Background(), run.ID))

	results, err := fx.svc.Results(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, results, 20)

	cached, err := fx.runCache.GetResults(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, cached, 20)
}

func TestLatestRun(t *testing.T) {
	fx := newSegmentationFixture(t, 25)

	_, err := fx.svc.LatestRun(context.Background(), fx.datasetID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	run, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyWeighted,
	})
	require.NoError(t, err)

	latest, err := fx.svc.LatestRun(context.Background(), fx.datasetID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
}

func TestDeleteRun(t *testing.T) {
	fx := newSegmentationFixture(t, 15)

	run, err := fx.svc.StartRun(context.Background(), &RunRequest{
		DatasetID: fx.datasetID,
		Strategy:  model.StrategyWeighted,
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteRun(context.Background(), run.ID))

	_, err = fx.svc.GetRun(context.Background(), run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, fx.svc.DeleteRun(context.Background(), run.ID), ErrRunNotFound)
}
