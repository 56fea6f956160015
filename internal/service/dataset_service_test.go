package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"personaforge/internal/wrangle"
)

func newTestDatasetService() (*DatasetService, *fakeDatasetRepo, *fakeRespondentRepo) {
	datasets := newFakeDatasetRepo()
	respondents := newFakeRespondentRepo()
	svc := NewDatasetService(datasets, respondents, offlineInterpreter(), zap.NewNop())
	return svc, datasets, respondents
}

func ingestGrid() [][]string {
	return [][]string{
		{"Values", "", "Habits"},
		{"Importance of sustainability", "Brand values", "Shopping frequency"},
		{"5", "4", "often"},
		{"2", "1", "rarely"},
		{"3", "", "sometimes"},
	}
}

func TestDatasetIngest(t *testing.T) {
	svc, _, respondents := newTestDatasetService()

	dataset, err := svc.Ingest(context.Background(), &IngestRequest{
		Name: "pilot",
		Grid: ingestGrid(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, dataset.ID)
	assert.Equal(t, 2, dataset.DataStartRow)
	assert.Equal(t, 3, dataset.RespondentCount)
	require.Len(t, dataset.Columns, 3)
	assert.Equal(t, "importance_of_sustainability", dataset.Columns[0].ShortName)
	assert.Equal(t, "Values | Importance of sustainability", dataset.Columns[0].LongName)

	stored, err := respondents.GetByDatasetID(context.Background(), dataset.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, r := range stored {
		assert.Equal(t, dataset.ID, r.DatasetID)
	}
}

func TestDatasetIngestEmptyGrid(t *testing.T) {
	svc, _, _ := newTestDatasetService()

	_, err := svc.Ingest(context.Background(), &IngestRequest{Name: "empty"})
	assert.ErrorIs(t, err, wrangle.ErrEmptyGrid)
}

func TestDatasetGetNotFound(t *testing.T) {
	svc, _, _ := newTestDatasetService()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDatasetDeleteRemovesRespondents(t *testing.T) {
	svc, _, respondents := newTestDatasetService()

	dataset, err := svc.Ingest(context.Background(), &IngestRequest{Name: "pilot", Grid: ingestGrid()})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), dataset.ID))

	_, err = svc.Get(context.Background(), dataset.ID)
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	count, err := respondents.CountByDatasetID(context.Background(), dataset.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
