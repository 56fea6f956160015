package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"personaforge/internal/model"
	"personaforge/internal/repository"
	"personaforge/internal/wrangle"
)

// ErrDatasetNotFound is returned when a dataset id resolves to nothing
var ErrDatasetNotFound = errors.New("dataset not found")

// ColumnAbbreviator is the semantic boundary for turning long concatenated
// headers into question ids.
type ColumnAbbreviator interface {
	AbbreviateColumns(ctx context.Context, longNames []string) ([]model.ColumnMapping, error)
}

// DatasetService orchestrates ingestion: wrangling a raw grid, abbreviating
// its column headers through the interpreter, and persisting the dataset
// with its respondents.
type DatasetService struct {
	datasets    repository.DatasetRepository
	respondents repository.RespondentRepository
	interpreter ColumnAbbreviator
	logger      *zap.Logger
}

// NewDatasetService creates a new dataset service
func NewDatasetService(
	datasets repository.DatasetRepository,
	respondents repository.RespondentRepository,
	interpreter ColumnAbbreviator,
	logger *zap.Logger,
) *DatasetService {
	return &DatasetService{
		datasets:    datasets,
		respondents: respondents,
		interpreter: interpreter,
		logger:      logger,
	}
}

// IngestRequest carries one raw grid upload
type IngestRequest struct {
	Name              string     `json:"name"`
	TargetDemographic string     `json:"targetDemographic,omitempty"`
	Description       string     `json:"description,omitempty"`
	Grid              [][]string `json:"grid"`
}

// Ingest wrangles a raw grid into a dataset. Header detection and column
// naming come from the wrangler; the interpreter abbreviates the long names
// into question ids, falling back to col_<n> when it cannot.
func (s *DatasetService) Ingest(ctx context.Context, req *IngestRequest) (*model.Dataset, error) {
	wrangled, err := wrangle.Wrangle(req.Grid)
	if err != nil {
		return nil, err
	}

	columns, err := s.interpreter.AbbreviateColumns(ctx, wrangled.LongNames)
	if err != nil {
		s.logger.Warn("column abbreviation failed, using positional fallback",
			zap.String("dataset", req.Name), zap.Error(err))
		columns = wrangle.FallbackMapping(wrangled.LongNames)
	}

	respondents := wrangle.ParseRespondents(req.Grid, wrangled.DataStartRow, columns)

	dataset := &model.Dataset{
		Name:              req.Name,
		TargetDemographic: req.TargetDemographic,
		Description:       req.Description,
		Status:            model.DatasetStatusReady,
		HeaderRows:        wrangled.HeaderRows,
		DataStartRow:      wrangled.DataStartRow,
		Columns:           columns,
		RespondentCount:   len(respondents),
	}
	if err := s.datasets.Create(ctx, dataset); err != nil {
		return nil, err
	}

	for _, r := range respondents {
		r.DatasetID = dataset.ID
	}
	if err := s.respondents.CreateMany(ctx, respondents); err != nil {
		return nil, err
	}

	s.logger.Info("dataset ingested",
		zap.String("datasetId", dataset.ID),
		zap.Int("columns", len(columns)),
		zap.Int("respondents", len(respondents)))

	return dataset, nil
}

// Get returns one dataset by id
func (s *DatasetService) Get(ctx context.Context, id string) (*model.Dataset, error) {
	dataset, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDatasetNotFound
	}
	return dataset, nil
}

// List returns all datasets, newest first
func (s *DatasetService) List(ctx context.Context) ([]*model.Dataset, error) {
	return s.datasets.List(ctx)
}

// Respondents returns all respondents of a dataset in grid row order
func (s *DatasetService) Respondents(ctx context.Context, datasetID string) ([]*model.Respondent, error) {
	if _, err := s.datasets.GetByID(ctx, datasetID); err != nil {
		return nil, ErrDatasetNotFound
	}
	return s.respondents.GetByDatasetID(ctx, datasetID)
}

// Delete removes a dataset and its respondents
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if _, err := s.datasets.GetByID(ctx, id); err != nil {
		return ErrDatasetNotFound
	}
	if err := s.respondents.DeleteByDatasetID(ctx, id); err != nil {
		return err
	}
	return s.datasets.Delete(ctx, id)
}
