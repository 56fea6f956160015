package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"personaforge/internal/cache"
	"personaforge/internal/model"
	"personaforge/internal/repository"
	"personaforge/internal/segmentation"
)

var (
	// ErrRunNotFound is returned when a run id resolves to nothing
	ErrRunNotFound = errors.New("classification run not found")

	// ErrUnknownStrategy is returned for a strategy outside the known set
	ErrUnknownStrategy = errors.New("unknown classification strategy")
)

// Run event types pushed over the broadcaster
const (
	EventRunStarted     = "run_started"
	EventRunProgress    = "run_progress"
	EventRunCompleted   = "run_completed"
	EventRunInterpreted = "run_interpreted"
	EventRunFailed      = "run_failed"
)

const interpretTimeout = 2 * time.Minute

// ClusterInterpreter is the semantic boundary for naming discovered
// clusters. The engine produces numbers; whoever implements this turns them
// into a narrative.
type ClusterInterpreter interface {
	NameClusterProfiles(ctx context.Context, statsList []model.ClusterStats) ([]model.SegmentProfile, error)
}

// SegmentationService orchestrates classification runs: it loads a
// dataset's respondents, drives the engine, persists the run, caches the
// results, and hands cluster aggregates to the interpreter in the
// background.
type SegmentationService struct {
	runs        repository.RunRepository
	respondents repository.RespondentRepository
	datasets    repository.DatasetRepository
	runCache    cache.RunCache
	profiles    cache.ProfileCache
	interpreter ClusterInterpreter
	engine      *segmentation.Engine
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewSegmentationService creates a new segmentation service
func NewSegmentationService(
	runs repository.RunRepository,
	respondents repository.RespondentRepository,
	datasets repository.DatasetRepository,
	runCache cache.RunCache,
	profiles cache.ProfileCache,
	interpreter ClusterInterpreter,
	logger *zap.Logger,
) *SegmentationService {
	return &SegmentationService{
		runs:        runs,
		respondents: respondents,
		datasets:    datasets,
		runCache:    runCache,
		profiles:    profiles,
		interpreter: interpreter,
		engine:      segmentation.NewEngine(),
		broadcaster: noopBroadcaster{},
		logger:      logger,
	}
}

// SetBroadcaster injects the WebSocket hub
func (s *SegmentationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RunRequest starts one classification of a dataset
type RunRequest struct {
	DatasetID string            `json:"datasetId"`
	Strategy  model.RunStrategy `json:"strategy"`
	K         int               `json:"k,omitempty"`    // 0 = elbow selection
	Seed      int64             `json:"seed,omitempty"` // 0 = default seed
}

const defaultSeed = 42

// StartRun executes a classification run to completion and persists it.
// The engine is in-memory and fast, so the run itself is synchronous;
// cluster profile interpretation continues in the background afterward.
func (s *SegmentationService) StartRun(ctx context.Context, req *RunRequest) (*model.ClassificationRun, error) {
	if _, err := s.datasets.GetByID(ctx, req.DatasetID); err != nil {
		return nil, ErrDatasetNotFound
	}
	if req.Strategy != model.StrategyWeighted && req.Strategy != model.StrategyCluster {
		return nil, ErrUnknownStrategy
	}

	respondents, err := s.respondents.GetByDatasetID(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	// The run document exists before the engine touches it, so watchers get
	// the started event and an id to subscribe on ahead of completion.
	run := &model.ClassificationRun{
		DatasetID: req.DatasetID,
		Strategy:  req.Strategy,
		Seed:      seed,
		Status:    model.RunStatusRunning,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastRunEvent(run.ID, EventRunStarted, map[string]interface{}{
		"runId":     run.ID,
		"datasetId": run.DatasetID,
		"strategy":  run.Strategy,
	})
	s.publishProgress(ctx, run.ID, "classifying", 0, len(respondents))

	var output *segmentation.RunOutput
	switch req.Strategy {
	case model.StrategyWeighted:
		output, err = s.engine.Classify(respondents, segmentation.DefaultClassifierConfig())
	case model.StrategyCluster:
		opts := segmentation.ClusterOptions{K: req.K, Seed: seed}
		output, err = s.engine.Discover(respondents, opts, segmentation.DefaultPropensityConfig())
	}
	if err != nil {
		s.failRun(ctx, run.ID, err)
		return nil, err
	}

	run.Status = model.RunStatusReady
	if req.Strategy == model.StrategyCluster {
		run.Status = model.RunStatusInterpreting
	}
	run.Results = output.Results
	run.SegmentCounts = output.SegmentCounts
	run.ClusterStats = output.ClusterStats

	if err := s.runs.Update(ctx, run); err != nil {
		return nil, err
	}

	s.publishProgress(ctx, run.ID, "classified", len(run.Results), len(run.Results))

	if err := s.runCache.SetResults(ctx, run.ID, run.Results); err != nil {
		s.logger.Warn("result cache write failed", zap.String("runId", run.ID), zap.Error(err))
	}
	if err := s.runCache.SetLatestRunID(ctx, run.DatasetID, run.ID); err != nil {
		s.logger.Warn("latest-run cache write failed", zap.String("runId", run.ID), zap.Error(err))
	}

	s.broadcaster.BroadcastRunEvent(run.ID, EventRunCompleted, map[string]interface{}{
		"runId":         run.ID,
		"segmentCounts": run.SegmentCounts,
	})

	s.logger.Info("classification run completed",
		zap.String("runId", run.ID),
		zap.String("strategy", string(run.Strategy)),
		zap.Int("respondents", len(run.Results)))

	if req.Strategy == model.StrategyCluster {
		go s.interpretClusters(run.ID, run.ClusterStats)
	}

	return run, nil
}

// failRun marks a persisted run failed and tells its watchers. The run
// document stays behind with the failed status so listings show what
// happened.
func (s *SegmentationService) failRun(ctx context.Context, runID string, cause error) {
	if err := s.runs.UpdateStatus(ctx, runID, model.RunStatusFailed); err != nil {
		s.logger.Error("run status update failed", zap.String("runId", runID), zap.Error(err))
	}
	s.broadcaster.BroadcastRunEvent(runID, EventRunFailed, map[string]interface{}{
		"runId": runID,
		"error": cause.Error(),
	})
	s.logger.Warn("classification run failed", zap.String("runId", runID), zap.Error(cause))
}

// interpretClusters names discovered clusters in the background. Profile
// failure never fails the run: the results stay valid, only the narrative
// is missing.
func (s *SegmentationService) interpretClusters(runID string, statsList []model.ClusterStats) {
	ctx, cancel := context.WithTimeout(context.Background(), interpretTimeout)
	defer cancel()

	profiles, err := s.interpreter.NameClusterProfiles(ctx, statsList)
	if err != nil {
		s.logger.Warn("cluster interpretation failed", zap.String("runId", runID), zap.Error(err))
		if err := s.runs.UpdateStatus(ctx, runID, model.RunStatusReady); err != nil {
			s.logger.Error("run status update failed", zap.String("runId", runID), zap.Error(err))
		}
		return
	}

	if err := s.runs.SetProfiles(ctx, runID, profiles); err != nil {
		s.logger.Error("profile persist failed", zap.String("runId", runID), zap.Error(err))
		return
	}
	if err := s.profiles.SetProfiles(ctx, runID, profiles); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("runId", runID), zap.Error(err))
	}

	s.broadcaster.BroadcastRunEvent(runID, EventRunInterpreted, map[string]interface{}{
		"runId":    runID,
		"profiles": profiles,
	})
}

// GetRun returns one run by id, including its results
func (s *SegmentationService) GetRun(ctx context.Context, id string) (*model.ClassificationRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// LatestRun returns a dataset's most recent run, cache first. The store
// keeps runs newest first, so a cache miss falls back to the head of the
// listing.
func (s *SegmentationService) LatestRun(ctx context.Context, datasetID string) (*model.ClassificationRun, error) {
	runID, err := s.runCache.GetLatestRunID(ctx, datasetID)
	if err != nil {
		s.logger.Warn("latest-run cache read failed", zap.String("datasetId", datasetID), zap.Error(err))
	}
	if runID != "" {
		if run, err := s.runs.GetByID(ctx, runID); err == nil {
			return run, nil
		}
	}

	runs, err := s.runs.ListByDatasetID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

// ListRuns returns a dataset's runs without their result payloads
func (s *SegmentationService) ListRuns(ctx context.Context, datasetID string) ([]*model.ClassificationRun, error) {
	return s.runs.ListByDatasetID(ctx, datasetID)
}

// Results returns a run's per-respondent results, cache first
func (s *SegmentationService) Results(ctx context.Context, runID string) ([]model.ClassificationResult, error) {
	cached, err := s.runCache.GetResults(ctx, runID)
	if err != nil {
		s.logger.Warn("result cache read failed", zap.String("runId", runID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	if err := s.runCache.SetResults(ctx, runID, run.Results); err != nil {
		s.logger.Warn("result cache write failed", zap.String("runId", runID), zap.Error(err))
	}
	return run.Results, nil
}

// Profiles returns a run's interpreted segment profiles, cache first.
// Returns nil without error while interpretation is still in flight.
func (s *SegmentationService) Profiles(ctx context.Context, runID string) ([]model.SegmentProfile, error) {
	cached, err := s.profiles.GetProfiles(ctx, runID)
	if err != nil {
		s.logger.Warn("profile cache read failed", zap.String("runId", runID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return run.Profiles, nil
}

// DeleteRun removes a run and invalidates its cache entries
func (s *SegmentationService) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return ErrRunNotFound
	}
	if err := s.runCache.Invalidate(ctx, runID); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("runId", runID), zap.Error(err))
	}
	return s.runs.Delete(ctx, runID)
}

func (s *SegmentationService) publishProgress(ctx context.Context, runID, stage string, processed, total int) {
	progress := &model.RunProgress{
		RunID:     runID,
		Stage:     stage,
		Processed: processed,
		Total:     total,
	}
	if err := s.runCache.SetProgress(ctx, runID, progress); err != nil {
		s.logger.Warn("progress cache write failed", zap.String("runId", runID), zap.Error(err))
	}
	s.broadcaster.BroadcastRunEvent(runID, EventRunProgress, progress)
}
