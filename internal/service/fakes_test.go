package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"personaforge/internal/model"
)

var errFakeNotFound = errors.New("not found")

type fakeDatasetRepo struct {
	mu       sync.Mutex
	datasets map[string]*model.Dataset
	nextID   int
}

func newFakeDatasetRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{datasets: make(map[string]*model.Dataset)}
}

func (f *fakeDatasetRepo) Create(ctx context.Context, dataset *model.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dataset.ID == "" {
		f.nextID++
		dataset.ID = fmt.Sprintf("ds%d", f.nextID)
	}
	f.datasets[dataset.ID] = dataset
	return nil
}

func (f *fakeDatasetRepo) GetByID(ctx context.Context, id string) (*model.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, ok := f.datasets[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return ds, nil
}

func (f *fakeDatasetRepo) List(ctx context.Context) ([]*model.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Dataset, 0, len(f.datasets))
	for _, ds := range f.datasets {
		out = append(out, ds)
	}
	return out, nil
}

func (f *fakeDatasetRepo) Update(ctx context.Context, dataset *model.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.datasets[dataset.ID] = dataset
	return nil
}

func (f *fakeDatasetRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.datasets, id)
	return nil
}

type fakeRespondentRepo struct {
	mu        sync.Mutex
	byDataset map[string][]*model.Respondent
	nextID    int
}

func newFakeRespondentRepo() *fakeRespondentRepo {
	return &fakeRespondentRepo{byDataset: make(map[string][]*model.Respondent)}
}

func (f *fakeRespondentRepo) CreateMany(ctx context.Context, respondents []*model.Respondent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range respondents {
		if r.ID == "" {
			f.nextID++
			r.ID = fmt.Sprintf("r%d", f.nextID)
		}
		f.byDataset[r.DatasetID] = append(f.byDataset[r.DatasetID], r)
	}
	return nil
}

func (f *fakeRespondentRepo) GetByDatasetID(ctx context.Context, datasetID string) ([]*model.Respondent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byDataset[datasetID], nil
}

func (f *fakeRespondentRepo) CountByDatasetID(ctx context.Context, datasetID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byDataset[datasetID])), nil
}

func (f *fakeRespondentRepo) DeleteByDatasetID(ctx context.Context, datasetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byDataset, datasetID)
	return nil
}

type fakeRunRepo struct {
	mu     sync.Mutex
	runs   map[string]*model.ClassificationRun
	nextID int
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]*model.ClassificationRun)}
}

func (f *fakeRunRepo) Create(ctx context.Context, run *model.ClassificationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		f.nextID++
		run.ID = fmt.Sprintf("run%d", f.nextID)
	}
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, id string) (*model.ClassificationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return run, nil
}

func (f *fakeRunRepo) ListByDatasetID(ctx context.Context, datasetID string) ([]*model.ClassificationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ClassificationRun
	for _, run := range f.runs {
		if run.DatasetID == datasetID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) Update(ctx context.Context, run *model.ClassificationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[run.ID]; !ok {
		return errFakeNotFound
	}
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) UpdateStatus(ctx context.Context, id string, status model.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return errFakeNotFound
	}
	run.Status = status
	return nil
}

func (f *fakeRunRepo) SetProfiles(ctx context.Context, id string, profiles []model.SegmentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return errFakeNotFound
	}
	run.Profiles = profiles
	run.Status = model.RunStatusInterpreted
	return nil
}

func (f *fakeRunRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, id)
	return nil
}

func (f *fakeRunRepo) status(id string) model.RunStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.runs[id]; ok {
		return run.Status
	}
	return ""
}

type fakeRunCache struct {
	mu       sync.Mutex
	results  map[string][]model.ClassificationResult
	progress map[string]*model.RunProgress
	latest   map[string]string
}

func newFakeRunCache() *fakeRunCache {
	return &fakeRunCache{
		results:  make(map[string][]model.ClassificationResult),
		progress: make(map[string]*model.RunProgress),
		latest:   make(map[string]string),
	}
}

func (f *fakeRunCache) GetResults(ctx context.Context, runID string) ([]model.ClassificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[runID], nil
}

func (f *fakeRunCache) SetResults(ctx context.Context, runID string, results []model.ClassificationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[runID] = results
	return nil
}

func (f *fakeRunCache) GetProgress(ctx context.Context, runID string) (*model.RunProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress[runID], nil
}

func (f *fakeRunCache) SetProgress(ctx context.Context, runID string, progress *model.RunProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress[runID] = progress
	return nil
}

func (f *fakeRunCache) GetLatestRunID(ctx context.Context, datasetID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[datasetID], nil
}

func (f *fakeRunCache) SetLatestRunID(ctx context.Context, datasetID, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[datasetID] = runID
	return nil
}

func (f *fakeRunCache) Invalidate(ctx context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, runID)
	delete(f.progress, runID)
	return nil
}

type fakeProfileCache struct {
	mu       sync.Mutex
	profiles map[string][]model.SegmentProfile
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{profiles: make(map[string][]model.SegmentProfile)}
}

func (f *fakeProfileCache) GetProfiles(ctx context.Context, runID string) ([]model.SegmentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[runID], nil
}

func (f *fakeProfileCache) SetProfiles(ctx context.Context, runID string, profiles []model.SegmentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[runID] = profiles
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) BroadcastRunEvent(runID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msgType)
}

func (b *recordingBroadcaster) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}
