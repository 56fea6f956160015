package model

import "time"

// ClassificationVariable is one named, weighted input to the composite score.
// Variables reference answers by question id, never by position, so catalogue
// reordering cannot change results.
type ClassificationVariable struct {
	Name       string  `json:"name" bson:"name"`
	QuestionID string  `json:"questionId" bson:"questionId"`
	Weight     float64 `json:"weight" bson:"weight"` // positive real
	Invert     bool    `json:"invert,omitempty" bson:"invert,omitempty"`
}

// KeyCriterion is one qualifying threshold on a named variable. A band is
// satisfied when ANY of its criteria pass.
type KeyCriterion struct {
	Variable string  `json:"variable" bson:"variable"`
	MinScore float64 `json:"minScore" bson:"minScore"`
}

// SegmentBand is one percentile slice of the ranked population, highest
// engagement first. CutPercent is the cumulative upper cut point (e.g. 12.5
// means "top 12.5%"). The lowest band must have CutPercent 100 and carries no
// criteria.
type SegmentBand struct {
	Name         string         `json:"name" bson:"name"`
	CutPercent   float64        `json:"cutPercent" bson:"cutPercent"`
	MinComposite float64        `json:"minComposite,omitempty" bson:"minComposite,omitempty"`
	KeyCriteria  []KeyCriterion `json:"keyCriteria,omitempty" bson:"keyCriteria,omitempty"`
}

// BehaviorPhrase appends a fixed phrase to the reasoning string whenever the
// named variable's normalized score reaches MinScore.
type BehaviorPhrase struct {
	Variable string  `json:"variable" bson:"variable"`
	MinScore float64 `json:"minScore" bson:"minScore"`
	Phrase   string  `json:"phrase" bson:"phrase"`
}

// ClassificationResult is the per-respondent output of one run. Written once,
// never mutated; a re-run produces a fresh result set.
type ClassificationResult struct {
	RespondentID       string  `json:"respondentId" bson:"respondentId"`
	Row                int     `json:"row" bson:"row"`
	Rank               int     `json:"rank" bson:"rank"` // 1-based position in the ranking
	CompositeScore     float64 `json:"compositeScore" bson:"compositeScore"`         // [1,5]
	PercentileRank     float64 `json:"percentileRank" bson:"percentileRank"`         // (0,100]
	Segment            string  `json:"segment" bson:"segment"`                       // band name or cluster label
	ClusterIndex       int     `json:"clusterIndex" bson:"clusterIndex"`             // -1 on the weighted path
	PropensityScore    float64 `json:"propensityScore" bson:"propensityScore"`       // one of 1..5
	PropensityCategory string  `json:"propensityCategory" bson:"propensityCategory"` // Very Low .. Very High
	Reasoning          string  `json:"reasoning" bson:"reasoning"`
}

// RunStrategy selects the classification path
type RunStrategy string

const (
	StrategyWeighted RunStrategy = "WEIGHTED" // fixed catalogue + percentile bands
	StrategyCluster  RunStrategy = "CLUSTER"  // unsupervised k-means discovery
)

// RunStatus tracks a run from creation through async interpretation
type RunStatus string

const (
	RunStatusRunning      RunStatus = "running"
	RunStatusReady        RunStatus = "ready"
	RunStatusInterpreting RunStatus = "interpreting"
	RunStatusInterpreted  RunStatus = "interpreted"
	RunStatusFailed       RunStatus = "failed"
)

// RunProgress is the live progress of an executing run, published to the
// cache and over WebSocket while the run is in flight.
type RunProgress struct {
	RunID     string    `json:"runId"`
	Stage     string    `json:"stage"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClassificationRun is one persisted classification of a dataset
type ClassificationRun struct {
	ID            string                 `json:"id" bson:"_id,omitempty"`
	DatasetID     string                 `json:"datasetId" bson:"datasetId"`
	Strategy      RunStrategy            `json:"strategy" bson:"strategy"`
	Seed          int64                  `json:"seed" bson:"seed"`
	Status        RunStatus              `json:"status" bson:"status"`
	Results       []ClassificationResult `json:"results" bson:"results"`
	SegmentCounts map[string]int         `json:"segmentCounts" bson:"segmentCounts"`
	ClusterStats  []ClusterStats         `json:"clusterStats,omitempty" bson:"clusterStats,omitempty"`
	Profiles      []SegmentProfile       `json:"profiles,omitempty" bson:"profiles,omitempty"`
	CreatedAt     time.Time              `json:"createdAt" bson:"createdAt"`
}
