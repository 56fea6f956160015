package model

// ClusterStats are the per-cluster aggregates handed to the external
// interpreter. The engine computes membership and numbers only; naming and
// narrative belong to the collaborator behind the ClusterInterpreter boundary.
type ClusterStats struct {
	ClusterIndex int      `json:"clusterIndex" bson:"clusterIndex"`
	MemberCount  int      `json:"memberCount" bson:"memberCount"`
	MemberIDs    []string `json:"memberIds" bson:"memberIds"`

	// PerFieldMeans holds the mean encoded value per question id across
	// members. NaN/Inf inputs are filtered; an all-NaN field is omitted
	// entirely rather than surfaced as NaN.
	PerFieldMeans map[string]float64 `json:"perFieldMeans" bson:"perFieldMeans"`

	// DominantValueFlags marks fields whose cluster mean sits at an extreme:
	// "high" or "low".
	DominantValueFlags map[string]string `json:"dominantValueFlags" bson:"dominantValueFlags"`

	Centroid []float64 `json:"centroid,omitempty" bson:"centroid,omitempty"`
}

// NamedProfile is the interpreter's return value. The engine treats it as
// opaque and only checks that the required keys are present.
type NamedProfile struct {
	Name            string             `json:"name" bson:"name"`
	Characteristics map[string]string  `json:"characteristics" bson:"characteristics"`
	ValueSystem     map[string]float64 `json:"valueSystem" bson:"valueSystem"` // values in [0,1]
}

// SegmentProfile binds an interpreted profile to its cluster
type SegmentProfile struct {
	ClusterIndex int          `json:"clusterIndex" bson:"clusterIndex"`
	Profile      NamedProfile `json:"profile" bson:"profile"`
}
