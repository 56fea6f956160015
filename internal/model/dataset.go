package model

import "time"

// ColumnMapping records how one raw grid column became a question id.
// LongName is the pure forward-filled concatenation of the header rows;
// ShortName is the abbreviated question id used everywhere downstream.
type ColumnMapping struct {
	Column    int    `json:"column" bson:"column"`
	LongName  string `json:"longName" bson:"longName"`
	ShortName string `json:"shortName" bson:"shortName"`
}

// DatasetStatus tracks ingestion progress
type DatasetStatus string

const (
	DatasetStatusUploaded DatasetStatus = "uploaded"
	DatasetStatusWrangled DatasetStatus = "wrangled"
	DatasetStatusReady    DatasetStatus = "ready"
)

// Dataset is one uploaded survey grid after wrangling
type Dataset struct {
	ID                string          `json:"id" bson:"_id,omitempty"`
	Name              string          `json:"name" bson:"name"`
	TargetDemographic string          `json:"targetDemographic,omitempty" bson:"targetDemographic,omitempty"`
	Description       string          `json:"description,omitempty" bson:"description,omitempty"`
	Status            DatasetStatus   `json:"status" bson:"status"`
	HeaderRows        []int           `json:"headerRows" bson:"headerRows"`
	DataStartRow      int             `json:"dataStartRow" bson:"dataStartRow"`
	Columns           []ColumnMapping `json:"columns" bson:"columns"`
	RespondentCount   int             `json:"respondentCount" bson:"respondentCount"`
	CreatedAt         time.Time       `json:"createdAt" bson:"createdAt"`
}

// QuestionID returns the short name for a column, or "" when out of range
func (d *Dataset) QuestionID(column int) string {
	for _, c := range d.Columns {
		if c.Column == column {
			return c.ShortName
		}
	}
	return ""
}
