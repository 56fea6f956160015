package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// AnswerKind discriminates the variant held by an Answer
type AnswerKind string

const (
	AnswerAbsent AnswerKind = "ABSENT" // question skipped or blank cell
	AnswerNumber AnswerKind = "NUMBER"
	AnswerText   AnswerKind = "TEXT"
	AnswerBool   AnswerKind = "BOOL"
)

// Answer is a tagged variant over the raw value types a survey cell can hold.
// Exactly one payload field is meaningful, selected by Kind.
type Answer struct {
	Kind   AnswerKind `json:"kind" bson:"kind"`
	Number float64    `json:"number,omitempty" bson:"number,omitempty"`
	Text   string     `json:"text,omitempty" bson:"text,omitempty"`
	Bool   bool       `json:"bool,omitempty" bson:"bool,omitempty"`
}

// NumberAnswer wraps a numeric answer
func NumberAnswer(v float64) Answer {
	return Answer{Kind: AnswerNumber, Number: v}
}

// TextAnswer wraps a free-text answer
func TextAnswer(s string) Answer {
	return Answer{Kind: AnswerText, Text: s}
}

// BoolAnswer wraps a boolean answer
func BoolAnswer(b bool) Answer {
	return Answer{Kind: AnswerBool, Bool: b}
}

// AbsentAnswer marks a skipped question
func AbsentAnswer() Answer {
	return Answer{Kind: AnswerAbsent}
}

// IsAbsent reports whether the answer carries no value
func (a Answer) IsAbsent() bool {
	return a.Kind == AnswerAbsent || a.Kind == ""
}

// MarshalJSON emits the raw scalar so answer maps read naturally on the wire
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNumber:
		return json.Marshal(a.Number)
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerBool:
		return json.Marshal(a.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON detects the variant from the raw JSON scalar
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = AbsentAnswer()
		return nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*a = BoolAnswer(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*a = NumberAnswer(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	if s == "" {
		*a = AbsentAnswer()
		return nil
	}
	*a = TextAnswer(s)
	return nil
}

// QA is a single question/answer pair. Respondents keep answers as an
// ordered slice, not a map, so encounter order survives storage round-trips.
type QA struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	Answer     Answer `json:"answer" bson:"answer"`
}

// Respondent is one survey participant. Immutable once loaded.
type Respondent struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	DatasetID string    `json:"datasetId" bson:"datasetId"`
	Row       int       `json:"row" bson:"row"` // original row in the source grid
	Answers   []QA      `json:"answers" bson:"answers"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Answer looks up an answer by question id. Returns an absent answer when
// the respondent was never asked the question.
func (r *Respondent) Answer(questionID string) (Answer, bool) {
	for _, qa := range r.Answers {
		if qa.QuestionID == questionID {
			return qa.Answer, !qa.Answer.IsAbsent()
		}
	}
	return AbsentAnswer(), false
}
