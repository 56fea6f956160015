package wrangle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personaforge/internal/model"
	"personaforge/internal/segmentation"
)

func sampleGrid() [][]string {
	return [][]string{
		{"Demographics", "", "Shopping Habits", "", ""},
		{"Age", "Region", "How often do you buy organic?", "Importance of sustainability", "Budget"},
		{"34", "North", "often", "Very important", "120"},
		{"29", "South", "rarely", "Not important", "80"},
		{"41", "", "sometimes", "Neutral", "95.5"},
	}
}

func TestWrangleSampleGrid(t *testing.T) {
	res, err := Wrangle(sampleGrid())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, res.HeaderRows)
	assert.Equal(t, 2, res.DataStartRow)
	require.Len(t, res.LongNames, 5)

	assert.Equal(t, "Demographics | Age", res.LongNames[0])
	assert.Equal(t, "Demographics | Region", res.LongNames[1])
	assert.Equal(t, "Shopping Habits | How often do you buy organic?", res.LongNames[2])
	// Forward fill carries "Shopping Habits" across its merged span.
	assert.Equal(t, "Shopping Habits | Importance of sustainability", res.LongNames[3])
}

func TestWrangleEmptyGrid(t *testing.T) {
	_, err := Wrangle(nil)
	assert.ErrorIs(t, err, ErrEmptyGrid)

	_, err = Wrangle([][]string{{}})
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestDetectHeaderRowsFallback(t *testing.T) {
	// All-text grid: no clear data row, default to two header rows.
	grid := [][]string{
		{"a", "b"},
		{"c", "d"},
		{"e", "f"},
	}
	headerRows, dataStart := DetectHeaderRows(grid)
	assert.Equal(t, []int{0, 1}, headerRows)
	assert.Equal(t, 2, dataStart)
}

func TestForwardFill(t *testing.T) {
	in := []string{"", "Brand", "", "", "Price", ""}
	assert.Equal(t, []string{"", "Brand", "Brand", "Brand", "Price", "Price"}, ForwardFill(in))
}

func TestConcatenateHeadersDeduplicates(t *testing.T) {
	filled := [][]string{
		{"Survey", "Survey"},
		{"Survey", "Q2"},
	}
	names := ConcatenateHeaders(filled)
	require.Len(t, names, 2)
	assert.Equal(t, "Survey", names[0])
	assert.Equal(t, "Survey | Q2", names[1])
}

func TestConcatenateHeadersStopsAtRightmostFilled(t *testing.T) {
	filled := [][]string{
		{"A", "B", "", ""},
	}
	// ForwardFill has not been applied here on purpose: trailing blanks
	// bound the mapping.
	names := ConcatenateHeaders(filled)
	assert.Len(t, names, 2)
}

func TestFallbackMapping(t *testing.T) {
	mapping := FallbackMapping([]string{"Long A", "Long B"})
	require.Len(t, mapping, 2)
	assert.Equal(t, "col_0", mapping[0].ShortName)
	assert.Equal(t, "Long B", mapping[1].LongName)
	assert.Equal(t, 1, mapping[1].Column)
}

func TestParseRespondents(t *testing.T) {
	grid := sampleGrid()
	res, err := Wrangle(grid)
	require.NoError(t, err)

	mapping := FallbackMapping(res.LongNames)
	respondents := ParseRespondents(grid, res.DataStartRow, mapping)
	require.Len(t, respondents, 3)

	first := respondents[0]
	assert.Equal(t, 2, first.Row)
	require.Len(t, first.Answers, 5)

	age, ok := first.Answer("col_0")
	require.True(t, ok)
	assert.Equal(t, model.AnswerNumber, age.Kind)
	assert.Equal(t, 34.0, age.Number)

	organic, ok := first.Answer("col_2")
	require.True(t, ok)
	assert.Equal(t, model.AnswerText, organic.Kind)

	// Blank cell lands as an absent answer, not empty text.
	region, ok := respondents[2].Answer("col_1")
	assert.False(t, ok)
	assert.True(t, region.IsAbsent())
}

func TestParseCellTyping(t *testing.T) {
	assert.Equal(t, model.AnswerBool, parseCell("TRUE").Kind)
	assert.Equal(t, model.AnswerBool, parseCell("false").Kind)
	assert.Equal(t, model.AnswerNumber, parseCell("3.5").Kind)
	assert.Equal(t, model.AnswerText, parseCell("strongly agree").Kind)
	assert.True(t, parseCell("").IsAbsent())
}

func TestParseCellRejectsNonFiniteNumbers(t *testing.T) {
	// strconv.ParseFloat accepts all of these, but none is a usable score.
	for _, cell := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "Infinity"} {
		assert.Equal(t, model.AnswerText, parseCell(cell).Kind, "cell %q", cell)
	}
}

func TestClassifyGridWithNonFiniteCells(t *testing.T) {
	grid := [][]string{
		{"NaN", "4"},
		{"3", "2"},
	}
	mapping := []model.ColumnMapping{
		{Column: 0, LongName: "A", ShortName: "qa"},
		{Column: 1, LongName: "B", ShortName: "qb"},
	}

	respondents := ParseRespondents(grid, 0, mapping)
	require.Len(t, respondents, 2)

	cfg := segmentation.ClassifierConfig{
		Variables: []model.ClassificationVariable{
			{Name: "a", QuestionID: "qa", Weight: 1},
			{Name: "b", QuestionID: "qb", Weight: 1},
		},
		Bands: []model.SegmentBand{
			{Name: "Top", CutPercent: 50},
			{Name: "Rest", CutPercent: 100},
		},
		Propensity: segmentation.DefaultPropensityConfig(),
	}
	results, err := segmentation.ClassifyWeighted(respondents, cfg)
	require.NoError(t, err)

	for _, res := range results {
		require.False(t, math.IsNaN(res.CompositeScore), "row %d", res.Row)
		assert.GreaterOrEqual(t, res.CompositeScore, segmentation.ScaleMin)
		assert.LessOrEqual(t, res.CompositeScore, segmentation.ScaleMax)
	}

	// The NaN cell scores neutral, so the first row composites to
	// (3+4)/2 = 3.5 and ranks ahead of (3+2)/2 = 2.5 on merit, not
	// because a NaN stuck to the top of the sort.
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 0, results[0].Row)
	assert.InDelta(t, 3.5, results[0].CompositeScore, 1e-9)
}

func TestParseRespondentsSkipsBlankRows(t *testing.T) {
	grid := [][]string{
		{"H1", "H2"},
		{"Q1", "Q2"},
		{"1", "2"},
		{"", ""},
	}
	res, err := Wrangle(grid)
	require.NoError(t, err)
	respondents := ParseRespondents(grid, res.DataStartRow, FallbackMapping(res.LongNames))
	assert.Len(t, respondents, 1)
}
