// Package wrangle turns a raw survey grid (header rows on top, one
// respondent per data row) into a column mapping and respondent records.
// It is pure: abbreviating long column names into short question ids is the
// external semantic collaborator's job, with col_<n> fallbacks here.
package wrangle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"personaforge/internal/model"
)

// ErrEmptyGrid is returned when there is nothing to wrangle.
var ErrEmptyGrid = errors.New("wrangle: empty grid")

// Header detection thresholds: a row that is mostly filled and meaningfully
// numeric is the first data row.
const (
	maxHeaderScan       = 10
	numericRatioCutoff  = 0.3
	emptyRatioCutoff    = 0.5
	defaultDataStartRow = 2
)

// Result is the outcome of wrangling one grid.
type Result struct {
	HeaderRows   []int
	DataStartRow int
	LongNames    []string // forward-filled " | " concatenations, per column
}

// Wrangle detects header rows, forward-fills them, and concatenates them
// into long column names up to the rightmost filled column.
func Wrangle(grid [][]string) (*Result, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, ErrEmptyGrid
	}

	headerRows, dataStart := DetectHeaderRows(grid)

	filled := make([][]string, 0, len(headerRows))
	for _, rowIdx := range headerRows {
		if rowIdx >= len(grid) {
			continue
		}
		filled = append(filled, ForwardFill(grid[rowIdx]))
	}

	return &Result{
		HeaderRows:   headerRows,
		DataStartRow: dataStart,
		LongNames:    ConcatenateHeaders(filled),
	}, nil
}

// DetectHeaderRows scans the first rows for the data boundary: headers are
// texty and sparse, data rows are dense and numeric. Falls back to two
// header rows when no clear data row appears.
func DetectHeaderRows(grid [][]string) ([]int, int) {
	dataStart := -1

	limit := len(grid)
	if limit > maxHeaderScan {
		limit = maxHeaderScan
	}

	for rowIdx := 0; rowIdx < limit; rowIdx++ {
		row := grid[rowIdx]
		if len(row) == 0 {
			continue
		}

		empty := 0
		numeric := 0
		for _, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				empty++
				continue
			}
			if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
				numeric++
			}
		}

		emptyRatio := float64(empty) / float64(len(row))
		numericRatio := float64(numeric) / float64(len(row))
		if numericRatio > numericRatioCutoff && emptyRatio < emptyRatioCutoff {
			dataStart = rowIdx
			break
		}
	}

	if dataStart < 0 {
		dataStart = defaultDataStartRow
	}

	headerRows := make([]int, dataStart)
	for i := range headerRows {
		headerRows[i] = i
	}
	return headerRows, dataStart
}

// ForwardFill propagates non-empty header cells to the right, so merged
// spreadsheet cells that only survive in the first column spread across
// their span.
func ForwardFill(row []string) []string {
	filled := make([]string, len(row))
	last := ""
	for i, cell := range row {
		trimmed := strings.TrimSpace(cell)
		if trimmed != "" {
			last = trimmed
		}
		filled[i] = last
	}
	return filled
}

// ConcatenateHeaders joins each column's header parts top to bottom with
// " | ", de-duplicated in order, out to the rightmost filled column.
// Columns with no header at all get a Column_<n> placeholder.
func ConcatenateHeaders(filled [][]string) []string {
	rightmost := -1
	for _, row := range filled {
		for col := len(row) - 1; col >= 0; col-- {
			if strings.TrimSpace(row[col]) != "" {
				if col > rightmost {
					rightmost = col
				}
				break
			}
		}
	}

	longNames := make([]string, 0, rightmost+1)
	for col := 0; col <= rightmost; col++ {
		seen := map[string]bool{}
		parts := []string{}
		for _, row := range filled {
			if col >= len(row) {
				continue
			}
			part := strings.TrimSpace(row[col])
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			parts = append(parts, part)
		}

		if len(parts) == 0 {
			longNames = append(longNames, fmt.Sprintf("Column_%d", col))
			continue
		}
		longNames = append(longNames, strings.Join(parts, " | "))
	}

	return longNames
}

// FallbackMapping builds a column mapping with col_<n> short names, used
// when the abbreviation collaborator is unavailable or returns a partial
// result.
func FallbackMapping(longNames []string) []model.ColumnMapping {
	mapping := make([]model.ColumnMapping, len(longNames))
	for i, long := range longNames {
		mapping[i] = model.ColumnMapping{
			Column:    i,
			LongName:  long,
			ShortName: fmt.Sprintf("col_%d", i),
		}
	}
	return mapping
}

// ParseRespondents converts the data rows of a grid into respondents using
// the column mapping's short names as question ids. Cells are typed by
// detection: blank is absent, parseable numbers are numeric, true/false are
// boolean, everything else stays text.
func ParseRespondents(grid [][]string, dataStart int, columns []model.ColumnMapping) []*model.Respondent {
	byColumn := make(map[int]string, len(columns))
	for _, c := range columns {
		byColumn[c.Column] = c.ShortName
	}

	respondents := make([]*model.Respondent, 0, len(grid))
	for rowIdx := dataStart; rowIdx < len(grid); rowIdx++ {
		row := grid[rowIdx]
		answers := make([]model.QA, 0, len(columns))
		populated := false

		for col := 0; col < len(columns); col++ {
			questionID, ok := byColumn[col]
			if !ok {
				continue
			}

			var cell string
			if col < len(row) {
				cell = strings.TrimSpace(row[col])
			}

			answer := parseCell(cell)
			if !answer.IsAbsent() {
				populated = true
			}
			answers = append(answers, model.QA{QuestionID: questionID, Answer: answer})
		}

		if !populated {
			continue // fully blank trailing rows are not respondents
		}
		respondents = append(respondents, &model.Respondent{Row: rowIdx, Answers: answers})
	}

	return respondents
}

func parseCell(cell string) model.Answer {
	if cell == "" {
		return model.AbsentAnswer()
	}
	// ParseFloat accepts literal "NaN"/"Inf" strings, which spreadsheet
	// exports sometimes emit. Those are not survey numbers; keep them text
	// so scoring treats them as unrecognized.
	if n, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return model.NumberAnswer(n)
	}
	switch strings.ToLower(cell) {
	case "true":
		return model.BoolAnswer(true)
	case "false":
		return model.BoolAnswer(false)
	}
	return model.TextAnswer(cell)
}
