package extraction

import (
	"strings"

	"docintake/internal/domain"
)

// RawResult is the analyzeResult object returned by the extraction service.
type RawResult struct {
	Pages         []RawPage         `json:"pages"`
	Tables        []RawTable        `json:"tables"`
	KeyValuePairs []RawKeyValuePair `json:"keyValuePairs"`
}

// RawPage holds the recognized lines of one page.
type RawPage struct {
	PageNumber int       `json:"pageNumber"`
	Lines      []RawLine `json:"lines"`
}

// RawLine is one recognized line of text.
type RawLine struct {
	Content string `json:"content"`
}

// RawTable is a table as a sparse list of cells.
type RawTable struct {
	RowCount    int       `json:"rowCount"`
	ColumnCount int       `json:"columnCount"`
	Cells       []RawCell `json:"cells"`
}

// RawCell is one table cell addressed by zero-based indices.
type RawCell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

// RawKeyValuePair is a detected field. Key or Value is nil when the service
// recognized only one side.
type RawKeyValuePair struct {
	Key   *RawElement `json:"key"`
	Value *RawElement `json:"value"`
}

// RawElement is a content-bearing element of a key-value pair.
type RawElement struct {
	Content string `json:"content"`
}

// Normalize projects a raw service result onto the canonical extraction shape.
func Normalize(raw *RawResult) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		Tables:        []domain.Table{},
		KeyValuePairs: []domain.KeyValuePair{},
	}
	if raw == nil {
		return result
	}

	var lines []string
	for _, page := range raw.Pages {
		for _, line := range page.Lines {
			lines = append(lines, line.Content)
		}
	}
	result.Text = strings.Join(lines, "\n")

	for _, t := range raw.Tables {
		if grid, ok := buildGrid(t.Cells); ok {
			result.Tables = append(result.Tables, grid)
		}
	}

	for _, kv := range raw.KeyValuePairs {
		if kv.Key == nil || kv.Value == nil {
			continue
		}
		result.KeyValuePairs = append(result.KeyValuePairs, domain.KeyValuePair{
			Key:   kv.Key.Content,
			Value: kv.Value.Content,
		})
	}

	return result
}

// buildGrid sizes the table by the largest row and column index seen. Cells
// with negative indices are ignored; a table with no usable cells is dropped.
func buildGrid(cells []RawCell) (domain.Table, bool) {
	rows, cols := 0, 0
	for _, c := range cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			continue
		}
		rows = max(rows, c.RowIndex+1)
		cols = max(cols, c.ColumnIndex+1)
	}
	if rows == 0 || cols == 0 {
		return nil, false
	}

	grid := make(domain.Table, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			continue
		}
		grid[c.RowIndex][c.ColumnIndex] = c.Content
	}
	return grid, true
}
