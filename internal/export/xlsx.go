package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docintake/internal/domain"
)

const (
	textSheet    = "Text"
	kvSheet      = "Key-Value Pairs"
	historySheet = "History"
)

// Workbook is the material exported to Excel.
type Workbook struct {
	DocumentName string
	Result       *domain.ExtractionResult
	History      []domain.AnalysisTurn
}

// WriteWorkbook builds an .xlsx file: the extracted text, one sheet per
// table, the key-value pairs and the question history.
func WriteWorkbook(wb Workbook) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", textSheet); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}

	writeRow(f, textSheet, 1, "Document", wb.DocumentName)
	if wb.Result != nil {
		for i, line := range strings.Split(wb.Result.Text, "\n") {
			writeRow(f, textSheet, i+3, line)
		}
	}
	_ = f.SetColWidth(textSheet, "A", "A", 100)

	if wb.Result != nil {
		for n, table := range wb.Result.Tables {
			sheet := fmt.Sprintf("Table %d", n+1)
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("xlsx new sheet: %w", err)
			}
			for r, row := range table {
				cells := make([]any, len(row))
				for c, v := range row {
					cells[c] = v
				}
				writeRow(f, sheet, r+1, cells...)
			}
		}

		if len(wb.Result.KeyValuePairs) > 0 {
			if _, err := f.NewSheet(kvSheet); err != nil {
				return nil, fmt.Errorf("xlsx new sheet: %w", err)
			}
			writeRow(f, kvSheet, 1, "Key", "Value")
			for i, kv := range wb.Result.KeyValuePairs {
				writeRow(f, kvSheet, i+2, kv.Key, kv.Value)
			}
			_ = f.SetColWidth(kvSheet, "A", "A", 28)
			_ = f.SetColWidth(kvSheet, "B", "B", 48)
		}
	}

	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("xlsx new sheet: %w", err)
	}
	header := make([]any, len(historyColumns))
	for i, h := range historyColumns {
		header[i] = h
	}
	writeRow(f, historySheet, 1, header...)
	for i := range wb.History {
		row := turnToRow(&wb.History[i])
		cells := make([]any, len(row))
		for c, v := range row {
			cells[c] = v
		}
		writeRow(f, historySheet, i+2, cells...)
	}
	_ = f.SetColWidth(historySheet, "A", "B", 22)
	_ = f.SetColWidth(historySheet, "C", "D", 60)

	textIndex, _ := f.GetSheetIndex(textSheet)
	f.SetActiveSheet(textIndex)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
