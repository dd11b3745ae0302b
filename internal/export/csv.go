// Package export renders a session's results as CSV or an Excel workbook.
package export

import (
	"encoding/csv"
	"io"
	"time"

	"docintake/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// historyColumns defines the CSV header row.
var historyColumns = []string{
	"Asked At",
	"Document Name",
	"Question",
	"Answer",
	"Model",
}

// Writer wraps csv.Writer for exporting question history as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(historyColumns)
}

// WriteTurns writes one row per answered question.
func (w *Writer) WriteTurns(turns []domain.AnalysisTurn) error {
	for i := range turns {
		if err := w.csv.Write(turnToRow(&turns[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteHistoryCSV writes a BOM, the header and all turns to out.
func WriteHistoryCSV(out io.Writer, turns []domain.AnalysisTurn) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteTurns(turns); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func turnToRow(t *domain.AnalysisTurn) []string {
	return []string{
		formatTime(t.AskedAt),
		t.DocumentName,
		t.Question,
		t.Answer,
		t.Model,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
