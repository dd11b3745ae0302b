// Package prompt renders extraction results and a question into the text sent
// to the analysis model.
package prompt

import (
	"strconv"
	"strings"

	"docintake/internal/domain"
)

const (
	intro   = "I'm going to provide you with text extracted from a document. I'd like you to answer a question about this document.\n\n"
	closing = "Please provide a thoughtful, comprehensive analysis based on the document content."
)

// Compose builds the analysis prompt. Output depends only on its arguments.
func Compose(question string, result domain.ExtractionResult) string {
	var b strings.Builder

	b.WriteString(intro)
	b.WriteString("Document text:\n")
	b.WriteString(result.Text)
	b.WriteString("\n\n")

	if len(result.Tables) > 0 {
		b.WriteString("\nTables from the document:\n")
		for i, table := range result.Tables {
			b.WriteString("Table ")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(":\n")
			for _, row := range table {
				b.WriteString(strings.Join(row, " | "))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if len(result.KeyValuePairs) > 0 {
		b.WriteString("\nKey-value pairs from the document:\n")
		for _, kv := range result.KeyValuePairs {
			b.WriteString(kv.Key)
			b.WriteString(": ")
			b.WriteString(kv.Value)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(closing)

	return b.String()
}
