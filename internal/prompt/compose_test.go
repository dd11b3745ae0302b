package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docintake/internal/domain"
	"docintake/internal/prompt"
)

func TestCompose_FullDocumentOrdering(t *testing.T) {
	result := domain.ExtractionResult{
		Text:          "Invoice INV-1",
		Tables:        []domain.Table{{{"A", "B"}, {"1", "2"}}},
		KeyValuePairs: []domain.KeyValuePair{{Key: "Total", Value: "10"}},
	}

	got := prompt.Compose("What is the total?", result)

	want := "I'm going to provide you with text extracted from a document. I'd like you to answer a question about this document.\n\n" +
		"Document text:\nInvoice INV-1\n\n" +
		"\nTables from the document:\nTable 1:\nA | B\n1 | 2\n\n" +
		"\nKey-value pairs from the document:\nTotal: 10\n" +
		"\nQuestion: What is the total?\n\n" +
		"Please provide a thoughtful, comprehensive analysis based on the document content."
	assert.Equal(t, want, got)

	iText := strings.Index(got, "Invoice INV-1")
	iTables := strings.Index(got, "Tables from the document:")
	iRow := strings.Index(got, "A | B")
	iKV := strings.Index(got, "Total: 10")
	iQ := strings.Index(got, "Question: What is the total?")
	assert.True(t, iText < iTables && iTables < iRow && iRow < iKV && iKV < iQ)
}

func TestCompose_OmitsEmptySections(t *testing.T) {
	got := prompt.Compose("Who signed?", domain.ExtractionResult{Text: "Signed by Jane"})

	assert.NotContains(t, got, "Tables from the document:")
	assert.NotContains(t, got, "Key-value pairs from the document:")
	assert.Contains(t, got, "Document text:\nSigned by Jane\n")
	assert.True(t, strings.HasSuffix(got, "Question: Who signed?\n\nPlease provide a thoughtful, comprehensive analysis based on the document content."))
}

func TestCompose_SectionPresence(t *testing.T) {
	tablesOnly := prompt.Compose("q", domain.ExtractionResult{Text: "t", Tables: []domain.Table{{{"x"}}}})
	assert.Contains(t, tablesOnly, "Tables from the document:")
	assert.NotContains(t, tablesOnly, "Key-value pairs from the document:")

	kvOnly := prompt.Compose("q", domain.ExtractionResult{Text: "t", KeyValuePairs: []domain.KeyValuePair{{Key: "k", Value: "v"}}})
	assert.NotContains(t, kvOnly, "Tables from the document:")
	assert.Contains(t, kvOnly, "Key-value pairs from the document:\nk: v\n")
}

func TestCompose_NumbersTablesFromOne(t *testing.T) {
	got := prompt.Compose("q", domain.ExtractionResult{
		Text:   "t",
		Tables: []domain.Table{{{"a"}}, {{"b", ""}}},
	})

	assert.Contains(t, got, "Table 1:\na\n\n")
	assert.Contains(t, got, "Table 2:\nb | \n\n")
}

func TestCompose_Deterministic(t *testing.T) {
	result := domain.ExtractionResult{
		Text:          "line one\nline two",
		Tables:        []domain.Table{{{"h1", "h2"}}},
		KeyValuePairs: []domain.KeyValuePair{{Key: "a", Value: "b"}, {Key: "c", Value: "d"}},
	}

	first := prompt.Compose("same question", result)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, prompt.Compose("same question", result))
	}
}
