package extraction_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/extraction"
)

func TestNormalize_JoinsLinesAcrossPages(t *testing.T) {
	raw := &extraction.RawResult{
		Pages: []extraction.RawPage{
			{Lines: []extraction.RawLine{{Content: "Invoice"}, {Content: "ACME Corp"}}},
			{Lines: []extraction.RawLine{{Content: "Page two"}}},
		},
	}

	result := extraction.Normalize(raw)

	assert.Equal(t, "Invoice\nACME Corp\nPage two", result.Text)
	assert.Empty(t, result.Tables)
	assert.Empty(t, result.KeyValuePairs)
}

func TestNormalize_TableIsRectangular(t *testing.T) {
	raw := &extraction.RawResult{
		Tables: []extraction.RawTable{
			{Cells: []extraction.RawCell{
				{RowIndex: 0, ColumnIndex: 0, Content: "Item"},
				{RowIndex: 0, ColumnIndex: 2, Content: "Price"},
				{RowIndex: 2, ColumnIndex: 1, Content: "x"},
			}},
		},
	}

	result := extraction.Normalize(raw)

	require.Len(t, result.Tables, 1)
	table := result.Tables[0]
	require.Len(t, table, 3)
	for _, row := range table {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, domain.Table{
		{"Item", "", "Price"},
		{"", "", ""},
		{"", "x", ""},
	}, table)
}

func TestNormalize_DropsEmptyTablesAndNegativeIndices(t *testing.T) {
	raw := &extraction.RawResult{
		Tables: []extraction.RawTable{
			{Cells: nil},
			{Cells: []extraction.RawCell{{RowIndex: -1, ColumnIndex: 0, Content: "bad"}}},
			{Cells: []extraction.RawCell{
				{RowIndex: 0, ColumnIndex: 0, Content: "ok"},
				{RowIndex: 0, ColumnIndex: -3, Content: "ignored"},
			}},
		},
	}

	result := extraction.Normalize(raw)

	require.Len(t, result.Tables, 1)
	assert.Equal(t, domain.Table{{"ok"}}, result.Tables[0])
}

func TestNormalize_KeyValueFiltering(t *testing.T) {
	raw := &extraction.RawResult{
		KeyValuePairs: []extraction.RawKeyValuePair{
			{Key: &extraction.RawElement{Content: "Invoice Number"}, Value: &extraction.RawElement{Content: "INV-1"}},
			{Key: &extraction.RawElement{Content: "Orphan key"}},
			{Value: &extraction.RawElement{Content: "orphan value"}},
			{Key: &extraction.RawElement{Content: "Notes"}, Value: &extraction.RawElement{Content: ""}},
		},
	}

	result := extraction.Normalize(raw)

	assert.Equal(t, []domain.KeyValuePair{
		{Key: "Invoice Number", Value: "INV-1"},
		{Key: "Notes", Value: ""},
	}, result.KeyValuePairs)
}

func TestNormalize_DecodesServicePayload(t *testing.T) {
	payload := `{
		"pages": [{"pageNumber": 1, "lines": [{"content": "Total"}, {"content": "$10"}]}],
		"tables": [{"rowCount": 1, "columnCount": 2, "cells": [
			{"rowIndex": 0, "columnIndex": 0, "content": "A"},
			{"rowIndex": 0, "columnIndex": 1, "content": "B"}
		]}],
		"keyValuePairs": [{"key": {"content": "Total"}, "value": {"content": "$10"}}, {"key": {"content": "Lonely"}}]
	}`

	var raw extraction.RawResult
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	result := extraction.Normalize(&raw)

	assert.Equal(t, "Total\n$10", result.Text)
	assert.Equal(t, []domain.Table{{{"A", "B"}}}, result.Tables)
	assert.Equal(t, []domain.KeyValuePair{{Key: "Total", Value: "$10"}}, result.KeyValuePairs)
}

func TestNormalize_Nil(t *testing.T) {
	result := extraction.Normalize(nil)
	require.NotNil(t, result)
	assert.Equal(t, "", result.Text)
	assert.NotNil(t, result.Tables)
	assert.NotNil(t, result.KeyValuePairs)
}
