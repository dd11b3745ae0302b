package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/service"
	"docintake/mocks"
)

func TestDocumentService_Process(t *testing.T) {
	files := new(mocks.MockFileService)
	extractor := new(mocks.MockDocumentExtractor)
	svc := service.NewDocumentService(files, extractor, new(mocks.MockDocumentAnalyzer))

	creds := domain.ExtractionCredentials{Endpoint: "https://azure", Key: "k"}
	doc := &domain.Document{Name: "a.pdf", ContentType: "application/pdf", Data: pdfContent()}
	files.On("Intake", mock.Anything, mock.MatchedBy(func(in service.FileUploadInput) bool {
		return in.Filename == "a.pdf" && !in.Archive
	})).Return(doc, nil)
	want := &domain.ExtractionResult{Text: "hello", Tables: []domain.Table{}, KeyValuePairs: []domain.KeyValuePair{}}
	extractor.On("Extract", mock.Anything, port.ExtractInput{
		FileBytes:   doc.Data,
		ContentType: "application/pdf",
		Credentials: creds,
	}).Return(want, nil)

	got, err := svc.Process(context.Background(), service.ProcessInput{
		Filename:    "a.pdf",
		File:        bytes.NewReader(pdfContent()),
		Credentials: creds,
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDocumentService_Process_IntakeRejected(t *testing.T) {
	files := new(mocks.MockFileService)
	extractor := new(mocks.MockDocumentExtractor)
	svc := service.NewDocumentService(files, extractor, new(mocks.MockDocumentAnalyzer))
	files.On("Intake", mock.Anything, mock.Anything).Return(nil, domain.ErrUnsupportedFileType)

	_, err := svc.Process(context.Background(), service.ProcessInput{Filename: "x.txt"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestDocumentService_Process_ExtractionError(t *testing.T) {
	files := new(mocks.MockFileService)
	extractor := new(mocks.MockDocumentExtractor)
	svc := service.NewDocumentService(files, extractor, new(mocks.MockDocumentAnalyzer))
	files.On("Intake", mock.Anything, mock.Anything).Return(&domain.Document{Name: "a.pdf"}, nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, domain.ErrJobFailed)

	_, err := svc.Process(context.Background(), service.ProcessInput{Filename: "a.pdf"})

	assert.ErrorIs(t, err, domain.ErrJobFailed)
}

func TestDocumentService_Analyze(t *testing.T) {
	analyzer := new(mocks.MockDocumentAnalyzer)
	svc := service.NewDocumentService(new(mocks.MockFileService), new(mocks.MockDocumentExtractor), analyzer)

	analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(in port.AnalyzeInput) bool {
		return in.APIKey == "sk" &&
			strings.Contains(in.Prompt, "Document text:\nTotal 42") &&
			strings.Contains(in.Prompt, "Question: What is the total?")
	})).Return(&port.AnalyzeOutput{Text: "42", ModelUsed: "claude"}, nil)

	out, err := svc.Analyze(context.Background(), service.AnalyzeInput{
		Question: "  What is the total?  ",
		Result:   domain.ExtractionResult{Text: "Total 42"},
		APIKey:   "sk",
	})

	require.NoError(t, err)
	assert.Equal(t, "42", out.Text)
}

func TestDocumentService_Analyze_Validation(t *testing.T) {
	analyzer := new(mocks.MockDocumentAnalyzer)
	svc := service.NewDocumentService(new(mocks.MockFileService), new(mocks.MockDocumentExtractor), analyzer)

	_, err := svc.Analyze(context.Background(), service.AnalyzeInput{Question: " ", Result: domain.ExtractionResult{Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Analyze(context.Background(), service.AnalyzeInput{Question: "why?"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}
