package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/prompt"
)

// ProcessInput is the DTO for one-shot extraction requests.
type ProcessInput struct {
	Filename    string
	Size        int64
	File        io.Reader
	Credentials domain.ExtractionCredentials
}

// AnalyzeInput is the DTO for one-shot analysis requests.
type AnalyzeInput struct {
	Question string
	Result   domain.ExtractionResult
	APIKey   string
}

// DocumentService runs extraction and analysis without a session.
type DocumentService interface {
	Process(ctx context.Context, input ProcessInput) (*domain.ExtractionResult, error)
	Analyze(ctx context.Context, input AnalyzeInput) (*port.AnalyzeOutput, error)
}

type documentService struct {
	files     FileService
	extractor port.DocumentExtractor
	analyzer  port.DocumentAnalyzer
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(files FileService, extractor port.DocumentExtractor, analyzer port.DocumentAnalyzer) DocumentService {
	return &documentService{
		files:     files,
		extractor: extractor,
		analyzer:  analyzer,
	}
}

func (s *documentService) Process(ctx context.Context, input ProcessInput) (*domain.ExtractionResult, error) {
	doc, err := s.files.Intake(ctx, FileUploadInput{
		Filename: input.Filename,
		Size:     input.Size,
		File:     input.File,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("documentService.Process: extracting %s (%d bytes)", doc.Name, doc.Size)
	result, err := s.extractor.Extract(ctx, port.ExtractInput{
		FileBytes:   doc.Data,
		ContentType: doc.ContentType,
		Credentials: input.Credentials,
	})
	if err != nil {
		log.Printf("documentService.Process: extraction failed for %s: %v", doc.Name, err)
		return nil, err
	}
	return result, nil
}

func (s *documentService) Analyze(ctx context.Context, input AnalyzeInput) (*port.AnalyzeOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if input.Result.Text == "" {
		return nil, fmt.Errorf("%w: document text is required", domain.ErrValidation)
	}

	out, err := s.analyzer.Analyze(ctx, port.AnalyzeInput{
		Prompt: prompt.Compose(question, input.Result),
		APIKey: input.APIKey,
	})
	if err != nil {
		log.Printf("documentService.Analyze: analysis failed: %v", err)
		return nil, err
	}
	return out, nil
}
