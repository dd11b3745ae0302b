package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/port"
)

// FileUploadInput is the DTO for document uploads.
type FileUploadInput struct {
	SessionID uuid.UUID
	Filename  string
	Size      int64
	File      io.Reader
	Archive   bool
}

// FileService validates uploaded documents and optionally archives them.
type FileService interface {
	Intake(ctx context.Context, input FileUploadInput) (*domain.Document, error)
	GetDownloadURL(ctx context.Context, doc *domain.Document) (string, error)
	Discard(ctx context.Context, doc *domain.Document)
}

type fileService struct {
	archive port.DocumentArchive // nil when archiving is disabled
	cfg     *config.S3Config
	now     func() time.Time
}

// NewFileService creates a new FileService implementation. archive may be nil.
func NewFileService(archive port.DocumentArchive, cfg *config.S3Config) FileService {
	return &fileService{
		archive: archive,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *fileService) Intake(ctx context.Context, input FileUploadInput) (*domain.Document, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate declared size, then enforce it while reading
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	reader := input.File
	if maxBytes > 0 {
		reader = io.LimitReader(input.File, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrValidation)
	}

	// Magic-byte content type detection must agree with the extension
	detected := detectContentType(data)
	detectedType, validContent := domain.AllowedContentTypes[detected]
	if !validContent || detectedType != fileType {
		return nil, domain.ErrUnsupportedFileType
	}
	contentType := domain.AllowedFileTypes[fileType]

	sum := sha256.Sum256(data)
	doc := &domain.Document{
		ID:          uuid.New(),
		Name:        filepath.Base(input.Filename),
		ContentType: contentType,
		Data:        data,
		Size:        int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
		PageCount:   pdfPageCount(data, fileType),
		UploadedAt:  s.now().UTC(),
	}

	log.Printf("fileService.Intake: accepted %s (%s, %d bytes, %d pages) for session %s",
		doc.Name, contentType, doc.Size, doc.PageCount, input.SessionID)

	if s.archive == nil || !input.Archive {
		return doc, nil
	}

	key := fmt.Sprintf("sessions/%s/documents/%s/%s", input.SessionID, doc.ID, doc.Name)
	err = s.archive.Put(ctx, port.ArchivedDocument{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        doc.Size,
		SHA256:      doc.SHA256,
	})
	if err != nil {
		log.Printf("fileService.Intake: archive failed for document %s: %v", doc.ID, err)
		return nil, domain.ErrUploadFailed
	}
	doc.ArchiveKey = key

	return doc, nil
}

func (s *fileService) GetDownloadURL(ctx context.Context, doc *domain.Document) (string, error) {
	if s.archive == nil || doc == nil || doc.ArchiveKey == "" {
		return "", nil
	}
	return s.archive.PresignGet(ctx, doc.ArchiveKey, time.Duration(s.cfg.PresignExpiry)*time.Second)
}

// Discard removes a document's archived copy. Failures are logged only.
func (s *fileService) Discard(ctx context.Context, doc *domain.Document) {
	if s.archive == nil || doc == nil || doc.ArchiveKey == "" {
		return
	}
	if err := s.archive.Remove(ctx, doc.ArchiveKey); err != nil {
		log.Printf("fileService.Discard: failed to remove %s from archive: %v", doc.ArchiveKey, err)
	}
}

// detectContentType sniffs the payload. TIFF is not covered by the standard
// sniffing table, so its byte-order marks are checked directly.
func detectContentType(data []byte) string {
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return "image/tiff"
	}
	return http.DetectContentType(data)
}

func pdfPageCount(data []byte, fileType domain.FileType) int {
	if fileType != domain.FileTypePDF {
		return 0
	}
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		log.Printf("fileService.Intake: failed to read PDF page count: %v", err)
		return 0
	}
	return count
}
