package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// Compatibility error strings returned by the sessionless endpoints.
const (
	errNoDocumentUploaded   = "No document file uploaded"
	errAzureCredentials     = "Azure credentials are required"
	errClaudeKey            = "Claude API key is required"
	errDocumentTextRequired = "Document text is required"
	errProcessFailed        = "Failed to process document"
	errAnalyzeFailed        = "Failed to analyze with Claude"
)

// DocumentHandler serves the sessionless extract and analyze endpoints. They
// keep bare response bodies instead of the API envelope.
type DocumentHandler struct {
	documentService service.DocumentService
	// serverCredentials allows requests without credential headers when the
	// server has its own defaults or runs in demo mode.
	serverCredentials bool
	// analysisProvider names the configured analyzer. The Claude key header
	// is only forwarded when it is "claude".
	analysisProvider string
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService, serverCredentials bool, analysisProvider string) *DocumentHandler {
	return &DocumentHandler{
		documentService:   documentService,
		serverCredentials: serverCredentials,
		analysisProvider:  analysisProvider,
	}
}

// ProcessDocument handles POST /api/process-document
// @Summary Extract a document
// @Description Extract text, tables and key-value pairs from an uploaded document without a session
// @Tags compatibility
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "Document (PDF, JPG, PNG, TIFF or BMP)"
// @Param X-Azure-Endpoint header string false "Azure Document Intelligence endpoint"
// @Param X-Azure-Key header string false "Azure Document Intelligence key"
// @Success 200 {object} domain.ExtractionResult "Extraction result"
// @Failure 400 {object} CompatErrorBody "Missing document or credentials"
// @Failure 500 {object} CompatErrorBody "Extraction failed"
// @Router /api/process-document [post]
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoDocumentUploaded})
		return
	}
	defer func() { _ = file.Close() }()

	creds := domain.ExtractionCredentials{
		Endpoint: c.GetHeader("X-Azure-Endpoint"),
		Key:      c.GetHeader("X-Azure-Key"),
	}
	if (creds.Endpoint == "" || creds.Key == "") && !h.serverCredentials {
		c.JSON(http.StatusBadRequest, gin.H{"error": errAzureCredentials})
		return
	}

	result, err := h.documentService.Process(c.Request.Context(), service.ProcessInput{
		Filename:    header.Filename,
		Size:        header.Size,
		File:        file,
		Credentials: creds,
	})
	if err != nil {
		status, _, msg := MapDomainError(err)
		if status >= http.StatusInternalServerError {
			log.Printf("documentHandler.ProcessDocument: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errProcessFailed})
			return
		}
		if errors.Is(err, domain.ErrConfiguration) {
			msg = errAzureCredentials
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeRequest is the body of POST /api/analyze-with-claude.
type AnalyzeRequest struct {
	Question              string                `json:"question" example:"What is the invoice total?"`
	DocumentText          string                `json:"documentText" example:"INVOICE #INV-2023-0042"`
	DocumentTables        []domain.Table        `json:"documentTables"`
	DocumentKeyValuePairs []domain.KeyValuePair `json:"documentKeyValuePairs"`
}

// AnalyzeWithClaude handles POST /api/analyze-with-claude
// @Summary Answer a question about extracted content
// @Description Compose a prompt from extraction output and a question and return the model's answer
// @Tags compatibility
// @Accept json
// @Produce json
// @Param X-Claude-Api-Key header string false "Anthropic API key, ignored unless the server analyzes with Claude"
// @Param request body AnalyzeRequest true "Question and extraction output"
// @Success 200 {object} CompatAnalysisBody "Model answer"
// @Failure 400 {object} CompatErrorBody "Missing key, text or question"
// @Failure 500 {object} CompatErrorBody "Analysis failed"
// @Router /api/analyze-with-claude [post]
func (h *DocumentHandler) AnalyzeWithClaude(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var apiKey string
	if h.analysisProvider == "claude" {
		apiKey = c.GetHeader("X-Claude-Api-Key")
		if apiKey == "" && !h.serverCredentials {
			c.JSON(http.StatusBadRequest, gin.H{"error": errClaudeKey})
			return
		}
	}
	if req.DocumentText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errDocumentTextRequired})
		return
	}

	out, err := h.documentService.Analyze(c.Request.Context(), service.AnalyzeInput{
		Question: req.Question,
		Result: domain.ExtractionResult{
			Text:          req.DocumentText,
			Tables:        req.DocumentTables,
			KeyValuePairs: req.DocumentKeyValuePairs,
		},
		APIKey: apiKey,
	})
	if err != nil {
		var status int
		var msg string
		switch {
		case errors.Is(err, domain.ErrConfiguration):
			status, msg = http.StatusBadRequest, errClaudeKey
		case errors.Is(err, domain.ErrValidation):
			status, _, msg = MapDomainError(err)
		default:
			log.Printf("documentHandler.AnalyzeWithClaude: %v", err)
			status, msg = http.StatusInternalServerError, errAnalyzeFailed
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": out.Text})
}
