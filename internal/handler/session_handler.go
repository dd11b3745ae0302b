package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintake/internal/domain"
	"docintake/internal/middleware"
	"docintake/internal/service"
)

// SessionHandler handles the workflow session endpoints.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionID returns the session authenticated by middleware.SessionAuth.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.GetSessionID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing session context")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/sessions
// @Summary Create a session
// @Description Create a workflow session, optionally seeded from a stored settings profile. The returned token authorizes all other calls on the session.
// @Tags sessions
// @Accept json
// @Produce json
// @Param X-Profile-Key header string false "Access key of the settings profile"
// @Param request body CreateSessionRequest false "Settings profile and credential overrides"
// @Success 201 {object} Response{data=service.CreatedSession} "Session created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Profile access key missing"
// @Failure 403 {object} ErrorResponseBody "Profile access key rejected"
// @Failure 404 {object} ErrorResponseBody "Settings profile not found"
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	input := service.CreateSessionInput{Profile: req.Profile, ProfileKey: c.GetHeader(ProfileKeyHeader)}
	if req.Config != nil {
		cfg := req.Config.toDomain()
		input.Config = &cfg
	}

	created, err := h.sessionService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, created)
}

// Get handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Description Snapshot of the session's document, extraction result, latest answer and flags
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=session.Snapshot} "Session snapshot"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Security BearerAuth
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Delete handles DELETE /api/v1/sessions/:id
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} MessageResponse "Session deleted"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Security BearerAuth
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "session deleted"})
}

// Configure handles PUT /api/v1/sessions/:id/config
// @Summary Configure a session
// @Description Set the extraction endpoint and API keys. Omitted fields keep their current value.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ConfigRequest true "Credentials"
// @Success 200 {object} Response{data=session.Snapshot} "Updated snapshot"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/config [put]
func (h *SessionHandler) Configure(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	snap, err := h.sessionService.Configure(c.Request.Context(), id, req.toDomain())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// SelectDocument handles POST /api/v1/sessions/:id/document
// @Summary Select a document
// @Description Upload the document to work on. Replaces any previous document and clears its results.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param document formData file true "Document (PDF, JPG, PNG, TIFF or BMP)"
// @Success 200 {object} Response{data=session.Snapshot} "Document selected"
// @Failure 400 {object} ErrorResponseBody "Missing or unsupported document"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/document [post]
func (h *SessionHandler) SelectDocument(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "document field is required")
		return
	}
	defer func() { _ = file.Close() }()

	snap, err := h.sessionService.SelectDocument(c.Request.Context(), id, service.FileUploadInput{
		Filename: header.Filename,
		Size:     header.Size,
		File:     file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Extract handles POST /api/v1/sessions/:id/extract
// @Summary Extract the selected document
// @Description Run the extraction service on the selected document. Concurrent calls share one extraction.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=session.Snapshot} "Extraction complete"
// @Failure 400 {object} ErrorResponseBody "No document or missing credentials"
// @Failure 409 {object} ErrorResponseBody "Busy or cancelled"
// @Failure 502 {object} ErrorResponseBody "Extraction service failed"
// @Failure 504 {object} ErrorResponseBody "Extraction timed out"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/extract [post]
func (h *SessionHandler) Extract(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.Extract(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Ask handles POST /api/v1/sessions/:id/questions
// @Summary Ask a question
// @Description Answer a question about the extracted document
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body QuestionRequest true "Question"
// @Success 201 {object} Response{data=domain.AnalysisTurn} "Answer"
// @Failure 400 {object} ErrorResponseBody "Missing question or no extracted text"
// @Failure 409 {object} ErrorResponseBody "Another operation is in progress"
// @Failure 429 {object} ErrorResponseBody "Analysis provider rate limited"
// @Failure 502 {object} ErrorResponseBody "Analysis service failed"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/questions [post]
func (h *SessionHandler) Ask(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}
	turn, err := h.sessionService.Ask(c.Request.Context(), id, req.Question)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, turn)
}

// History handles GET /api/v1/sessions/:id/questions
// @Summary Question history
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=[]domain.AnalysisTurn} "Answered questions, oldest first"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/questions [get]
func (h *SessionHandler) History(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	turns, err := h.sessionService.History(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if turns == nil {
		turns = []domain.AnalysisTurn{}
	}
	RespondOK(c, turns)
}

// Cancel handles POST /api/v1/sessions/:id/cancel
// @Summary Cancel extraction
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=session.Snapshot} "Extraction cancelled"
// @Failure 400 {object} ErrorResponseBody "No extraction in progress"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.Cancel(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Reset handles POST /api/v1/sessions/:id/reset
// @Summary Reset a session
// @Description Discard the document, results and history. Configuration is kept.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=session.Snapshot} "Session reset"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/reset [post]
func (h *SessionHandler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.Reset(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Export handles GET /api/v1/sessions/:id/export
// @Summary Export a session
// @Description Download the question history as CSV, or the extraction and history as an Excel workbook
// @Tags sessions
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Unsupported format"
// @Security BearerAuth
// @Router /api/v1/sessions/{id}/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	format := domain.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(domain.ExportCSV))))
	file, err := h.sessionService.Export(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
