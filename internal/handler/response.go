package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docintake/internal/analysis"
	"docintake/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Client-correctable errors carry their full message.
func MapDomainError(err error) (status int, code, msg string) {
	var rateLimited *analysis.RateLimitError
	switch {
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "analysis provider rate limit reached; retry later"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found"
	case errors.Is(err, domain.ErrSettingsNotFound):
		return http.StatusNotFound, "SETTINGS_NOT_FOUND", "settings profile not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "access denied"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png, tiff, bmp"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "document archive to storage failed"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest, "CONFIGURATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "BUSY", err.Error()
	case errors.Is(err, domain.ErrCancelled):
		return http.StatusConflict, "CANCELLED", err.Error()
	case errors.Is(err, domain.ErrJobTimeout):
		return http.StatusGatewayTimeout, "EXTRACTION_TIMEOUT", err.Error()
	case errors.Is(err, domain.ErrJobFailed):
		return http.StatusBadGateway, "EXTRACTION_FAILED", err.Error()
	case errors.Is(err, domain.ErrEmptyResponse):
		return http.StatusBadGateway, "EMPTY_RESPONSE", err.Error()
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "UPSTREAM_ERROR", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] upstream or internal error: %v", requestID, err)
	}
	var rateLimited *analysis.RateLimitError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())))
	}
	RespondError(c, status, code, msg)
}
