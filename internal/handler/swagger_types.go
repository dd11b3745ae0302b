package handler

import "docintake/internal/domain"

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ConfigRequest carries session credentials. Empty fields keep the current value.
type ConfigRequest struct {
	ExtractionEndpoint string `json:"extraction_endpoint" example:"https://my-resource.cognitiveservices.azure.com"`
	ExtractionKey      string `json:"extraction_key" example:"0123456789abcdef0123456789abcdef"`
	AnalysisKey        string `json:"analysis_key" example:"sk-ant-api03-..."`
}

func (r ConfigRequest) toDomain() domain.SessionConfig {
	return domain.SessionConfig{
		ExtractionEndpoint: r.ExtractionEndpoint,
		ExtractionKey:      r.ExtractionKey,
		AnalysisKey:        r.AnalysisKey,
	}
}

// CreateSessionRequest represents the create session request body.
type CreateSessionRequest struct {
	Profile string         `json:"profile" example:"default"`
	Config  *ConfigRequest `json:"config"`
}

// QuestionRequest represents the ask question request body.
type QuestionRequest struct {
	Question string `json:"question" binding:"required" example:"What is the invoice total?"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// CompatAnalysisBody is the bare success body of the analyze endpoint.
type CompatAnalysisBody struct {
	Analysis string `json:"analysis" example:"The invoice total is $1,250.00."`
}

// CompatErrorBody is the bare error body of the sessionless endpoints.
type CompatErrorBody struct {
	Error string `json:"error" example:"Failed to process document"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
