package domain

import "errors"

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrTransport     = errors.New("transport error")
	ErrJobFailed     = errors.New("extraction job failed")
	ErrJobTimeout    = errors.New("extraction job did not complete in time")
	ErrEmptyResponse = errors.New("empty response from analysis service")
	ErrCancelled     = errors.New("operation cancelled")
	ErrBusy          = errors.New("operation already in progress")

	ErrSessionNotFound     = errors.New("session not found")
	ErrSettingsNotFound    = errors.New("settings profile not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("document archive to storage failed")
)
