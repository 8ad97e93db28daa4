// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package models

import "time"

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status   string       `json:"status"`
	Data     any          `json:"data,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
	Metadata *APIMetadata `json:"metadata,omitempty"`
}

// APIError carries a stable machine-readable code plus a human
// message. Details is optional structured context, such as field
// validation failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// APIMetadata carries request tracing and pagination information.
type APIMetadata struct {
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Page      *Pagination `json:"page,omitempty"`
}

// Pagination describes a window into a list result.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data any) APIResponse {
	return APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
}

// NewErrorResponse wraps an error code and message in a failure
// envelope.
func NewErrorResponse(code, message string) APIResponse {
	return APIResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Metadata: &APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
}
