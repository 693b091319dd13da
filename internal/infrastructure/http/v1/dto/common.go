// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"posledger/internal/core/id"
	"posledger/internal/domain/filter"
)

// --- Paging ---

// PageRequest contains paging and filter parameters.
type PageRequest struct {
	Limit  int      `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int      `form:"offset" binding:"omitempty,min=0"`
	Filter []string `form:"filter"`
}

// Filters parses the field:op:value expressions.
func (p PageRequest) Filters() ([]filter.Item, error) {
	return filter.Parse(p.Filter)
}

// --- List Response ---

// ListResponse wraps list results.
type ListResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
