package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// requested is false when neither page nor limit was sent.
func GetPaginationParams(c *gin.Context) (params PaginationParams, requested bool) {
	rawPage, hasPage := c.GetQuery("page")
	rawLimit, hasLimit := c.GetQuery("limit")
	page, _ := strconv.Atoi(rawPage)
	limit, _ := strconv.Atoi(rawLimit)
	return NewPaginationParams(page, limit), hasPage || hasLimit
}

// NewPaginationParams clamps page and limit into the accepted range.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Response builds the pagination metadata for total matching rows.
func (p PaginationParams) Response(total int64) PaginationResponse {
	totalPages := int(total) / p.Limit
	if int(total)%p.Limit > 0 {
		totalPages++
	}
	return PaginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// SinglePage describes a listing that returned all total rows at once.
func SinglePage(total int64) PaginationResponse {
	resp := PaginationResponse{Page: 1, Limit: int(total), Total: total}
	if total > 0 {
		resp.TotalPages = 1
	}
	return resp
}
