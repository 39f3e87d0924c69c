// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PaginationParams struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Sort  string `json:"sort"`
	Order string `json:"order"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Sort       string      `json:"sort"`
	Order      string      `json:"order"`
	Data       interface{} `json:"data"`
}

// SortFields whitelists the columns a list may be ordered by. The first entry
// is the default.
type SortFields []string

// Resolve returns field when it is whitelisted and the default otherwise.
func (f SortFields) Resolve(field string) string {
	for _, allowed := range f {
		if allowed == field {
			return field
		}
	}
	if len(f) == 0 {
		return "id"
	}
	return f[0]
}

// GetPaginationParams reads page, limit, sort and order from the query string.
// The sort field is resolved against fields, so the returned params are safe
// to pass to ApplySort.
func GetPaginationParams(c *gin.Context, fields SortFields) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	order := c.DefaultQuery("order", "desc")

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
		Sort:  fields.Resolve(c.Query("sort")),
		Order: order,
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

// ApplySort orders by the whitelisted field, then by id so pages never overlap.
func ApplySort(db *gorm.DB, params PaginationParams, fields SortFields) *gorm.DB {
	order := params.Order
	if order != "asc" {
		order = "desc"
	}
	return db.Order(fields.Resolve(params.Sort) + " " + order).Order("id " + order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Sort:       params.Sort,
		Order:      params.Order,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
