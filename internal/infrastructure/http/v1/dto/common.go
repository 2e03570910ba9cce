// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
)

// --- List ---

// ListRequest contains search and paging parameters shared by list endpoints.
type ListRequest struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the request into a domain.ListFilter.
func (r ListRequest) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(r.Search)
	f.OrderBy = r.OrderBy
	if r.Limit > 0 {
		f.Limit = r.Limit
	}
	f.Offset = r.Offset
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page through conv.
func NewListResponse[S, T any](res domain.ListResult[S], conv func(S) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, conv(item))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
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

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Parsing helpers ---

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
// An empty string yields the zero time.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return t.UTC().Truncate(24 * time.Hour), nil
}

// ParseID parses a required identifier.
func ParseID(field, s string) (id.ID, error) {
	parsed, err := id.Parse(strings.TrimSpace(s))
	if err != nil || id.IsNil(parsed) {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return parsed, nil
}

// ParseOptionalID parses an identifier that may be absent. Empty yields nil.
func ParseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, *s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func idString(i *id.ID) *string {
	if i == nil {
		return nil
	}
	s := i.String()
	return &s
}
