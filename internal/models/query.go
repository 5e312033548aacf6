package models

import (
	"fmt"
	"strings"
)

const (
	// DefaultLimit is used when a query does not set a positive limit.
	DefaultLimit = 10
	// DefaultMaxLimit caps the limit when the caller sets no cap of its own.
	DefaultMaxLimit = 100
)

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Rules names the ranking rules in cascade order. Nil means the default
	// cascade; an empty list disables ranking.
	Rules     []string `json:"rules,omitempty"`
	Highlight bool     `json:"highlight,omitempty"`
}

// Validate normalizes the query in place: it trims the input, defaults the limit
// and caps it at maxLimit (DefaultMaxLimit when maxLimit <= 0). An empty query is
// valid and matches nothing.
func (q *SearchQuery) Validate(maxLimit int) error {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	for _, r := range q.Rules {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("rules must not contain empty names")
		}
	}
	return nil
}
