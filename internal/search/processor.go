package search

import (
	"fmt"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/ranking"
)

// ProcessQuery validates query, applies defaults and converts it into a Query.
func ProcessQuery(query *models.SearchQuery, maxLimit int) (Query, error) {
	if err := query.Validate(maxLimit); err != nil {
		return Query{}, err
	}
	q := Query{Input: query.Query, Limit: query.Limit}
	if query.Rules != nil {
		q.Rules = make([]ranking.Rule, 0, len(query.Rules))
		for _, name := range query.Rules {
			r, err := ranking.ParseRule(name)
			if err != nil {
				return Query{}, fmt.Errorf("invalid query: %w", err)
			}
			q.Rules = append(q.Rules, r)
		}
	}
	return q, nil
}
