// Package search exposes the word index and ranking cascade as a single
// read-only Index.
package search

import (
	"fmt"
	"time"

	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/ranking"
	"go.uber.org/zap"
)

const (
	highlightPre  = "<mark>"
	highlightPost = "</mark>"
)

// Query is a search request against an Index.
type Query struct {
	Input string
	// Limit is the maximum number of documents returned. Zero means models.DefaultLimit.
	Limit int
	// Rules is the cascade, coarsest first. Nil means ranking.DefaultRules;
	// an empty non-nil slice disables ranking.
	Rules []ranking.Rule
}

// NewQuery returns a query with the default limit and rules.
func NewQuery(input string) Query {
	return Query{Input: input, Limit: models.DefaultLimit}
}

// Index is an immutable searchable corpus. It is safe for concurrent use.
type Index struct {
	documents []string
	words     *keyword.WordIndex
	speller   *keyword.SpellChecker
	maxSteps  int
	logger    *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger for the index. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMaxSteps bounds the cascade of every search. Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(i *Index) {
		if n >= 0 {
			i.maxSteps = n
		}
	}
}

// Construct indexes documents. Document ids are their positions in documents.
func Construct(documents []string, opts ...Option) *Index {
	idx := &Index{
		documents: append([]string(nil), documents...),
		maxSteps:  ranking.DefaultMaxSteps,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}

	start := time.Now()
	idx.words = keyword.BuildWordIndex(idx.documents)
	idx.speller = keyword.NewSpellChecker(idx.words)
	idx.logger.Info("index constructed",
		zap.Int("documents", len(idx.documents)),
		zap.Int("words", idx.words.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return idx
}

// Search returns the text of the best documents for q, best first.
func (i *Index) Search(q Query) []string {
	res := i.Rank(q)
	out := make([]string, len(res.IDs))
	for n, id := range res.IDs {
		out[n] = i.documents[id]
	}
	return out
}

// Rank runs the cascade for q and returns the raw result.
func (i *Index) Rank(q Query) *ranking.Result {
	limit := q.Limit
	if limit == 0 {
		limit = models.DefaultLimit
	}
	rules := q.Rules
	if rules == nil {
		rules = ranking.DefaultRules()
	}
	set := keyword.BuildCandidates(i.words, q.Input)
	return ranking.Run(set, rules, limit, ranking.Config{MaxSteps: i.maxSteps, Logger: i.logger})
}

// SearchDetailed validates query and runs it. It fails only on invalid input.
func (i *Index) SearchDetailed(query *models.SearchQuery, maxLimit int) (*models.SearchResponse, error) {
	start := time.Now()
	q, err := ProcessQuery(query, maxLimit)
	if err != nil {
		return nil, err
	}
	rules := q.Rules
	if rules == nil {
		rules = ranking.DefaultRules()
	}
	res := i.Rank(Query{Input: q.Input, Limit: q.Limit, Rules: rules})

	response := &models.SearchResponse{
		Results:   make([]*models.SearchResult, 0, len(res.IDs)),
		Total:     len(res.IDs),
		Buckets:   len(res.Buckets),
		Steps:     res.Steps,
		Truncated: res.Truncated,
		Rules:     make([]string, len(rules)),
		Query:     query.Query,
	}
	for n, r := range rules {
		response.Rules[n] = r.String()
	}
	for n, id := range res.IDs {
		result := &models.SearchResult{
			Document: &models.Document{ID: id, Text: i.documents[id]},
			Rank:     n + 1,
			Bucket:   res.BucketOf[n],
		}
		if query.Highlight {
			result.Highlighted = Highlight(i.documents[id], q.Input, highlightPre, highlightPost)
		}
		response.Results = append(response.Results, result)
	}
	if response.Total == 0 && q.Input != "" {
		if check := i.speller.Check(q.Input); check.HasCorrections {
			response.Suggestions = []string{check.CorrectedQuery}
		}
	}
	response.QueryTime = time.Since(start).Milliseconds()
	return response, nil
}

// Suggest returns up to n indexed words close to word, best first.
func (i *Index) Suggest(word string, n int) []keyword.Suggestion {
	if n <= 0 {
		return nil
	}
	return keyword.NewSpellChecker(i.words, keyword.WithMaxSuggestions(n)).Suggest(word)
}

// Len returns the number of documents.
func (i *Index) Len() int {
	return len(i.documents)
}

// Document returns the text of document id.
func (i *Index) Document(id uint32) (string, error) {
	if int(id) >= len(i.documents) {
		return "", fmt.Errorf("document %d not found: index holds %d documents", id, len(i.documents))
	}
	return i.documents[id], nil
}

// Stats describes an index.
type Stats struct {
	Documents int `json:"documents"`
	Words     int `json:"words"`
	MaxSteps  int `json:"max_steps"`
}

// Stats returns index statistics.
func (i *Index) Stats() Stats {
	return Stats{Documents: len(i.documents), Words: i.words.Len(), MaxSteps: i.maxSteps}
}
