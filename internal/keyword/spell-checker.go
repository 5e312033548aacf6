package keyword

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// Suggestion represents a spelling suggestion with its score.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// SpellCheckResult contains the result of spell checking a query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	HasCorrections  bool
	MisspelledTerms []string
}

// TermDictionary is the word list suggestions are drawn from.
type TermDictionary interface {
	// FuzzyTerms calls fn for every term within maxDistance typos of term,
	// with the number of documents containing it.
	FuzzyTerms(term string, maxDistance int, fn func(term string, freq int)) error
	// ContainsTerm reports whether term is indexed verbatim.
	ContainsTerm(term string) bool
}

// FuzzyTerms implements TermDictionary.
func (w *WordIndex) FuzzyTerms(term string, maxDistance int, fn func(term string, freq int)) error {
	aut, err := NewFuzzyAutomaton(term, min(maxDistance, MaxTypos), false)
	if err != nil {
		return err
	}
	w.Search(aut, func(word string, docs *roaring.Bitmap) {
		fn(word, int(docs.GetCardinality()))
	})
	return nil
}

// ContainsTerm implements TermDictionary.
func (w *WordIndex) ContainsTerm(term string) bool {
	_, ok := w.Lookup(term)
	return ok
}

// SpellChecker suggests indexed words close to unknown query words.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions (at most MaxTypos).
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = min(d, MaxTypos)
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions to return per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns spelling suggestions for a single term, best first. Terms are
// compared in normalized form.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	norm := utils.Normalize(term)
	if norm == "" {
		return nil
	}

	var suggestions []Suggestion
	err := s.dictionary.FuzzyTerms(norm, s.maxDistance, func(candidate string, freq int) {
		if candidate == norm || freq < s.minFreq {
			return
		}
		distance := DamerauLevenshteinDistance(norm, candidate)
		if distance > s.maxDistance {
			return
		}
		suggestions = append(suggestions, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	})
	if err != nil {
		return nil
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term, once normalized, is absent from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	norm := utils.Normalize(term)
	return norm != "" && !s.dictionary.ContainsTerm(norm)
}

// Check checks every word of query and builds a corrected query from the best
// suggestion of each misspelled word.
func (s *SpellChecker) Check(query string) *SpellCheckResult {
	result := &SpellCheckResult{OriginalQuery: query}
	terms := strings.Fields(query)
	corrected := make([]string, 0, len(terms))

	for _, term := range terms {
		if !s.IsMisspelled(term) {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}

	result.CorrectedQuery = strings.Join(corrected, " ")
	return result
}

// SuggestedQuery returns the corrected query, or query itself when nothing was corrected.
func (s *SpellChecker) SuggestedQuery(query string) string {
	result := s.Check(query)
	if !result.HasCorrections {
		return query
	}
	return result.CorrectedQuery
}
