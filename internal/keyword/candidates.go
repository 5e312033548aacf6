package keyword

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// WordCandidate holds, for one query word, the documents it matched grouped by
// typo distance. Typos[d] contains the documents whose closest matching word is
// d edits away; the four bitmaps are pairwise disjoint.
type WordCandidate struct {
	Original   string
	Normalized string
	// Position is the word's index among the query's non-empty words.
	Position int
	Typos    [MaxTypos + 1]*roaring.Bitmap
	// Exact holds documents containing Normalized verbatim, not only as a prefix.
	Exact *roaring.Bitmap
}

// NewWordCandidate returns a candidate with empty bitmaps.
func NewWordCandidate(original, normalized string, position int) *WordCandidate {
	c := &WordCandidate{
		Original:   original,
		Normalized: normalized,
		Position:   position,
		Exact:      roaring.New(),
	}
	for d := range c.Typos {
		c.Typos[d] = roaring.New()
	}
	return c
}

// Insert records that indexed word matched in docs. The automaton only reports
// membership, so the typo distance is recomputed here.
func (c *WordCandidate) Insert(indexed string, docs *roaring.Bitmap) {
	d := TypoDistance(c.Normalized, indexed)
	c.Typos[d].Or(docs)
	if indexed == c.Normalized {
		c.Exact.Or(docs)
	}
}

// settle keeps every document only in its lowest typo bucket.
func (c *WordCandidate) settle() {
	seen := c.Typos[0].Clone()
	for d := 1; d <= MaxTypos; d++ {
		c.Typos[d].AndNot(seen)
		seen.Or(c.Typos[d])
	}
}

// Docs returns the union of all typo buckets.
func (c *WordCandidate) Docs() *roaring.Bitmap {
	return roaring.FastOr(c.Typos[:]...)
}

// Distance returns the typo bucket holding doc, or -1 when the word did not match it.
func (c *WordCandidate) Distance(doc uint32) int {
	for d, bm := range c.Typos {
		if bm.Contains(doc) {
			return d
		}
	}
	return -1
}

// CandidateSet is the per-query list of candidates, in query order.
type CandidateSet []*WordCandidate

// BuildCandidates normalizes query, drops the words that normalize to nothing and
// collects candidates for the rest from idx. Only the last word also matches as
// a fuzzy prefix.
func BuildCandidates(idx *WordIndex, query string) CandidateSet {
	type word struct{ original, normalized string }
	var words []word
	for _, token := range strings.Fields(query) {
		if n := utils.Normalize(token); n != "" {
			words = append(words, word{original: token, normalized: n})
		}
	}

	set := make(CandidateSet, 0, len(words))
	for i, w := range words {
		c := NewWordCandidate(w.original, w.normalized, i)
		aut, err := NewFuzzyAutomaton(w.normalized, AllowedTypos(w.normalized), i == len(words)-1)
		if err != nil {
			panic(fmt.Sprintf("keyword: %v", err))
		}
		idx.Search(aut, c.Insert)
		c.settle()
		set = append(set, c)
	}
	return set
}

// Universe returns every document matched by any word at any distance.
func (s CandidateSet) Universe() *roaring.Bitmap {
	all := make([]*roaring.Bitmap, 0, len(s)*(MaxTypos+1))
	for _, c := range s {
		all = append(all, c.Typos[:]...)
	}
	return roaring.FastOr(all...)
}

// Remove subtracts docs from every bitmap of every candidate so that placed
// documents can never be offered again.
func (s CandidateSet) Remove(docs *roaring.Bitmap) {
	for _, c := range s {
		for _, bm := range c.Typos {
			bm.AndNot(docs)
		}
		c.Exact.AndNot(docs)
	}
}

// ExactDocs returns the documents containing at least one query word verbatim.
func (s CandidateSet) ExactDocs() *roaring.Bitmap {
	exact := make([]*roaring.Bitmap, len(s))
	for i, c := range s {
		exact[i] = c.Exact
	}
	return roaring.FastOr(exact...)
}

// TotalDistance sums, over the words that matched doc, the typo distance of the match.
func (s CandidateSet) TotalDistance(doc uint32) int {
	total := 0
	for _, c := range s {
		if d := c.Distance(doc); d > 0 {
			total += d
		}
	}
	return total
}

// IsEmpty reports whether no document is left in any candidate.
func (s CandidateSet) IsEmpty() bool {
	for _, c := range s {
		for _, bm := range c.Typos {
			if !bm.IsEmpty() {
				return false
			}
		}
	}
	return true
}
