package keyword

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
)

// Parametric DFA builders are expensive to create and immutable afterwards, so
// one per distance is shared by every index in the process.
var builders [MaxTypos + 1]struct {
	once    sync.Once
	builder *levenshtein.LevenshteinAutomatonBuilder
	err     error
}

func levenshteinBuilder(distance int) (*levenshtein.LevenshteinAutomatonBuilder, error) {
	b := &builders[distance]
	b.once.Do(func() {
		b.builder, b.err = levenshtein.NewLevenshteinAutomatonBuilder(uint8(distance), true)
	})
	return b.builder, b.err
}

// AllowedTypos returns how many typos a normalized query word tolerates: one
// every three runes, capped at MaxTypos.
func AllowedTypos(word string) int {
	return min(MaxTypos, utf8.RuneCountInString(word)/3)
}

// NewFuzzyAutomaton returns an automaton accepting every word within distance
// restricted edits of word. With prefix set it also accepts every extension
// of such a word.
func NewFuzzyAutomaton(word string, distance int, prefix bool) (vellum.Automaton, error) {
	if distance < 0 || distance > MaxTypos {
		return nil, fmt.Errorf("typo distance %d out of range [0, %d]", distance, MaxTypos)
	}
	var aut vellum.Automaton
	if distance == 0 {
		aut = literal(word)
	} else {
		builder, err := levenshteinBuilder(distance)
		if err != nil {
			return nil, fmt.Errorf("failed to create levenshtein builder: %w", err)
		}
		dfa, err := builder.BuildDfa(word, uint8(distance))
		if err != nil {
			return nil, fmt.Errorf("failed to build levenshtein dfa for %q: %w", word, err)
		}
		aut = dfa
	}
	if prefix {
		aut = StartsWith(aut)
	}
	return aut, nil
}

// literal matches exactly one byte string. State 0 is dead, state n+1 means n
// bytes were consumed.
type literal string

func (l literal) Start() int { return 1 }

func (l literal) IsMatch(s int) bool { return s == len(l)+1 }

func (l literal) CanMatch(s int) bool { return s > 0 }

func (l literal) WillAlwaysMatch(int) bool { return false }

func (l literal) Accept(s int, b byte) int {
	if s > 0 && s <= len(l) && l[s-1] == b {
		return s + 1
	}
	return 0
}

// startsWith accepts any input that has a prefix accepted by inner. Its state 0
// means "a prefix already matched"; inner state s is stored as s+1.
type startsWith struct {
	inner vellum.Automaton
}

// StartsWith wraps aut so that, once it matches, every longer input matches as well.
func StartsWith(aut vellum.Automaton) vellum.Automaton {
	return &startsWith{inner: aut}
}

func (a *startsWith) wrap(s int) int {
	if a.inner.IsMatch(s) {
		return 0
	}
	return s + 1
}

func (a *startsWith) Start() int { return a.wrap(a.inner.Start()) }

func (a *startsWith) IsMatch(s int) bool { return s == 0 }

func (a *startsWith) CanMatch(s int) bool {
	return s == 0 || a.inner.CanMatch(s-1)
}

func (a *startsWith) WillAlwaysMatch(s int) bool {
	return s == 0 || a.inner.WillAlwaysMatch(s-1)
}

func (a *startsWith) Accept(s int, b byte) int {
	if s == 0 {
		return 0
	}
	return a.wrap(a.inner.Accept(s-1, b))
}
