// Package ranking sorts the candidates of a query into disjoint, ordered buckets
// by running a cascade of ranking rules.
package ranking

import (
	"fmt"
	"strings"
)

// Rule is a ranking criterion of the cascade.
type Rule int

const (
	// Word ranks documents matching more of the query's leading words first.
	Word Rule = iota
	// Typo ranks documents needing fewer typos first.
	Typo
	// Exact ranks documents containing a query word verbatim first. It is always
	// the finest stage: rules listed after it are never consulted.
	Exact
)

// String returns a string representation of the rule.
func (r Rule) String() string {
	switch r {
	case Word:
		return "word"
	case Typo:
		return "typo"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	if r < Word || r > Exact {
		return nil, fmt.Errorf("unknown ranking rule %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := ParseRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// DefaultRules returns the stock cascade: Word, then Typo, then Exact.
func DefaultRules() []Rule {
	return []Rule{Word, Typo, Exact}
}

// ParseRule parses a rule name, case-insensitively.
func ParseRule(name string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "word", "words":
		return Word, nil
	case "typo", "typos":
		return Typo, nil
	case "exact", "exactness":
		return Exact, nil
	default:
		return 0, fmt.Errorf("unknown ranking rule %q", name)
	}
}

// ParseRules parses a comma separated list of rule names. An empty string yields
// an empty, non-nil list.
func ParseRules(list string) ([]Rule, error) {
	rules := []Rule{}
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		r, err := ParseRule(name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// FormatRules joins rule names with commas.
func FormatRules(rules []Rule) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}
