package search

import (
	"html"
	"strings"

	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// Highlight wraps every token of content that the query's words would match in
// pre and post, applying the same typo allowance as the index. Only the last
// query word matches as a prefix. Whitespace is collapsed to single spaces and
// the document text is HTML-escaped; pre and post are written as given.
func Highlight(content, query, pre, post string) string {
	var words []string
	for _, token := range strings.Fields(query) {
		if n := utils.Normalize(token); n != "" {
			words = append(words, n)
		}
	}
	tokens := strings.Fields(content)
	for i, token := range tokens {
		escaped := html.EscapeString(token)
		if len(words) > 0 && matchesAny(utils.Normalize(token), words) {
			escaped = pre + escaped + post
		}
		tokens[i] = escaped
	}
	return strings.Join(tokens, " ")
}

func matchesAny(token string, words []string) bool {
	if token == "" {
		return false
	}
	for i, w := range words {
		allowed := keyword.AllowedTypos(w)
		if i == len(words)-1 {
			if prefixMatches(w, token, allowed) {
				return true
			}
			continue
		}
		if keyword.DamerauLevenshteinDistance(w, token) <= allowed {
			return true
		}
	}
	return false
}

// prefixMatches reports whether some prefix of token is within allowed typos of word.
func prefixMatches(word, token string, allowed int) bool {
	runes := []rune(token)
	for n := len(runes); n >= 0; n-- {
		if keyword.DamerauLevenshteinDistance(word, string(runes[:n])) <= allowed {
			return true
		}
	}
	return false
}
