// Package cli provides CLI utilities for kensaku.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const snippetLen = 200

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%d buckets, %d steps, rules: %s)\n",
		response.Total, response.QueryTime, response.Buckets, response.Steps, strings.Join(response.Rules, ","))
	if response.Truncated {
		fmt.Fprintln(w, "warning: step budget exhausted, results may be incomplete")
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		text := result.Document.Text
		if result.Highlighted != "" {
			text = result.Highlighted
		}
		fmt.Fprintf(w, "%3d. [#%d, bucket %d] %s\n", result.Rank, result.Document.ID, result.Bucket, utils.Truncate(text, snippetLen))
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "\nDid you mean: %s\n", strings.Join(response.Suggestions, ", "))
	}
}

// WriteSuggestions writes spelling suggestions for word to w in the given format.
func WriteSuggestions(w io.Writer, word string, suggestions []keyword.Suggestion, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"query": word, "suggestions": suggestions})
	}
	if len(suggestions) == 0 {
		fmt.Fprintf(w, "No suggestions for %q\n", word)
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "%-20s distance %d, %d documents\n", s.Term, s.Distance, s.Frequency)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
