package models

// SearchResult represents a single ranked hit.
type SearchResult struct {
	Document *Document `json:"document"`
	// Rank is the 1-based position in the result list.
	Rank int `json:"rank"`
	// Bucket is the index of the cascade bucket the hit was emitted in.
	Bucket      int    `json:"bucket"`
	Highlighted string `json:"highlighted,omitempty"`
}

// SearchResponse is the response for a search request. Results never repeat a document.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Buckets   int             `json:"buckets"`
	Steps     int             `json:"steps"`
	Truncated bool            `json:"truncated,omitempty"`
	Rules     []string        `json:"rules"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Suggestions holds "did you mean" queries, filled when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}
