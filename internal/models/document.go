// Package models defines the wire types for documents, queries, and search results.
package models

// Document is one corpus entry, identified by its position in the corpus.
type Document struct {
	ID   uint32 `json:"id"`
	Text string `json:"text"`
}
