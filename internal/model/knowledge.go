package model

import "time"

// KnowledgeEntry is a text snippet owned by exactly one scope (a user id, or
// the configured shared scope id). The embedding may be nil until the
// backfill job picks the entry up.
type KnowledgeEntry struct {
	ID             string                 `json:"id"`
	ScopeID        string                 `json:"scope_id"`
	Text           string                 `json:"text"`
	Embedding      []float32              `json:"embedding,omitempty"`
	EmbeddingModel string                 `json:"embedding_model,omitempty"`
	Source         string                 `json:"source"`
	SourceID       string                 `json:"source_id,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ScoredEntry is a retrieval hit: the entry plus its cosine similarity and
// the scope the match came from.
type ScoredEntry struct {
	Entry        KnowledgeEntry `json:"entry"`
	Similarity   float64        `json:"similarity"`
	MatchedScope string         `json:"matched_scope"`
}

// KnowledgeStats summarizes one scope of the knowledge base.
type KnowledgeStats struct {
	ScopeID         string         `json:"scope_id"`
	TotalEntries    int64          `json:"total_entries"`
	EmbeddedEntries int64          `json:"embedded_entries"`
	PendingEntries  int64          `json:"pending_entries"`
	BySource        map[string]int `json:"by_source"`
}
