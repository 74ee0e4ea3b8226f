package model

// RelevanceResult is the outcome of the relevance gate for one message.
type RelevanceResult struct {
	IsRelevant       bool          `json:"is_relevant"`
	Score            float64       `json:"score"`
	MatchesFound     int           `json:"matches_found"`
	SimilarEntries   []ScoredEntry `json:"similar_entries,omitempty"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// ResponseResult is the outcome of one grounded generation.
type ResponseResult struct {
	Response           string  `json:"response"`
	RelevanceScore     float64 `json:"relevance_score"`
	ContextEntriesUsed int     `json:"context_entries_used"`
	ProcessingTimeMs   int64   `json:"processing_time_ms"`
	EmbeddingModel     string  `json:"embedding_model"`
	LLMModel           string  `json:"llm_model"`
}

// ProcessingResult is what the transport adapter gets back from one
// inbound message.
type ProcessingResult struct {
	ShouldRespond      bool         `json:"should_respond"`
	Reason             string       `json:"reason"`
	Profile            *UserProfile `json:"profile,omitempty"`
	Response           string       `json:"response,omitempty"`
	RelevanceScore     float64      `json:"relevance_score,omitempty"`
	MatchesFound       int          `json:"matches_found,omitempty"`
	ContextEntriesUsed int          `json:"context_entries_used,omitempty"`
	ProcessingTimeMs   int64        `json:"processing_time_ms,omitempty"`
}

// CopyOutcome reports a best-effort bulk copy between knowledge scopes.
type CopyOutcome struct {
	FromScope string `json:"from_scope"`
	ToScope   string `json:"to_scope"`
	Copied    int64  `json:"copied"`
	Err       error  `json:"-"`
}
