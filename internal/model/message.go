package model

import "time"

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Message is one side of an exchange, immutable once persisted. Outgoing
// messages carry generation provenance; on incoming messages those fields
// stay nil.
type Message struct {
	ID                 string                 `json:"id"`
	ConversationID     string                 `json:"conversation_id"`
	ExternalMessageID  *int64                 `json:"external_message_id,omitempty"`
	Direction          string                 `json:"direction"`
	ContentType        string                 `json:"content_type"`
	Content            string                 `json:"content"`
	RelevanceScore     *float64               `json:"relevance_score,omitempty"`
	ContextEntriesUsed *int                   `json:"context_entries_used,omitempty"`
	ProcessingTimeMs   *int64                 `json:"processing_time_ms,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

func NewIncomingMessage(id, conversationID, content string, externalMessageID *int64) *Message {
	return &Message{
		ID:                id,
		ConversationID:    conversationID,
		ExternalMessageID: externalMessageID,
		Direction:         DirectionIncoming,
		ContentType:       "text",
		Content:           content,
		CreatedAt:         time.Now(),
	}
}

func NewOutgoingMessage(id, conversationID, content string, relevanceScore float64, contextEntriesUsed int, processingTimeMs int64) *Message {
	return &Message{
		ID:                 id,
		ConversationID:     conversationID,
		Direction:          DirectionOutgoing,
		ContentType:        "text",
		Content:            content,
		RelevanceScore:     &relevanceScore,
		ContextEntriesUsed: &contextEntriesUsed,
		ProcessingTimeMs:   &processingTimeMs,
		CreatedAt:          time.Now(),
	}
}
