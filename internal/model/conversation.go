package model

import "time"

const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
	ConversationDeleted  = "deleted"
)

// Conversation is the dialogue session for a (user, chat) pair. At most one
// active conversation may exist per pair; the store enforces this with a
// partial unique index.
type Conversation struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ChatID         string     `json:"chat_id"`
	Title          string     `json:"title,omitempty"`
	Status         string     `json:"status"`
	ContextSummary string     `json:"context_summary,omitempty"`
	MessageCount   int        `json:"message_count"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewConversation(id, userID, chatID string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        id,
		UserID:    userID,
		ChatID:    chatID,
		Status:    ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
