package service

import (
	"context"

	"github.com/twinchat/twinchat/internal/model"
)

// KnowledgeSearcher is the retrieval slice of the knowledge store; the gate
// and the composer need nothing else.
type KnowledgeSearcher interface {
	FindSimilar(ctx context.Context, vector []float32, scopeID string, threshold float64, limit int) ([]model.ScoredEntry, error)
}

type KnowledgeStore interface {
	KnowledgeSearcher
	Insert(ctx context.Context, entry *model.KnowledgeEntry) error
	SetEmbedding(ctx context.Context, id string, vector []float32, embeddingModel string) error
	ListPending(ctx context.Context, limit int) ([]model.KnowledgeEntry, error)
	CopyScope(ctx context.Context, fromScope, toScope string) (int64, error)
	Stats(ctx context.Context, scopeID string) (*model.KnowledgeStats, error)
}

type ConversationStore interface {
	GetOrCreateActive(ctx context.Context, userID, chatID string) (*model.Conversation, error)
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID, status string) ([]model.Conversation, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	ArchiveAndRecreate(ctx context.Context, userID, chatID string) (*model.Conversation, error)
	Delete(ctx context.Context, conversationID string) error
}

type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	Save(ctx context.Context, profile *model.UserProfile) error
}
