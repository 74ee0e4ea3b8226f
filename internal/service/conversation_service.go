package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

// ConversationService is the operator surface over the conversation log.
type ConversationService struct {
	conversations ConversationStore
}

func NewConversationService(conversations ConversationStore) *ConversationService {
	return &ConversationService{conversations: conversations}
}

func (s *ConversationService) List(ctx context.Context, userID, status string) ([]model.Conversation, error) {
	rows, err := s.conversations.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "list conversations", err)
	}
	return rows, nil
}

// Show returns the conversation and up to limit of its latest messages in
// chronological order.
func (s *ConversationService) Show(ctx context.Context, conversationID string, limit int) (*model.Conversation, []model.Message, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.conversations.RecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, nil, appErr.Wrap(appErr.ErrStore, "load conversation messages", err)
	}
	return conv, messages, nil
}

// Clear archives the active conversation for the pair and starts a fresh
// one. Nothing is deleted.
func (s *ConversationService) Clear(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	conv, err := s.conversations.ArchiveAndRecreate(ctx, userID, chatID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "clear conversation", err)
	}
	logutil.GetLogger(ctx).Info("conversation cleared",
		zap.String("user_id", userID), zap.String("chat_id", chatID), zap.String("new_id", conv.ID))
	return conv, nil
}

// Delete removes the conversation and, via the store's cascade, all of its
// messages. Irreversible.
func (s *ConversationService) Delete(ctx context.Context, conversationID string) error {
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}
