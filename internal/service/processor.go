package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

const (
	ReasonSilentMode  = "silent mode"
	ReasonNotRelevant = "not relevant"
	ReasonResponded   = "responded"
)

// ProcessRequest is one inbound text message from the transport adapter.
type ProcessRequest struct {
	Text              string
	UserID            string
	ChatID            string
	ExternalMessageID *int64
}

// MessageProcessor drives the full turn: profile resolution, conversation
// bookkeeping, the relevance gate and, when warranted, response composition.
type MessageProcessor struct {
	profiles      ProfileStore
	conversations ConversationStore
	knowledge     KnowledgeStore
	gate          *RelevanceGate
	composer      *ResponseComposer
	sharedScopeID string
	historyLimit  int
}

func NewMessageProcessor(profiles ProfileStore, conversations ConversationStore, knowledge KnowledgeStore,
	gate *RelevanceGate, composer *ResponseComposer, sharedScopeID string, historyLimit int) *MessageProcessor {

	return &MessageProcessor{
		profiles:      profiles,
		conversations: conversations,
		knowledge:     knowledge,
		gate:          gate,
		composer:      composer,
		sharedScopeID: sharedScopeID,
		historyLimit:  historyLimit,
	}
}

func (p *MessageProcessor) Handle(ctx context.Context, req *ProcessRequest) (*model.ProcessingResult, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", req.UserID), zap.String("chat_id", req.ChatID))

	profile, err := p.resolveProfile(ctx, req.UserID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "handle message: resolve profile", err)
	}

	conv, err := p.conversations.GetOrCreateActive(ctx, req.UserID, req.ChatID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "handle message: resolve conversation", err)
	}

	// The conversation is a durable log: the inbound message is persisted
	// even when the bot stays silent. It is not rolled back if a later
	// stage fails.
	incoming := model.NewIncomingMessage(idgen.New(), conv.ID, req.Text, req.ExternalMessageID)
	if err := p.conversations.AppendMessage(ctx, incoming); err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "handle message: persist incoming", err)
	}

	if !profile.IsActive() {
		logger.Info("bot is in silent mode, skipping response")
		return &model.ProcessingResult{
			ShouldRespond:    false,
			Reason:           ReasonSilentMode,
			Profile:          profile,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	relevance, err := p.gate.Check(ctx, req.Text, req.UserID, profile.RelevanceThreshold)
	if err != nil {
		return nil, err
	}
	if !relevance.IsRelevant && profile.BotMode != model.BotModeAggressive {
		return &model.ProcessingResult{
			ShouldRespond:    false,
			Reason:           ReasonNotRelevant,
			Profile:          profile,
			RelevanceScore:   relevance.Score,
			MatchesFound:     relevance.MatchesFound,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	history, err := p.conversations.RecentMessages(ctx, conv.ID, p.historyLimit)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "handle message: load history", err)
	}

	response, err := p.composer.Compose(ctx, req.Text, profile, history)
	if err != nil {
		return nil, err
	}

	outgoing := model.NewOutgoingMessage(idgen.New(), conv.ID, response.Response,
		response.RelevanceScore, response.ContextEntriesUsed, response.ProcessingTimeMs)
	if err := p.conversations.AppendMessage(ctx, outgoing); err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "handle message: persist outgoing", err)
	}

	logger.Info("message handled",
		zap.Float64("relevance_score", relevance.Score),
		zap.Int("context_entries", response.ContextEntriesUsed),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return &model.ProcessingResult{
		ShouldRespond:      true,
		Reason:             ReasonResponded,
		Profile:            profile,
		Response:           response.Response,
		RelevanceScore:     relevance.Score,
		MatchesFound:       relevance.MatchesFound,
		ContextEntriesUsed: response.ContextEntriesUsed,
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// resolveProfile loads the user's profile, lazily creating a default one on
// first contact. Creation also copies the shared knowledge scope into the
// user's own scope; that copy is best effort and its failure is only logged.
func (p *MessageProcessor) resolveProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := p.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}

	profile = model.NewDefaultUserProfile(idgen.New(), userID)
	if err := p.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("created default profile", zap.String("user_id", userID))

	if p.sharedScopeID != "" && p.sharedScopeID != userID {
		outcome := p.copySharedKnowledge(ctx, userID)
		if outcome.Err != nil {
			logutil.GetLogger(ctx).Error("shared knowledge copy failed",
				zap.String("from_scope", outcome.FromScope),
				zap.String("to_scope", outcome.ToScope),
				zap.Error(outcome.Err))
		} else {
			logutil.GetLogger(ctx).Info("copied shared knowledge to new user",
				zap.String("user_id", userID), zap.Int64("copied", outcome.Copied))
		}
	}
	return profile, nil
}

func (p *MessageProcessor) copySharedKnowledge(ctx context.Context, userID string) model.CopyOutcome {
	copied, err := p.knowledge.CopyScope(ctx, p.sharedScopeID, userID)
	return model.CopyOutcome{
		FromScope: p.sharedScopeID,
		ToScope:   userID,
		Copied:    copied,
		Err:       err,
	}
}
