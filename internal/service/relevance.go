package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

// RelevanceGate decides whether an inbound message is close enough to the
// user's (or the shared) knowledge to deserve a reply.
type RelevanceGate struct {
	embedder      ai.IEmbedder
	knowledge     KnowledgeSearcher
	sharedScopeID string
	limit         int
	embedTimeout  time.Duration
}

func NewRelevanceGate(embedder ai.IEmbedder, knowledge KnowledgeSearcher, sharedScopeID string, limit int, embedTimeout time.Duration) *RelevanceGate {
	return &RelevanceGate{
		embedder:      embedder,
		knowledge:     knowledge,
		sharedScopeID: sharedScopeID,
		limit:         limit,
		embedTimeout:  embedTimeout,
	}
}

func (g *RelevanceGate) Check(ctx context.Context, message, userID string, threshold float64) (*model.RelevanceResult, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.Float64("threshold", threshold))

	vector, err := embedWithTimeout(ctx, g.embedder, message, g.embedTimeout)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrEmbedding, "relevance check: embed message", err)
	}

	similar, err := findSimilarAcrossScopes(ctx, g.knowledge, vector, userID, g.sharedScopeID, threshold, g.limit)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "relevance check: search knowledge", err)
	}

	result := &model.RelevanceResult{
		MatchesFound:     len(similar),
		SimilarEntries:   similar,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if len(similar) > 0 {
		result.Score = similar[0].Similarity
	}
	// The store already filters by threshold; checking the top score again
	// keeps the verdict honest if a store implementation returns weaker
	// matches than asked for.
	result.IsRelevant = len(similar) > 0 && result.Score >= threshold
	logger.Info("relevance check completed",
		zap.Bool("is_relevant", result.IsRelevant),
		zap.Float64("score", result.Score),
		zap.Int("matches", result.MatchesFound),
		zap.Int64("duration_ms", result.ProcessingTimeMs))
	return result, nil
}

func embedWithTimeout(ctx context.Context, embedder ai.IEmbedder, text string, timeout time.Duration) ([]float32, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return embedder.Embed(ctx, text)
}
