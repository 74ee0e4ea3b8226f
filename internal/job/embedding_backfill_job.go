package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/service"
)

// EmbeddingBackfillJob embeds knowledge rows that were inserted without a
// vector, e.g. after a bulk import whose batch embedding failed.
type EmbeddingBackfillJob struct {
	knowledge *service.KnowledgeService
	batchSize int
}

func NewEmbeddingBackfillJob(knowledge *service.KnowledgeService, batchSize int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{knowledge: knowledge, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	filled, err := j.knowledge.BackfillPending(ctx, j.batchSize)
	if err != nil {
		return err
	}
	if filled > 0 {
		logutil.GetLogger(ctx).Info("embedding backfill progressed", zap.Int("filled", filled))
	}
	return nil
}
