package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/filestore"
	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/repo"
)

// ImportItem is one record of a JSON import file: an array of these.
type ImportItem struct {
	Text     string                 `json:"text"`
	SourceID string                 `json:"source_id,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// KnowledgeService maintains the knowledge base: manual adds, bulk imports
// from the file store, and embedding backfill for rows inserted without a
// vector.
type KnowledgeService struct {
	store        KnowledgeStore
	embedder     ai.IEmbedder
	files        filestore.Store
	embedTimeout time.Duration
}

func NewKnowledgeService(store KnowledgeStore, embedder ai.IEmbedder, files filestore.Store, embedTimeout time.Duration) *KnowledgeService {
	return &KnowledgeService{
		store:        store,
		embedder:     embedder,
		files:        files,
		embedTimeout: embedTimeout,
	}
}

// AddEntry embeds the text and stores it under the scope in one step.
func (s *KnowledgeService) AddEntry(ctx context.Context, scopeID, text, source string, tags []string, metadata map[string]interface{}) (*model.KnowledgeEntry, error) {
	if scopeID == "" || text == "" {
		return nil, fmt.Errorf("%w: scope_id and text are required", appErr.ErrInvalid)
	}
	vector, err := embedWithTimeout(ctx, s.embedder, text, s.embedTimeout)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrEmbedding, "add knowledge: embed", err)
	}
	entry := repo.NewKnowledgeEntry(scopeID, text, source)
	entry.Embedding = vector
	entry.EmbeddingModel = s.embedder.ModelName()
	entry.Tags = tags
	entry.Metadata = metadata
	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "add knowledge: insert", err)
	}
	return entry, nil
}

// Import reads a JSON array of entries from the file store and inserts them
// under the scope. Embeddings are computed in batches; a batch embedding
// failure leaves the affected rows without a vector for the backfill job to
// pick up instead of failing the whole import.
func (s *KnowledgeService) Import(ctx context.Context, key, scopeID string) (int, error) {
	if s.files == nil {
		return 0, fmt.Errorf("%w: no file store configured", appErr.ErrInvalid)
	}
	rc, err := s.files.Open(ctx, key)
	if err != nil {
		return 0, appErr.Wrap(appErr.ErrStore, "import knowledge: open file", err)
	}
	defer rc.Close()

	var items []ImportItem
	if err := json.NewDecoder(rc).Decode(&items); err != nil {
		return 0, fmt.Errorf("%w: decode import file %s: %w", appErr.ErrInvalid, key, err)
	}

	logger := logutil.GetLogger(ctx).With(zap.String("key", key), zap.String("scope_id", scopeID))
	inserted := 0
	const batchSize = 32
	for offset := 0; offset < len(items); offset += batchSize {
		end := offset + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[offset:end]
		texts := make([]string, 0, len(batch))
		for _, it := range batch {
			texts = append(texts, it.Text)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("batch embedding failed, importing without vectors", zap.Int("offset", offset), zap.Error(err))
			vectors = nil
		}
		for i, it := range batch {
			if it.Text == "" {
				continue
			}
			entry := repo.NewKnowledgeEntry(scopeID, it.Text, "import")
			entry.SourceID = it.SourceID
			entry.Tags = it.Tags
			entry.Metadata = it.Metadata
			if vectors != nil && i < len(vectors) {
				entry.Embedding = vectors[i]
				entry.EmbeddingModel = s.embedder.ModelName()
			}
			if err := s.store.Insert(ctx, entry); err != nil {
				return inserted, appErr.Wrap(appErr.ErrStore, "import knowledge: insert", err)
			}
			inserted++
		}
	}
	logger.Info("knowledge import finished", zap.Int("inserted", inserted))
	return inserted, nil
}

func (s *KnowledgeService) Stats(ctx context.Context, scopeID string) (*model.KnowledgeStats, error) {
	stats, err := s.store.Stats(ctx, scopeID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "knowledge stats", err)
	}
	return stats, nil
}

// BackfillPending embeds up to limit rows that were inserted without a
// vector. It returns how many rows were filled in.
func (s *KnowledgeService) BackfillPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.ListPending(ctx, limit)
	if err != nil {
		return 0, appErr.Wrap(appErr.ErrStore, "backfill: list pending", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	texts := make([]string, 0, len(pending))
	for _, e := range pending {
		texts = append(texts, e.Text)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, appErr.Wrap(appErr.ErrEmbedding, "backfill: embed batch", err)
	}
	filled := 0
	for i, e := range pending {
		if i >= len(vectors) {
			break
		}
		if err := s.store.SetEmbedding(ctx, e.ID, vectors[i], s.embedder.ModelName()); err != nil {
			return filled, appErr.Wrap(appErr.ErrStore, "backfill: set embedding", err)
		}
		filled++
	}
	return filled, nil
}
