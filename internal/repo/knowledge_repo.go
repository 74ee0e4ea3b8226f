package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/twinchat/twinchat/internal/model"
	"github.com/twinchat/twinchat/internal/pkg/dbutil"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

type KnowledgeRepo struct {
	db *sql.DB
}

func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

// FindSimilar returns entries of one scope whose cosine similarity to the
// query vector is at or above threshold, best match first.
func (r *KnowledgeRepo) FindSimilar(ctx context.Context, vector []float32, scopeID string, threshold float64, limit int) ([]model.ScoredEntry, error) {
	const query = `
		SELECT id, scope_id, text, embedding_model, source, source_id, tags, metadata, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM knowledge_base
		WHERE scope_id = $2
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), scopeID, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoredEntry
	for rows.Next() {
		var item model.ScoredEntry
		var entry model.KnowledgeEntry
		var embeddingModel, sourceID sql.NullString
		var tagsBlob, metadataBlob []byte
		if err := rows.Scan(
			&entry.ID, &entry.ScopeID, &entry.Text, &embeddingModel, &entry.Source,
			&sourceID, &tagsBlob, &metadataBlob, &entry.CreatedAt, &item.Similarity,
		); err != nil {
			return nil, err
		}
		entry.EmbeddingModel = embeddingModel.String
		entry.SourceID = sourceID.String
		if err := decodeJSONColumn(tagsBlob, &entry.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(metadataBlob, &entry.Metadata); err != nil {
			return nil, err
		}
		item.Entry = entry
		item.MatchedScope = scopeID
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *KnowledgeRepo) Insert(ctx context.Context, entry *model.KnowledgeEntry) error {
	tags, err := json.Marshal(emptyIfNilSlice(entry.Tags))
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(emptyIfNilMap(entry.Metadata))
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":              entry.ID,
		"scope_id":        entry.ScopeID,
		"text":            entry.Text,
		"embedding_model": entry.EmbeddingModel,
		"source":          entry.Source,
		"source_id":       entry.SourceID,
		"tags":            tags,
		"metadata":        metadata,
		"created_at":      entry.CreatedAt,
	}
	if entry.Embedding != nil {
		data["embedding"] = pgvector.NewVector(entry.Embedding)
	}
	sqlStr, args, err := builder.BuildInsert("knowledge_base", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// SetEmbedding attaches a vector to a pending entry. Embedded text is
// immutable, so an already-embedded row is left untouched.
func (r *KnowledgeRepo) SetEmbedding(ctx context.Context, id string, vector []float32, embeddingModel string) error {
	const query = `
		UPDATE knowledge_base
		SET embedding = $1, embedding_model = $2
		WHERE id = $3 AND embedding IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(vector), embeddingModel, id)
	return err
}

// ListPending returns entries that still need an embedding, oldest first.
func (r *KnowledgeRepo) ListPending(ctx context.Context, limit int) ([]model.KnowledgeEntry, error) {
	const query = `
		SELECT id, scope_id, text, source, created_at
		FROM knowledge_base
		WHERE embedding IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.KnowledgeEntry
	for rows.Next() {
		var entry model.KnowledgeEntry
		if err := rows.Scan(&entry.ID, &entry.ScopeID, &entry.Text, &entry.Source, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CopyScope bulk-copies every entry of one scope into another, minting new
// ids. Embeddings travel with the text so the target scope is searchable
// immediately.
func (r *KnowledgeRepo) CopyScope(ctx context.Context, fromScope, toScope string) (int64, error) {
	const query = `
		INSERT INTO knowledge_base (id, scope_id, text, embedding, embedding_model, source, source_id, tags, metadata, created_at)
		SELECT gen_random_uuid(), $1, text, embedding, embedding_model, source, source_id, tags, metadata, NOW()
		FROM knowledge_base
		WHERE scope_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, toScope, fromScope)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *KnowledgeRepo) Stats(ctx context.Context, scopeID string) (*model.KnowledgeStats, error) {
	stats := &model.KnowledgeStats{
		ScopeID:  scopeID,
		BySource: map[string]int{},
	}
	const countQuery = `
		SELECT COUNT(*), COUNT(embedding)
		FROM knowledge_base
		WHERE scope_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, scopeID).Scan(&stats.TotalEntries, &stats.EmbeddedEntries); err != nil {
		return nil, err
	}
	stats.PendingEntries = stats.TotalEntries - stats.EmbeddedEntries
	const sourceQuery = `
		SELECT source, COUNT(*)
		FROM knowledge_base
		WHERE scope_id = $1
		GROUP BY source
	`
	rows, err := r.db.QueryContext(ctx, sourceQuery, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		stats.BySource[source] = count
	}
	return stats, rows.Err()
}

// NewKnowledgeEntry builds an unsaved entry with a fresh id.
func NewKnowledgeEntry(scopeID, text, source string) *model.KnowledgeEntry {
	return &model.KnowledgeEntry{
		ID:        idgen.New(),
		ScopeID:   scopeID,
		Text:      text,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

func decodeJSONColumn(blob []byte, dst interface{}) error {
	if len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func emptyIfNilSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyIfNilMap(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return map[string]interface{}{}
	}
	return values
}
