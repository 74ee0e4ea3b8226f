package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/model"
	"github.com/twinchat/twinchat/internal/pkg/dbutil"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_id, chat_id, title, status, context_summary, message_count, last_message_at, created_at, updated_at`

// GetOrCreateActive resolves the single active conversation for the pair,
// creating one when absent. Two concurrent creators race on the partial
// unique index; the loser re-reads the winner's row, so the invariant of
// one active conversation per (user, chat) holds under contention.
func (r *ConversationRepo) GetOrCreateActive(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	existing, err := r.FindActive(ctx, userID, chatID)
	if err != nil && !appErr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := model.NewConversation(idgen.New(), userID, chatID)
	if err := r.insertConversation(ctx, conv); err != nil {
		if dbutil.IsConflict(err) {
			return r.FindActive(ctx, userID, chatID)
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Info("created conversation",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
		zap.String("chat_id", chatID))
	return conv, nil
}

func (r *ConversationRepo) FindActive(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE user_id = $1 AND chat_id = $2 AND status = $3
		LIMIT 1
	`, conversationColumns)
	row := r.db.QueryRowContext(ctx, query, userID, chatID, model.ConversationActive)
	return scanConversation(row)
}

func (r *ConversationRepo) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE id = $1`, conversationColumns)
	row := r.db.QueryRowContext(ctx, query, conversationID)
	return scanConversation(row)
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID, status string) ([]model.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE user_id = $1
	`, conversationColumns)
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY last_message_at DESC NULLS LAST, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conversations []model.Conversation
	for rows.Next() {
		conv, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

// AppendMessage persists a message and bumps the conversation counters in
// the same transaction. Counters are never written directly by callers.
func (r *ConversationRepo) AppendMessage(ctx context.Context, msg *model.Message) error {
	metadata, err := json.Marshal(emptyIfNilMap(msg.Metadata))
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertQuery = `
		INSERT INTO messages (id, conversation_id, external_message_id, direction, content_type, content,
		                      relevance_score, context_entries_used, processing_time_ms, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		msg.ID, msg.ConversationID, msg.ExternalMessageID, msg.Direction, msg.ContentType, msg.Content,
		msg.RelevanceScore, msg.ContextEntriesUsed, msg.ProcessingTimeMs, metadata, msg.CreatedAt,
	); err != nil {
		return err
	}

	const bumpQuery = `
		UPDATE conversations
		SET message_count = message_count + 1, last_message_at = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, bumpQuery, msg.CreatedAt, msg.ConversationID); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentMessages returns the newest messages in chronological order.
func (r *ConversationRepo) RecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	const query = `
		SELECT id, conversation_id, external_message_id, direction, content_type, content,
		       relevance_score, context_entries_used, processing_time_ms, metadata, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ArchiveAndRecreate archives the current active conversation (when one
// exists) and opens a fresh one. Never removes data.
func (r *ConversationRepo) ArchiveAndRecreate(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	const archiveQuery = `
		UPDATE conversations
		SET status = $1, updated_at = NOW()
		WHERE user_id = $2 AND chat_id = $3 AND status = $4
	`
	if _, err := r.db.ExecContext(ctx, archiveQuery, model.ConversationArchived, userID, chatID, model.ConversationActive); err != nil {
		return nil, err
	}
	return r.GetOrCreateActive(ctx, userID, chatID)
}

// Delete removes the conversation and, through the FK cascade, its messages.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, appErr.ErrNotFound)
	}
	return nil
}

func (r *ConversationRepo) insertConversation(ctx context.Context, conv *model.Conversation) error {
	const query = `
		INSERT INTO conversations (id, user_id, chat_id, title, status, context_summary, message_count, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.UserID, conv.ChatID, nullIfEmpty(conv.Title), conv.Status, nullIfEmpty(conv.ContextSummary),
		conv.MessageCount, conv.LastMessageAt, conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row *sql.Row) (*model.Conversation, error) {
	conv, err := scanConversationRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active conversation: %w", appErr.ErrNotFound)
	}
	return conv, err
}

func scanConversationRow(row rowScanner) (*model.Conversation, error) {
	var conv model.Conversation
	var title, contextSummary sql.NullString
	var lastMessageAt sql.NullTime
	if err := row.Scan(
		&conv.ID, &conv.UserID, &conv.ChatID, &title, &conv.Status, &contextSummary,
		&conv.MessageCount, &lastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	conv.Title = title.String
	conv.ContextSummary = contextSummary.String
	if lastMessageAt.Valid {
		t := lastMessageAt.Time
		conv.LastMessageAt = &t
	}
	return &conv, nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var msg model.Message
	var externalID sql.NullInt64
	var relevance sql.NullFloat64
	var contextUsed sql.NullInt64
	var processingMs sql.NullInt64
	var metadataBlob []byte
	if err := row.Scan(
		&msg.ID, &msg.ConversationID, &externalID, &msg.Direction, &msg.ContentType, &msg.Content,
		&relevance, &contextUsed, &processingMs, &metadataBlob, &msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	if externalID.Valid {
		v := externalID.Int64
		msg.ExternalMessageID = &v
	}
	if relevance.Valid {
		v := relevance.Float64
		msg.RelevanceScore = &v
	}
	if contextUsed.Valid {
		v := int(contextUsed.Int64)
		msg.ContextEntriesUsed = &v
	}
	if processingMs.Valid {
		v := processingMs.Int64
		msg.ProcessingTimeMs = &v
	}
	if err := decodeJSONColumn(metadataBlob, &msg.Metadata); err != nil {
		return nil, err
	}
	return &msg, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

