package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	const query = `
		SELECT id, user_id, communication_style, response_length, use_emojis, key_interests, example_responses,
		       relevance_threshold, bot_mode, embedding_provider, embedding_model, embedding_dimension,
		       created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)
	var profile model.UserProfile
	var interestsBlob, examplesBlob []byte
	var embeddingProvider, embeddingModel sql.NullString
	var embeddingDimension sql.NullInt64
	err := row.Scan(
		&profile.ID, &profile.UserID, &profile.CommunicationStyle, &profile.ResponseLength, &profile.UseEmojis,
		&interestsBlob, &examplesBlob, &profile.RelevanceThreshold, &profile.BotMode,
		&embeddingProvider, &embeddingModel, &embeddingDimension,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile for user %s: %w", userID, appErr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(interestsBlob, &profile.KeyInterests); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(examplesBlob, &profile.ExampleResponses); err != nil {
		return nil, err
	}
	profile.EmbeddingProvider = embeddingProvider.String
	profile.EmbeddingModel = embeddingModel.String
	profile.EmbeddingDimension = int(embeddingDimension.Int64)
	return &profile, nil
}

// Save upserts by user_id; one profile per user.
func (r *ProfileRepo) Save(ctx context.Context, profile *model.UserProfile) error {
	interests, err := json.Marshal(emptyIfNilSlice(profile.KeyInterests))
	if err != nil {
		return err
	}
	examples, err := json.Marshal(emptyIfNilSlice(profile.ExampleResponses))
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO user_profiles (id, user_id, communication_style, response_length, use_emojis, key_interests,
		                           example_responses, relevance_threshold, bot_mode, embedding_provider,
		                           embedding_model, embedding_dimension, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			communication_style = EXCLUDED.communication_style,
			response_length = EXCLUDED.response_length,
			use_emojis = EXCLUDED.use_emojis,
			key_interests = EXCLUDED.key_interests,
			example_responses = EXCLUDED.example_responses,
			relevance_threshold = EXCLUDED.relevance_threshold,
			bot_mode = EXCLUDED.bot_mode,
			embedding_provider = EXCLUDED.embedding_provider,
			embedding_model = EXCLUDED.embedding_model,
			embedding_dimension = EXCLUDED.embedding_dimension,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.CommunicationStyle, profile.ResponseLength, profile.UseEmojis,
		interests, examples, profile.RelevanceThreshold, profile.BotMode,
		nullIfEmpty(profile.EmbeddingProvider), nullIfEmpty(profile.EmbeddingModel), nullIfZero(profile.EmbeddingDimension),
		profile.CreatedAt, profile.UpdatedAt,
	)
	return err
}

func (r *ProfileRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfZero(value int) interface{} {
	if value == 0 {
		return nil
	}
	return value
}
