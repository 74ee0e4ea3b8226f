package model

import (
	"fmt"
	"time"

	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

const (
	StyleFormal    = "formal"
	StyleCasual    = "casual"
	StyleCreative  = "creative"
	StyleTechnical = "technical"
	StyleBalanced  = "balanced"
)

const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

const (
	// BotModeSilent never replies, BotModeActive replies when the message is
	// relevant, BotModeAggressive replies even when it is not.
	BotModeSilent     = "silent"
	BotModeActive     = "active"
	BotModeAggressive = "aggressive"
)

// UserProfile holds the per-user reply policy and voice settings.
type UserProfile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	CommunicationStyle string    `json:"communication_style"`
	ResponseLength     string    `json:"response_length"`
	UseEmojis          bool      `json:"use_emojis"`
	KeyInterests       []string  `json:"key_interests"`
	ExampleResponses   []string  `json:"example_responses"`
	RelevanceThreshold float64   `json:"relevance_threshold"`
	BotMode            string    `json:"bot_mode"`
	EmbeddingProvider  string    `json:"embedding_provider,omitempty"`
	EmbeddingModel     string    `json:"embedding_model,omitempty"`
	EmbeddingDimension int       `json:"embedding_dimension,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewDefaultUserProfile builds the profile used for lazily created users:
// the bot answers relevant messages in a creative voice.
func NewDefaultUserProfile(id, userID string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		ID:                 id,
		UserID:             userID,
		CommunicationStyle: StyleCreative,
		ResponseLength:     LengthMedium,
		UseEmojis:          true,
		RelevanceThreshold: 0.65,
		BotMode:            BotModeActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (p *UserProfile) IsActive() bool {
	return p.BotMode != BotModeSilent
}

func (p *UserProfile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id is required", appErr.ErrInvalid)
	}
	if p.RelevanceThreshold < 0 || p.RelevanceThreshold > 1 {
		return fmt.Errorf("%w: relevance_threshold must be within [0,1], got %v", appErr.ErrInvalid, p.RelevanceThreshold)
	}
	switch p.CommunicationStyle {
	case StyleFormal, StyleCasual, StyleCreative, StyleTechnical, StyleBalanced:
	default:
		return fmt.Errorf("%w: unknown communication style: %s", appErr.ErrInvalid, p.CommunicationStyle)
	}
	switch p.ResponseLength {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return fmt.Errorf("%w: unknown response length: %s", appErr.ErrInvalid, p.ResponseLength)
	}
	switch p.BotMode {
	case BotModeSilent, BotModeActive, BotModeAggressive:
	default:
		return fmt.Errorf("%w: unknown bot mode: %s", appErr.ErrInvalid, p.BotMode)
	}
	return nil
}
