package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

// ProfileUpdate carries the fields an operator may change; nil means keep.
type ProfileUpdate struct {
	CommunicationStyle *string  `json:"communication_style,omitempty"`
	ResponseLength     *string  `json:"response_length,omitempty"`
	UseEmojis          *bool    `json:"use_emojis,omitempty"`
	KeyInterests       []string `json:"key_interests,omitempty"`
	ExampleResponses   []string `json:"example_responses,omitempty"`
	RelevanceThreshold *float64 `json:"relevance_threshold,omitempty"`
	BotMode            *string  `json:"bot_mode,omitempty"`
}

// ProfileService is the operator surface over user profiles.
type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	return s.profiles.FindByUserID(ctx, userID)
}

// Create builds a default profile for the user and applies the update on
// top, failing if a profile already exists.
func (s *ProfileService) Create(ctx context.Context, userID string, update *ProfileUpdate) (*model.UserProfile, error) {
	if _, err := s.profiles.FindByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("%w: profile for %s already exists", appErr.ErrConflict, userID)
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	profile := model.NewDefaultUserProfile(idgen.New(), userID)
	applyProfileUpdate(profile, update)
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "create profile", err)
	}
	logutil.GetLogger(ctx).Info("profile created", zap.String("user_id", userID))
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, update *ProfileUpdate) (*model.UserProfile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyProfileUpdate(profile, update)
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "update profile", err)
	}
	logutil.GetLogger(ctx).Info("profile updated", zap.String("user_id", userID))
	return profile, nil
}

func applyProfileUpdate(profile *model.UserProfile, update *ProfileUpdate) {
	if update == nil {
		return
	}
	if update.CommunicationStyle != nil {
		profile.CommunicationStyle = *update.CommunicationStyle
	}
	if update.ResponseLength != nil {
		profile.ResponseLength = *update.ResponseLength
	}
	if update.UseEmojis != nil {
		profile.UseEmojis = *update.UseEmojis
	}
	if update.KeyInterests != nil {
		profile.KeyInterests = update.KeyInterests
	}
	if update.ExampleResponses != nil {
		profile.ExampleResponses = update.ExampleResponses
	}
	if update.RelevanceThreshold != nil {
		profile.RelevanceThreshold = *update.RelevanceThreshold
	}
	if update.BotMode != nil {
		profile.BotMode = *update.BotMode
	}
}
