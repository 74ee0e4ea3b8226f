package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

func TestProfileRepo_SaveAndFindRoundTrip(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepo(database)
	ctx := context.Background()

	profile := model.NewDefaultUserProfile(idgen.New(), "u1")
	profile.CommunicationStyle = model.StyleTechnical
	profile.ResponseLength = model.LengthLong
	profile.UseEmojis = false
	profile.KeyInterests = []string{"stoicism", "ethics"}
	profile.ExampleResponses = []string{"Virtue is the only good."}
	profile.EmbeddingProvider = "openai"
	profile.EmbeddingModel = "text-embedding-3-small"
	profile.EmbeddingDimension = 1536
	require.NoError(t, repo.Save(ctx, profile))

	loaded, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, profile.ID, loaded.ID)
	require.Equal(t, model.StyleTechnical, loaded.CommunicationStyle)
	require.Equal(t, model.LengthLong, loaded.ResponseLength)
	require.False(t, loaded.UseEmojis)
	require.Equal(t, []string{"stoicism", "ethics"}, loaded.KeyInterests)
	require.Equal(t, []string{"Virtue is the only good."}, loaded.ExampleResponses)
	require.InDelta(t, 0.65, loaded.RelevanceThreshold, 1e-9)
	require.Equal(t, model.BotModeActive, loaded.BotMode)
	require.Equal(t, "openai", loaded.EmbeddingProvider)
	require.Equal(t, 1536, loaded.EmbeddingDimension)
}

func TestProfileRepo_SaveUpsertsByUserID(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepo(database)
	ctx := context.Background()

	profile := model.NewDefaultUserProfile(idgen.New(), "u1")
	require.NoError(t, repo.Save(ctx, profile))

	profile.BotMode = model.BotModeSilent
	profile.RelevanceThreshold = 0.8
	require.NoError(t, repo.Save(ctx, profile))

	loaded, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, model.BotModeSilent, loaded.BotMode)
	require.InDelta(t, 0.8, loaded.RelevanceThreshold, 1e-9)

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, ids)
}

func TestProfileRepo_FindMissingUser(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepo(database)

	_, err := repo.FindByUserID(context.Background(), "nobody")
	require.True(t, appErr.IsNotFound(err))
}
