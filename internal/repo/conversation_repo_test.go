package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/pkg/idgen"
)

func TestConversationRepo_GetOrCreateActiveIsStable(t *testing.T) {
	database := openTestDB(t)
	repo := NewConversationRepo(database)
	ctx := context.Background()

	first, err := repo.GetOrCreateActive(ctx, "u1", "c1")
	require.NoError(t, err)
	second, err := repo.GetOrCreateActive(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	// A different chat gets its own conversation.
	other, err := repo.GetOrCreateActive(ctx, "u1", "c2")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestConversationRepo_ActiveUniquenessUnderContention(t *testing.T) {
	database := openTestDB(t)
	repo := NewConversationRepo(database)
	ctx := context.Background()

	done := make(chan *model.Conversation, 8)
	for i := 0; i < 8; i++ {
		go func() {
			conv, err := repo.GetOrCreateActive(ctx, "racer", "chat")
			if err != nil {
				done <- nil
				return
			}
			done <- conv
		}()
	}
	ids := make(map[string]struct{})
	for i := 0; i < 8; i++ {
		conv := <-done
		require.NotNil(t, conv)
		ids[conv.ID] = struct{}{}
	}
	require.Len(t, ids, 1)

	var count int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM conversations WHERE user_id = 'racer' AND chat_id = 'chat' AND status = 'active'`,
	).Scan(&count))
	require.Equal(t, 1, count)
}

func TestConversationRepo_AppendAndRecentRoundTrip(t *testing.T) {
	database := openTestDB(t)
	repo := NewConversationRepo(database)
	ctx := context.Background()

	conv, err := repo.GetOrCreateActive(ctx, "u1", "c1")
	require.NoError(t, err)

	externalID := int64(777)
	incoming := model.NewIncomingMessage(idgen.New(), conv.ID, "question", &externalID)
	require.NoError(t, repo.AppendMessage(ctx, incoming))
	outgoing := model.NewOutgoingMessage(idgen.New(), conv.ID, "answer", 0.88, 3, 1200)
	require.NoError(t, repo.AppendMessage(ctx, outgoing))

	messages, err := repo.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	require.Equal(t, "question", messages[0].Content)
	require.Equal(t, model.DirectionIncoming, messages[0].Direction)
	require.Nil(t, messages[0].RelevanceScore)
	require.Nil(t, messages[0].ContextEntriesUsed)
	require.NotNil(t, messages[0].ExternalMessageID)
	require.Equal(t, int64(777), *messages[0].ExternalMessageID)

	require.Equal(t, "answer", messages[1].Content)
	require.Equal(t, model.DirectionOutgoing, messages[1].Direction)
	require.NotNil(t, messages[1].RelevanceScore)
	require.Equal(t, 0.88, *messages[1].RelevanceScore)
	require.NotNil(t, messages[1].ContextEntriesUsed)
	require.Equal(t, 3, *messages[1].ContextEntriesUsed)

	refreshed, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed.MessageCount)
	require.NotNil(t, refreshed.LastMessageAt)
}

func TestConversationRepo_ArchiveAndRecreate(t *testing.T) {
	database := openTestDB(t)
	repo := NewConversationRepo(database)
	ctx := context.Background()

	before, err := repo.GetOrCreateActive(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, model.NewIncomingMessage(idgen.New(), before.ID, "hi", nil)))

	fresh, err := repo.ArchiveAndRecreate(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotEqual(t, before.ID, fresh.ID)
	require.Equal(t, 0, fresh.MessageCount)

	archived, err := repo.FindByID(ctx, before.ID)
	require.NoError(t, err)
	require.Equal(t, model.ConversationArchived, archived.Status)
	require.Equal(t, 1, archived.MessageCount)
}

func TestConversationRepo_DeleteCascades(t *testing.T) {
	database := openTestDB(t)
	repo := NewConversationRepo(database)
	ctx := context.Background()

	conv, err := repo.GetOrCreateActive(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, model.NewIncomingMessage(idgen.New(), conv.ID, "hi", nil)))
	require.NoError(t, repo.Delete(ctx, conv.ID))

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conv.ID).Scan(&count))
	require.Equal(t, 0, count)

	err = repo.Delete(ctx, conv.ID)
	require.True(t, appErr.IsNotFound(err))
}
