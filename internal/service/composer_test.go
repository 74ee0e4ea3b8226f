package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

func testProfile(style, length string) *model.UserProfile {
	profile := model.NewDefaultUserProfile("id-1", "u1")
	profile.CommunicationStyle = style
	profile.ResponseLength = length
	return profile
}

func newTestComposer(embedder *fakeEmbedder, generator *fakeGenerator, searcher KnowledgeSearcher) *ResponseComposer {
	templates := NewPromptTemplateSource(nil, "")
	return NewResponseComposer(embedder, generator, searcher, templates,
		"shared", 5, time.Second, time.Second)
}

func TestTemperatureForStyle(t *testing.T) {
	tests := []struct {
		style string
		want  float64
	}{
		{model.StyleFormal, 0.3},
		{model.StyleCasual, 0.7},
		{model.StyleCreative, 0.9},
		{model.StyleTechnical, 0.2},
		{model.StyleBalanced, 0.5},
		{"unknown", 0.5},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, temperatureForStyle(tt.style), tt.style)
	}
}

func TestMaxTokensForLength(t *testing.T) {
	require.Equal(t, 200, maxTokensForLength(model.LengthShort))
	require.Equal(t, 500, maxTokensForLength(model.LengthMedium))
	require.Equal(t, 800, maxTokensForLength(model.LengthLong))
	require.Equal(t, 500, maxTokensForLength("unknown"))
}

func TestCompose_ProfileDrivesGenerationOptions(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{reply: "hi"}
	searcher := &fakeSearcher{byScope: map[string][]model.ScoredEntry{
		"u1": {entry("p1", "u1", "fact", 0.9)},
	}}
	composer := newTestComposer(embedder, generator, searcher)

	result, err := composer.Compose(context.Background(), "question",
		testProfile(model.StyleCreative, model.LengthLong), nil)
	require.NoError(t, err)
	require.Equal(t, "hi", result.Response)
	require.Equal(t, 0.9, generator.lastOpts.Temperature)
	require.Equal(t, 800, generator.lastOpts.MaxTokens)
	require.Equal(t, 1, result.ContextEntriesUsed)
	require.Equal(t, 0.9, result.RelevanceScore)
	require.Equal(t, "fake-embed", result.EmbeddingModel)
	require.Equal(t, "fake-chat", result.LLMModel)
}

func TestCompose_HistoryRolesAndOrder(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	generator := &fakeGenerator{reply: "ok"}
	composer := newTestComposer(embedder, generator, &fakeSearcher{})

	history := []model.Message{
		{Direction: model.DirectionIncoming, Content: "q1"},
		{Direction: model.DirectionOutgoing, Content: "a1"},
	}
	_, err := composer.Compose(context.Background(), "q2",
		testProfile(model.StyleBalanced, model.LengthMedium), history)
	require.NoError(t, err)

	msgs := generator.lastMsgs
	require.Len(t, msgs, 4)
	require.Equal(t, ai.RoleSystem, msgs[0].Role)
	require.Equal(t, ai.RoleUser, msgs[1].Role)
	require.Equal(t, "q1", msgs[1].Content)
	require.Equal(t, ai.RoleAssistant, msgs[2].Role)
	require.Equal(t, "a1", msgs[2].Content)
	require.Equal(t, ai.RoleUser, msgs[3].Role)
	require.Equal(t, "q2", msgs[3].Content)
}

func TestCompose_HistoryCappedToWindow(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	generator := &fakeGenerator{reply: "ok"}
	composer := newTestComposer(embedder, generator, &fakeSearcher{})

	history := make([]model.Message, 0, 25)
	for i := 0; i < 25; i++ {
		history = append(history, model.Message{Direction: model.DirectionIncoming, Content: fmt.Sprintf("m%d", i)})
	}
	_, err := composer.Compose(context.Background(), "latest",
		testProfile(model.StyleBalanced, model.LengthMedium), history)
	require.NoError(t, err)

	// system + last 10 history turns + current message
	msgs := generator.lastMsgs
	require.Len(t, msgs, 12)
	require.Equal(t, "m15", msgs[1].Content)
	require.Equal(t, "m24", msgs[10].Content)
	require.Equal(t, "latest", msgs[11].Content)
}

func TestCompose_GenerationFailureWrapped(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	generator := &fakeGenerator{err: errors.New("boom")}
	composer := newTestComposer(embedder, generator, &fakeSearcher{})

	_, err := composer.Compose(context.Background(), "q",
		testProfile(model.StyleBalanced, model.LengthMedium), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrGeneration)
}

func TestCompose_EmbeddingFailureWrapped(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("down")}
	generator := &fakeGenerator{}
	composer := newTestComposer(embedder, generator, &fakeSearcher{})

	_, err := composer.Compose(context.Background(), "q",
		testProfile(model.StyleBalanced, model.LengthMedium), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.Equal(t, 0, generator.calls)
}

func TestContextBlock(t *testing.T) {
	require.Equal(t, "", contextBlock(nil))

	entries := []model.ScoredEntry{
		entry("a", "u1", "first fact", 0.93),
		entry("b", "u1", "second fact", 0.71),
	}
	block := contextBlock(entries)
	require.Contains(t, block, "[1] (93%) first fact")
	require.Contains(t, block, "[2] (71%) second fact")
}

func TestStyleGuide_ProfileDetails(t *testing.T) {
	profile := testProfile(model.StyleTechnical, model.LengthShort)
	profile.UseEmojis = false
	profile.KeyInterests = []string{"distributed systems", "chess"}
	profile.ExampleResponses = []string{"It depends on the workload."}

	guide := styleGuide(profile)
	require.Contains(t, guide, "technical")
	require.Contains(t, guide, "Do not use emojis")
	require.Contains(t, guide, "distributed systems, chess")
	require.Contains(t, guide, "It depends on the workload.")
}
