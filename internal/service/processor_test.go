package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/model"
)

type processorFixture struct {
	embedder      *fakeEmbedder
	generator     *fakeGenerator
	knowledge     *fakeKnowledgeStore
	profiles      *fakeProfileStore
	conversations *fakeConversationStore
	processor     *MessageProcessor
}

func newProcessorFixture(knowledge *fakeKnowledgeStore) *processorFixture {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{reply: "the reply"}
	profiles := newFakeProfileStore()
	conversations := newFakeConversationStore()

	gate := NewRelevanceGate(embedder, knowledge, "shared", 5, time.Second)
	templates := NewPromptTemplateSource(nil, "")
	composer := NewResponseComposer(embedder, generator, knowledge, templates,
		"shared", 5, time.Second, time.Second)
	processor := NewMessageProcessor(profiles, conversations, knowledge,
		gate, composer, "shared", 10)

	return &processorFixture{
		embedder:      embedder,
		generator:     generator,
		knowledge:     knowledge,
		profiles:      profiles,
		conversations: conversations,
		processor:     processor,
	}
}

func request(text string) *ProcessRequest {
	return &ProcessRequest{Text: text, UserID: "u1", ChatID: "c1"}
}

func TestHandle_SilentModeShortCircuits(t *testing.T) {
	fx := newProcessorFixture(&fakeKnowledgeStore{})
	profile := model.NewDefaultUserProfile("id-1", "u1")
	profile.BotMode = model.BotModeSilent
	fx.profiles.profiles["u1"] = profile

	result, err := fx.processor.Handle(context.Background(), request("hello"))
	require.NoError(t, err)
	require.False(t, result.ShouldRespond)
	require.Equal(t, "silent mode", result.Reason)
	require.Equal(t, 0, fx.embedder.calls)
	require.Equal(t, 0, fx.generator.calls)

	// The inbound message is still written to the log.
	require.Len(t, fx.conversations.appended, 1)
	require.Equal(t, model.DirectionIncoming, fx.conversations.appended[0].Direction)
}

func TestHandle_BelowThresholdDoesNotRespond(t *testing.T) {
	// The store hands back a 0.65 match even though the profile threshold
	// is 0.7; the gate has to report the score but refuse to respond.
	knowledge := &fakeKnowledgeStore{fakeSearcher: fakeSearcher{
		byScope: map[string][]model.ScoredEntry{
			"u1": {entry("p1", "u1", "fact", 0.65)},
		},
		ignoreThreshold: true,
	}}
	fx := newProcessorFixture(knowledge)
	profile := model.NewDefaultUserProfile("id-1", "u1")
	profile.RelevanceThreshold = 0.7
	fx.profiles.profiles["u1"] = profile

	result, err := fx.processor.Handle(context.Background(), request("hello"))
	require.NoError(t, err)
	require.False(t, result.ShouldRespond)
	require.Equal(t, "not relevant", result.Reason)
	require.Equal(t, 0.65, result.RelevanceScore)
	require.Equal(t, 1, result.MatchesFound)
	require.Equal(t, 0, fx.generator.calls)
}

func TestHandle_AggressiveModeRespondsWithoutMatches(t *testing.T) {
	fx := newProcessorFixture(&fakeKnowledgeStore{})
	profile := model.NewDefaultUserProfile("id-1", "u1")
	profile.RelevanceThreshold = 0.7
	profile.BotMode = model.BotModeAggressive
	fx.profiles.profiles["u1"] = profile

	result, err := fx.processor.Handle(context.Background(), request("hello"))
	require.NoError(t, err)
	require.True(t, result.ShouldRespond)
	require.Equal(t, "the reply", result.Response)
	require.Equal(t, 1, fx.generator.calls)

	require.Len(t, fx.conversations.appended, 2)
	outgoing := fx.conversations.appended[1]
	require.Equal(t, model.DirectionOutgoing, outgoing.Direction)
	require.NotNil(t, outgoing.RelevanceScore)
	require.NotNil(t, outgoing.ContextEntriesUsed)
	require.NotNil(t, outgoing.ProcessingTimeMs)
}

func TestHandle_RelevantMessageResponds(t *testing.T) {
	knowledge := &fakeKnowledgeStore{fakeSearcher: fakeSearcher{
		byScope: map[string][]model.ScoredEntry{
			"u1": {entry("p1", "u1", "fact", 0.9)},
		},
	}}
	fx := newProcessorFixture(knowledge)
	fx.profiles.profiles["u1"] = model.NewDefaultUserProfile("id-1", "u1")

	result, err := fx.processor.Handle(context.Background(), request("hello"))
	require.NoError(t, err)
	require.True(t, result.ShouldRespond)
	require.Equal(t, 0.9, result.RelevanceScore)
	require.Equal(t, 1, result.MatchesFound)
	require.Equal(t, 1, result.ContextEntriesUsed)
}

func TestHandle_LazyProfileCreationCopiesSharedScope(t *testing.T) {
	knowledge := &fakeKnowledgeStore{}
	fx := newProcessorFixture(knowledge)

	result, err := fx.processor.Handle(context.Background(), request("first contact"))
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	require.Equal(t, model.BotModeActive, result.Profile.BotMode)
	require.Equal(t, model.StyleCreative, result.Profile.CommunicationStyle)
	require.Equal(t, 0.65, result.Profile.RelevanceThreshold)
	require.Equal(t, 1, fx.profiles.saves)
	require.Equal(t, []string{"shared->u1"}, knowledge.copies)
}

func TestHandle_SharedCopyFailureDoesNotFailTurn(t *testing.T) {
	knowledge := &fakeKnowledgeStore{copyErr: context.DeadlineExceeded}
	fx := newProcessorFixture(knowledge)

	result, err := fx.processor.Handle(context.Background(), request("first contact"))
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	require.Equal(t, 1, fx.profiles.saves)
	require.Empty(t, knowledge.copies)
}
