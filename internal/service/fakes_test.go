package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

type fakeEmbedder struct {
	calls  int
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls += len(texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeGenerator struct {
	calls    int
	reply    string
	err      error
	lastMsgs []ai.ChatMessage
	lastOpts ai.ChatOptions
}

func (f *fakeGenerator) GenerateWithHistory(ctx context.Context, messages []ai.ChatMessage, opts ai.ChatOptions) (string, error) {
	f.calls++
	f.lastMsgs = messages
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) ModelName() string { return "fake-chat" }

// fakeSearcher serves canned per-scope results, applying threshold and limit
// the way the real store does.
type fakeSearcher struct {
	byScope map[string][]model.ScoredEntry
	err     error
	// ignoreThreshold simulates a store that returns weaker matches than
	// asked for.
	ignoreThreshold bool
}

func (f *fakeSearcher) FindSimilar(ctx context.Context, vector []float32, scopeID string, threshold float64, limit int) ([]model.ScoredEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ScoredEntry
	for _, row := range f.byScope[scopeID] {
		if f.ignoreThreshold || row.Similarity >= threshold {
			row.MatchedScope = scopeID
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeKnowledgeStore struct {
	fakeSearcher
	copies   []string
	copyErr  error
	inserted []*model.KnowledgeEntry
}

func (f *fakeKnowledgeStore) Insert(ctx context.Context, entry *model.KnowledgeEntry) error {
	f.inserted = append(f.inserted, entry)
	return nil
}

func (f *fakeKnowledgeStore) SetEmbedding(ctx context.Context, id string, vector []float32, embeddingModel string) error {
	return nil
}

func (f *fakeKnowledgeStore) ListPending(ctx context.Context, limit int) ([]model.KnowledgeEntry, error) {
	return nil, nil
}

func (f *fakeKnowledgeStore) CopyScope(ctx context.Context, fromScope, toScope string) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies = append(f.copies, fromScope+"->"+toScope)
	return 3, nil
}

func (f *fakeKnowledgeStore) Stats(ctx context.Context, scopeID string) (*model.KnowledgeStats, error) {
	return &model.KnowledgeStats{}, nil
}

type fakeProfileStore struct {
	profiles map[string]*model.UserProfile
	saves    int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*model.UserProfile)}
}

func (f *fakeProfileStore) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", appErr.ErrNotFound, userID)
	}
	return profile, nil
}

func (f *fakeProfileStore) Save(ctx context.Context, profile *model.UserProfile) error {
	f.saves++
	f.profiles[profile.UserID] = profile
	return nil
}

type fakeConversationStore struct {
	conv     *model.Conversation
	appended []*model.Message
	history  []model.Message
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{
		conv: &model.Conversation{ID: "conv-1", UserID: "u1", ChatID: "c1", Status: model.ConversationActive},
	}
}

func (f *fakeConversationStore) GetOrCreateActive(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConversationStore) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConversationStore) ListByUser(ctx context.Context, userID, status string) ([]model.Conversation, error) {
	return []model.Conversation{*f.conv}, nil
}

func (f *fakeConversationStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	f.appended = append(f.appended, msg)
	return nil
}

func (f *fakeConversationStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return f.history, nil
}

func (f *fakeConversationStore) ArchiveAndRecreate(ctx context.Context, userID, chatID string) (*model.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConversationStore) Delete(ctx context.Context, conversationID string) error {
	return nil
}
