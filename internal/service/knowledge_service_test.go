package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKnowledgeService_AddEntry(t *testing.T) {
	store := &fakeKnowledgeStore{}
	embedder := &fakeEmbedder{vector: []float32{1, 2}}
	svc := NewKnowledgeService(store, embedder, nil, time.Second)

	entry, err := svc.AddEntry(context.Background(), "u1", "a fact", "manual", []string{"t"}, nil)
	require.NoError(t, err)
	require.Equal(t, "u1", entry.ScopeID)
	require.Equal(t, []float32{1, 2}, entry.Embedding)
	require.Equal(t, "fake-embed", entry.EmbeddingModel)
	require.Len(t, store.inserted, 1)
}

func TestKnowledgeService_AddEntryValidates(t *testing.T) {
	svc := NewKnowledgeService(&fakeKnowledgeStore{}, &fakeEmbedder{vector: []float32{1}}, nil, time.Second)
	_, err := svc.AddEntry(context.Background(), "", "text", "manual", nil, nil)
	require.Error(t, err)
	_, err = svc.AddEntry(context.Background(), "u1", "", "manual", nil, nil)
	require.Error(t, err)
}

func TestKnowledgeService_ImportWithVectors(t *testing.T) {
	files := &fakeFileStore{content: `[{"text":"one","tags":["a"]},{"text":"two"},{"text":""}]`}
	store := &fakeKnowledgeStore{}
	svc := NewKnowledgeService(store, &fakeEmbedder{vector: []float32{1}}, files, time.Second)

	inserted, err := svc.Import(context.Background(), "import.json", "shared")
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Len(t, store.inserted, 2)
	require.Equal(t, "import", store.inserted[0].Source)
	require.Equal(t, []float32{1}, store.inserted[0].Embedding)
	require.Equal(t, []string{"a"}, store.inserted[0].Tags)
}

func TestKnowledgeService_ImportSurvivesEmbeddingFailure(t *testing.T) {
	files := &fakeFileStore{content: `[{"text":"one"},{"text":"two"}]`}
	store := &fakeKnowledgeStore{}
	svc := NewKnowledgeService(store, &fakeEmbedder{err: errors.New("down")}, files, time.Second)

	inserted, err := svc.Import(context.Background(), "import.json", "shared")
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	for _, e := range store.inserted {
		require.Nil(t, e.Embedding)
	}
}

func TestKnowledgeService_ImportRejectsBadJSON(t *testing.T) {
	files := &fakeFileStore{content: `{"not":"an array"`}
	svc := NewKnowledgeService(&fakeKnowledgeStore{}, &fakeEmbedder{vector: []float32{1}}, files, time.Second)
	_, err := svc.Import(context.Background(), "import.json", "shared")
	require.Error(t, err)
}
