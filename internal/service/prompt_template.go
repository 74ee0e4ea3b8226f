package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/filestore"
)

const fallbackPromptTemplate = `You are a digital twin that answers on behalf of its owner.

{{STYLE_GUIDE}}
{{LENGTH_GUIDE}}
{{LANGUAGE_RULE}}

Use the following knowledge as your primary source of truth. If the knowledge
does not cover the question, say so honestly instead of inventing facts.

{{CONTEXT_BLOCK}}`

// PromptTemplateSource loads the system prompt template from a file store and
// caches it until the backing object changes. A load failure falls back to a
// built-in template and drops the cached signature so the next call retries
// the store.
type PromptTemplateSource struct {
	store filestore.Store
	key   string

	mu        sync.Mutex
	content   string
	signature string
}

func NewPromptTemplateSource(store filestore.Store, key string) *PromptTemplateSource {
	return &PromptTemplateSource{store: store, key: key}
}

func (s *PromptTemplateSource) Template(ctx context.Context) string {
	if s.store == nil || s.key == "" {
		return fallbackPromptTemplate
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, err := s.store.Stat(ctx, s.key)
	if err != nil {
		logutil.GetLogger(ctx).Warn("stat prompt template failed, using fallback",
			zap.String("key", s.key), zap.Error(err))
		s.signature = ""
		return fallbackPromptTemplate
	}
	if sig == s.signature && s.content != "" {
		return s.content
	}

	rc, err := s.store.Open(ctx, s.key)
	if err != nil {
		logutil.GetLogger(ctx).Warn("open prompt template failed, using fallback",
			zap.String("key", s.key), zap.Error(err))
		s.signature = ""
		return fallbackPromptTemplate
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		logutil.GetLogger(ctx).Warn("read prompt template failed, using fallback",
			zap.String("key", s.key), zap.Error(err))
		s.signature = ""
		return fallbackPromptTemplate
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		logutil.GetLogger(ctx).Warn("prompt template is empty, using fallback", zap.String("key", s.key))
		s.signature = ""
		return fallbackPromptTemplate
	}
	s.content = content
	s.signature = sig
	logutil.GetLogger(ctx).Info("prompt template reloaded",
		zap.String("key", s.key), zap.String("signature", sig))
	return s.content
}
