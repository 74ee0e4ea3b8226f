package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/model"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

const languageDirective = "Always answer in the same language the question was asked in."

// historyWindow caps the history turns sent to the generator, whatever the
// configured fetch limit is.
const historyWindow = 10

// ResponseComposer turns an inbound message, the owner's profile and the
// retrieved knowledge into a generated reply.
type ResponseComposer struct {
	embedder        ai.IEmbedder
	generator       ai.IChatGenerator
	knowledge       KnowledgeSearcher
	templates       *PromptTemplateSource
	sharedScopeID   string
	retrieveLimit   int
	embedTimeout    time.Duration
	generateTimeout time.Duration
}

func NewResponseComposer(embedder ai.IEmbedder, generator ai.IChatGenerator, knowledge KnowledgeSearcher,
	templates *PromptTemplateSource, sharedScopeID string, retrieveLimit int,
	embedTimeout, generateTimeout time.Duration) *ResponseComposer {

	return &ResponseComposer{
		embedder:        embedder,
		generator:       generator,
		knowledge:       knowledge,
		templates:       templates,
		sharedScopeID:   sharedScopeID,
		retrieveLimit:   retrieveLimit,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
	}
}

func (c *ResponseComposer) Compose(ctx context.Context, message string, profile *model.UserProfile, history []model.Message) (*model.ResponseResult, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", profile.UserID))

	vector, err := embedWithTimeout(ctx, c.embedder, message, c.embedTimeout)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrEmbedding, "compose response: embed message", err)
	}

	entries, err := findSimilarAcrossScopes(ctx, c.knowledge, vector, profile.UserID, c.sharedScopeID,
		profile.RelevanceThreshold, c.retrieveLimit)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStore, "compose response: search knowledge", err)
	}

	systemPrompt := c.buildSystemPrompt(ctx, profile, entries)
	messages := buildChatMessages(systemPrompt, history, message)
	opts := ai.ChatOptions{
		Temperature: temperatureForStyle(profile.CommunicationStyle),
		MaxTokens:   maxTokensForLength(profile.ResponseLength),
	}

	genCtx := ctx
	if c.generateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, c.generateTimeout)
		defer cancel()
	}
	reply, err := c.generator.GenerateWithHistory(genCtx, messages, opts)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrGeneration, "compose response: generate", err)
	}

	result := &model.ResponseResult{
		Response:           reply,
		ContextEntriesUsed: len(entries),
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
		EmbeddingModel:     c.embedder.ModelName(),
		LLMModel:           c.generator.ModelName(),
	}
	if len(entries) > 0 {
		result.RelevanceScore = entries[0].Similarity
	}
	logger.Info("response composed",
		zap.Int("context_entries", result.ContextEntriesUsed),
		zap.Float64("top_similarity", result.RelevanceScore),
		zap.Int64("duration_ms", result.ProcessingTimeMs))
	return result, nil
}

func (c *ResponseComposer) buildSystemPrompt(ctx context.Context, profile *model.UserProfile, entries []model.ScoredEntry) string {
	prompt := c.templates.Template(ctx)
	prompt = strings.ReplaceAll(prompt, "{{STYLE_GUIDE}}", styleGuide(profile))
	prompt = strings.ReplaceAll(prompt, "{{LENGTH_GUIDE}}", lengthGuide(profile.ResponseLength))
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGE_RULE}}", languageDirective)
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT_BLOCK}}", contextBlock(entries))
	return prompt
}

func buildChatMessages(systemPrompt string, history []model.Message, current string) []ai.ChatMessage {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := ai.RoleUser
		if m.Direction == model.DirectionOutgoing {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: current})
	return messages
}

func contextBlock(entries []model.ScoredEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("[%d] (%.0f%%) %s", i+1, e.Similarity*100, e.Entry.Text))
	}
	return strings.Join(lines, "\n\n")
}

func temperatureForStyle(style string) float64 {
	switch style {
	case model.StyleFormal:
		return 0.3
	case model.StyleCasual:
		return 0.7
	case model.StyleCreative:
		return 0.9
	case model.StyleTechnical:
		return 0.2
	default:
		return 0.5
	}
}

func maxTokensForLength(length string) int {
	switch length {
	case model.LengthShort:
		return 200
	case model.LengthLong:
		return 800
	default:
		return 500
	}
}

func styleGuide(profile *model.UserProfile) string {
	var sb strings.Builder
	switch profile.CommunicationStyle {
	case model.StyleFormal:
		sb.WriteString("Write precisely and respectfully, in a formal register.")
	case model.StyleCasual:
		sb.WriteString("Write plainly and conversationally, as if chatting with a friend.")
	case model.StyleCreative:
		sb.WriteString("Write with personality. Metaphors and vivid phrasing are welcome.")
	case model.StyleTechnical:
		sb.WriteString("Write in a structured, technical manner with exact terminology.")
	default:
		sb.WriteString("Write in a clear, balanced tone.")
	}
	if profile.UseEmojis {
		sb.WriteString(" Feel free to use emojis where they fit naturally.")
	} else {
		sb.WriteString(" Do not use emojis.")
	}
	if len(profile.KeyInterests) > 0 {
		fmt.Fprintf(&sb, " The owner is particularly interested in: %s.", strings.Join(profile.KeyInterests, ", "))
	}
	if len(profile.ExampleResponses) > 0 {
		sb.WriteString("\nExamples of how the owner typically answers:")
		for _, ex := range profile.ExampleResponses {
			sb.WriteString("\n- ")
			sb.WriteString(ex)
		}
	}
	return sb.String()
}

func lengthGuide(length string) string {
	switch length {
	case model.LengthShort:
		return "Keep the answer to two or three sentences."
	case model.LengthLong:
		return "Give a detailed answer with examples where helpful."
	default:
		return "Keep the answer to three to five sentences."
	}
}
