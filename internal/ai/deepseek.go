package ai

import "strings"

// DeepSeek speaks the OpenAI chat/embeddings wire format, so the provider
// reuses the openai implementation under its own name and base URL.

const defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

type deepSeekConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

func createDeepSeekChatFactory(args interface{}) (IChatProvider, error) {
	cfg := &deepSeekConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	return &openAIChatProvider{
		name:    "deepseek",
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func createDeepSeekEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &deepSeekConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	return &openAIEmbedProvider{
		name:    "deepseek",
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	RegisterChat("deepseek", createDeepSeekChatFactory)
	RegisterEmbed("deepseek", createDeepSeekEmbedFactory)
}
