package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a thin Bot API client covering the calls the bot needs:
// sending replies and managing the webhook.
type Client struct {
	token   string
	apiBase string
	client  *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBase is used by tests to point the client at a fake server.
func NewClientWithBase(token, apiBase string) *Client {
	c := NewClient(token)
	c.apiBase = apiBase
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// SendMessage delivers an HTML-formatted reply. If the Bot API rejects the
// markup, the text is resent without a parse mode so the user still gets an
// answer.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	err := c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}, nil)
	if err == nil {
		return nil
	}
	logutil.GetLogger(ctx).Warn("html send failed, retrying as plain text",
		zap.Int64("chat_id", chatID), zap.Error(err))
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	params := map[string]interface{}{
		"url":             url,
		"allowed_updates": []string{"message"},
	}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", params, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]interface{}{}, nil)
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", map[string]interface{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s failed: http %d: %s", method, resp.StatusCode, apiResp.Description)
	}
	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
