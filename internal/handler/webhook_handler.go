package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/model"
	"github.com/twinchat/twinchat/internal/service"
	"github.com/twinchat/twinchat/internal/telegram"
)

// UpdateProcessor is the slice of the message pipeline the webhook needs.
type UpdateProcessor interface {
	Handle(ctx context.Context, req *service.ProcessRequest) (*model.ProcessingResult, error)
}

// ReplySender delivers a composed reply back to the chat.
type ReplySender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// WebhookHandler receives Bot API updates, drives the processing pipeline
// and delivers the reply. It always acknowledges with 200 so the Bot API
// does not redeliver failed updates.
type WebhookHandler struct {
	processor   UpdateProcessor
	sender      ReplySender
	renderer    *telegram.HTMLRenderer
	secretToken string
}

func NewWebhookHandler(processor UpdateProcessor, sender ReplySender, secretToken string) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		sender:      sender,
		renderer:    telegram.NewHTMLRenderer(),
		secretToken: secretToken,
	}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logutil.GetLogger(ctx)

	if h.secretToken != "" {
		got := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secretToken)) != 1 {
			logger.Warn("webhook secret token mismatch")
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		logger.Warn("malformed webhook update", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil || msg.From.IsBot {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	req := &service.ProcessRequest{
		Text:              msg.Text,
		UserID:            formatID(msg.From.ID),
		ChatID:            formatID(msg.Chat.ID),
		ExternalMessageID: &msg.MessageID,
	}
	result, err := h.processor.Handle(ctx, req)
	if err != nil {
		logger.Error("handle update failed", zap.Int64("update_id", update.UpdateID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if !result.ShouldRespond {
		logger.Info("no reply for update",
			zap.Int64("update_id", update.UpdateID), zap.String("reason", result.Reason))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	html, err := h.renderer.Render(result.Response)
	if err != nil {
		html = result.Response
	}
	if err := h.sender.SendMessage(ctx, msg.Chat.ID, html); err != nil {
		logger.Error("send reply failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
