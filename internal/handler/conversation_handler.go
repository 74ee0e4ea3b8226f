package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/twinchat/twinchat/internal/pkg/errcode"
	"github.com/twinchat/twinchat/internal/pkg/response"
	"github.com/twinchat/twinchat/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
}

func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	rows, err := h.conversations.List(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rows)
}

func (h *ConversationHandler) Show(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	conv, messages, err := h.conversations.Show(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"conversation": conv, "messages": messages})
}

type clearRequest struct {
	UserID string `json:"user_id" binding:"required"`
	ChatID string `json:"chat_id" binding:"required"`
}

func (h *ConversationHandler) Clear(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	conv, err := h.conversations.Clear(c.Request.Context(), req.UserID, req.ChatID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.conversations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
