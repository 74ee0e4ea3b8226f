package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/twinchat/twinchat/internal/pkg/errcode"
	"github.com/twinchat/twinchat/internal/pkg/response"
	"github.com/twinchat/twinchat/internal/service"
)

type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

type addEntryRequest struct {
	ScopeID  string                 `json:"scope_id" binding:"required"`
	Text     string                 `json:"text" binding:"required"`
	Source   string                 `json:"source"`
	Tags     []string               `json:"tags"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *KnowledgeHandler) Add(c *gin.Context) {
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}
	entry, err := h.knowledge.AddEntry(c.Request.Context(), req.ScopeID, req.Text, source, req.Tags, req.Metadata)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

type importRequest struct {
	Key     string `json:"key" binding:"required"`
	ScopeID string `json:"scope_id" binding:"required"`
}

func (h *KnowledgeHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	inserted, err := h.knowledge.Import(c.Request.Context(), req.Key, req.ScopeID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"inserted": inserted})
}

func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.knowledge.Stats(c.Request.Context(), c.Query("scope_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

type backfillRequest struct {
	Limit int `json:"limit"`
}

func (h *KnowledgeHandler) Backfill(c *gin.Context) {
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 32
	}
	filled, err := h.knowledge.BackfillPending(c.Request.Context(), req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"filled": filled})
}
