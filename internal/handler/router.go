package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/twinchat/twinchat/internal/middleware"
)

type RouterDeps struct {
	Webhook       *WebhookHandler
	Profiles      *ProfileHandler
	Knowledge     *KnowledgeHandler
	Conversations *ConversationHandler
	AdminSecret   []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/telegram/webhook", deps.Webhook.Receive)

	adminGroup := api.Group("")
	adminGroup.Use(middleware.AdminAuth(deps.AdminSecret))
	adminGroup.Use(middleware.RateLimit(time.Second))

	adminGroup.GET("/profiles/:user_id", deps.Profiles.Get)
	adminGroup.POST("/profiles/:user_id", deps.Profiles.Create)
	adminGroup.PUT("/profiles/:user_id", deps.Profiles.Update)

	adminGroup.POST("/knowledge", deps.Knowledge.Add)
	adminGroup.POST("/knowledge/import", deps.Knowledge.Import)
	adminGroup.POST("/knowledge/backfill", deps.Knowledge.Backfill)
	adminGroup.GET("/knowledge/stats", deps.Knowledge.Stats)

	adminGroup.GET("/conversations", deps.Conversations.List)
	adminGroup.GET("/conversations/:id", deps.Conversations.Show)
	adminGroup.POST("/conversations/clear", deps.Conversations.Clear)
	adminGroup.DELETE("/conversations/:id", deps.Conversations.Delete)
}
