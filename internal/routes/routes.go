package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pawmates/pawmates-backend/internal/handler"
	"github.com/pawmates/pawmates-backend/internal/middleware"
	"github.com/pawmates/pawmates-backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	messageHandler *handler.MessageHandler,
	conversationHandler *handler.ConversationHandler,
	wsHandler *handler.WSHandler,
	jwtManager *jwt.Manager,
	redisClient *redis.Client,
	sendRatePerMinute int,
) {
	api := router.Group("/api/v1", middleware.JWTAuth(jwtManager))

	// Messages
	messages := api.Group("/messages")
	messages.POST("", middleware.SendRateLimit(redisClient, sendRatePerMinute), messageHandler.Send)
	messages.GET("/unread-count", conversationHandler.UnreadCount)

	// Conversations
	conversations := api.Group("/conversations")
	conversations.GET("", conversationHandler.List)
	conversations.POST("/handle", conversationHandler.Handle)
	conversations.GET("/:id/messages", messageHandler.History)
	conversations.POST("/:id/read", messageHandler.MarkRead)

	// Real-time events
	router.GET("/ws/messaging", middleware.JWTAuth(jwtManager), wsHandler.Connect)
}
