package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/findmeajob/findmeajob-backend/internal/http/handlers"
	"github.com/findmeajob/findmeajob-backend/internal/utils"
)

type RouterConfig struct {
	HealthHandler       *handlers.HealthHandler
	ChatHandler         *handlers.ChatHandler
	AgentHandler        *handlers.AgentHandler
	ConversationHandler *handlers.ConversationHandler
	ResearchHandler     *handlers.ResearchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"X-Thread-ID"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("findmeajob"))

	router.GET("/healthz", cfg.HealthHandler.HealthCheck)

	// Chat
	router.POST("/chat", cfg.ChatHandler.Chat)

	// Agents
	router.GET("/agents", cfg.AgentHandler.List)
	router.POST("/agents", cfg.AgentHandler.Create)
	router.GET("/agents/:id", cfg.AgentHandler.Get)
	router.PUT("/agents/:id", cfg.AgentHandler.Update)
	router.DELETE("/agents/:id", cfg.AgentHandler.Delete)

	// Conversations
	router.GET("/agents/:id/conversations", cfg.ConversationHandler.ListByAgent)
	router.POST("/conversations", cfg.ConversationHandler.Create)
	router.GET("/conversations/:thread_id/messages", cfg.ConversationHandler.ListMessages)
	router.DELETE("/conversations/:thread_id", cfg.ConversationHandler.Delete)

	// Research
	router.POST("/agents/:id/execute-tool", cfg.ResearchHandler.ExecuteTool)
	router.GET("/agents/:id/research", cfg.ResearchHandler.ListNotes)
	router.GET("/jobs/:id", cfg.ResearchHandler.GetJob)

	return router
}

func allowedOrigins() []string {
	raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
