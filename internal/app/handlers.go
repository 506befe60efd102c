package app

import (
	"github.com/gin-gonic/gin"

	"github.com/findmeajob/findmeajob-backend/internal/http/handlers"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/server"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Chat         *handlers.ChatHandler
	Agent        *handlers.AgentHandler
	Conversation *handlers.ConversationHandler
	Research     *handlers.ResearchHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       handlers.NewHealthHandler(),
		Chat:         handlers.NewChatHandler(log, services.Chat),
		Agent:        handlers.NewAgentHandler(services.Agent),
		Conversation: handlers.NewConversationHandler(services.Chat),
		Research:     handlers.NewResearchHandler(services.Agent, services.Research, services.Job),
	}
}

func wireRouter(handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		HealthHandler:       handlers.Health,
		ChatHandler:         handlers.Chat,
		AgentHandler:        handlers.Agent,
		ConversationHandler: handlers.Conversation,
		ResearchHandler:     handlers.Research,
	})
}
