package app

import (
	"fmt"

	"gorm.io/gorm"

	agentgraph "github.com/findmeajob/findmeajob-backend/internal/agents/graph"
	"github.com/findmeajob/findmeajob-backend/internal/agents/tools"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/platform/chroma"
	"github.com/findmeajob/findmeajob-backend/internal/platform/ollama"
	"github.com/findmeajob/findmeajob-backend/internal/platform/scraper"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

type Clients struct {
	LLM     ollama.Client
	Chroma  chroma.Client
	Vectors chroma.VectorStore
	Scraper scraper.Scraper
}

type Services struct {
	Agent    services.AgentService
	Chat     services.ChatService
	Research services.ResearchService
	Job      services.JobService
	Notifier services.JobNotifier
	Graph    *agentgraph.Graph
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring platform clients...")

	llm, err := ollama.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init ollama client: %w", err)
	}
	chromaClient, err := chroma.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init chroma client: %w", err)
	}
	vectors, err := chroma.NewVectorStore(log, chromaClient)
	if err != nil {
		return Clients{}, fmt.Errorf("init vector store: %w", err)
	}
	sc, err := scraper.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init scraper: %w", err)
	}
	return Clients{LLM: llm, Chroma: chromaClient, Vectors: vectors, Scraper: sc}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	research := services.NewResearchService(db, log, clients.Scraper, clients.Vectors, repos.Note)
	registry := tools.NewResearchRegistry(log, research)
	graph := agentgraph.New(log, clients.LLM, registry)

	notifier, err := services.NewJobNotifier(log)
	if err != nil {
		return Services{}, fmt.Errorf("init job notifier: %w", err)
	}

	return Services{
		Agent:    services.NewAgentService(db, log, repos.Agent, repos.Note, clients.Vectors),
		Chat:     services.NewChatService(db, log, repos.Agent, repos.Conversation, repos.Message, graph),
		Research: research,
		Job:      services.NewJobService(db, log, repos.Job, research, notifier),
		Notifier: notifier,
		Graph:    graph,
	}, nil
}
