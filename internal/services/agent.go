package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/research"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/platform/chroma"
	"github.com/findmeajob/findmeajob-backend/internal/utils"
)

// AgentUpdate carries the mutable agent fields; nil means leave as is.
type AgentUpdate struct {
	Name         *string
	SystemPrompt *string
}

type AgentService interface {
	Create(dbc dbctx.Context, name, systemPrompt string) (*types.Agent, error)
	Get(dbc dbctx.Context, id int64) (*types.Agent, error)
	List(dbc dbctx.Context, limit int) ([]*types.Agent, error)
	Update(dbc dbctx.Context, id int64, upd AgentUpdate) (*types.Agent, error)
	// Delete removes the agent with everything hanging off it: research
	// notes, the agent's vector collection, and (via cascade) its
	// conversations and messages.
	Delete(dbc dbctx.Context, id int64) error
	// Seed creates the configured default agents when the table is empty.
	Seed(ctx context.Context) error
}

type agentService struct {
	db      *gorm.DB
	log     *logger.Logger
	agents  agents.AgentRepo
	notes   research.NoteRepo
	vectors chroma.VectorStore
}

func NewAgentService(db *gorm.DB, log *logger.Logger, agentRepo agents.AgentRepo, notes research.NoteRepo, vectors chroma.VectorStore) AgentService {
	return &agentService{
		db:      db,
		log:     log.With("service", "AgentService"),
		agents:  agentRepo,
		notes:   notes,
		vectors: vectors,
	}
}

func (s *agentService) Create(dbc dbctx.Context, name, systemPrompt string) (*types.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("agent name must not be empty")
	}
	row := &types.Agent{Name: name}
	if prompt := strings.TrimSpace(systemPrompt); prompt != "" {
		row.SystemPrompt = &prompt
	}
	return s.agents.Create(dbc, row)
}

func (s *agentService) Get(dbc dbctx.Context, id int64) (*types.Agent, error) {
	agent, err := s.agents.GetByID(dbc, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return agent, nil
}

func (s *agentService) List(dbc dbctx.Context, limit int) ([]*types.Agent, error) {
	return s.agents.List(dbc, limit)
}

func (s *agentService) Update(dbc dbctx.Context, id int64, upd AgentUpdate) (*types.Agent, error) {
	if _, err := s.Get(dbc, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("agent name must not be empty")
		}
		updates["name"] = name
	}
	if upd.SystemPrompt != nil {
		updates["system_prompt"] = strings.TrimSpace(*upd.SystemPrompt)
	}
	if err := s.agents.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.Get(dbc, id)
}

func (s *agentService) Delete(dbc dbctx.Context, id int64) error {
	if _, err := s.Get(dbc, id); err != nil {
		return err
	}

	if err := s.notes.DeleteByAgent(dbc, id); err != nil {
		return fmt.Errorf("delete research notes: %w", err)
	}
	// The vector store is external; a failure there must not strand the
	// relational delete.
	if err := s.vectors.DeleteAgentCollection(dbc.Ctx, id); err != nil {
		s.log.Warn("vector collection delete failed", "agent_id", id, "error", err)
	}
	return s.agents.Delete(dbc, id)
}

// Seed reads SEED_AGENTS as "name|prompt;name|prompt" and creates each
// entry, but only when no agents exist yet.
func (s *agentService) Seed(ctx context.Context) error {
	raw := strings.TrimSpace(utils.GetEnv("SEED_AGENTS", "", s.log))
	if raw == "" {
		return nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	n, err := s.agents.Count(dbc)
	if err != nil {
		return fmt.Errorf("count agents: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, prompt, _ := strings.Cut(entry, "|")
		agent, err := s.Create(dbc, name, prompt)
		if err != nil {
			return fmt.Errorf("seed agent %q: %w", name, err)
		}
		s.log.Info("seeded agent", "agent_id", agent.ID, "name", agent.Name)
	}
	return nil
}
