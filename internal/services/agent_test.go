package services

import (
	"context"
	"testing"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/research"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/testutil"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/platform/chroma"
)

// memVectors records collection deletions and fails nothing.
type memVectors struct {
	deleted []int64
}

func (m *memVectors) AddDocument(ctx context.Context, agentID int64, vectorID, document string, metadata map[string]any) error {
	return nil
}

func (m *memVectors) QueryDocuments(ctx context.Context, agentID int64, query string, topK int) ([]chroma.DocumentMatch, error) {
	return nil, nil
}

func (m *memVectors) DeleteAgentCollection(ctx context.Context, agentID int64) error {
	m.deleted = append(m.deleted, agentID)
	return nil
}

func newAgentService(t *testing.T) (AgentService, research.NoteRepo, *memVectors) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	notes := research.NewNoteRepo(db, log)
	vectors := &memVectors{}
	svc := NewAgentService(db, log, agents.NewAgentRepo(db, log), notes, vectors)
	return svc, notes, vectors
}

func TestAgentCreateTrimsAndStoresPrompt(t *testing.T) {
	svc, _, _ := newAgentService(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	agent, err := svc.Create(dbc, "  researcher  ", " be thorough ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if agent.Name != "researcher" {
		t.Fatalf("name not trimmed: %q", agent.Name)
	}
	if agent.SystemPrompt == nil || *agent.SystemPrompt != "be thorough" {
		t.Fatalf("unexpected prompt %v", agent.SystemPrompt)
	}

	blank, err := svc.Create(dbc, "no-prompt", "   ")
	if err != nil {
		t.Fatalf("create without prompt: %v", err)
	}
	if blank.SystemPrompt != nil {
		t.Fatalf("blank prompt should stay nil, got %q", *blank.SystemPrompt)
	}
}

func TestAgentGetUnknownIsNotFound(t *testing.T) {
	svc, _, _ := newAgentService(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := svc.Get(dbc, 12345); err != ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestAgentUpdate(t *testing.T) {
	svc, _, _ := newAgentService(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	agent, err := svc.Create(dbc, "draft", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "final"
	prompt := "answer briefly"
	updated, err := svc.Update(dbc, agent.ID, AgentUpdate{Name: &name, SystemPrompt: &prompt})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "final" {
		t.Fatalf("name not updated: %q", updated.Name)
	}
	if updated.SystemPrompt == nil || *updated.SystemPrompt != "answer briefly" {
		t.Fatalf("prompt not updated: %v", updated.SystemPrompt)
	}
}

func TestAgentDeleteCleansResearch(t *testing.T) {
	svc, notes, vectors := newAgentService(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	agent, err := svc.Create(dbc, "doomed", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := notes.Create(dbc, &types.ResearchNote{
		AgentID:   agent.ID,
		VectorID:  "v1",
		SourceURL: "https://example.com",
		Content:   "text",
	}); err != nil {
		t.Fatalf("seed note: %v", err)
	}

	if err := svc.Delete(dbc, agent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Get(dbc, agent.ID); err != ErrAgentNotFound {
		t.Fatalf("agent should be gone, got %v", err)
	}
	rows, err := notes.ListByAgent(dbc, agent.ID, 0)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("notes should be gone, got %d", len(rows))
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != agent.ID {
		t.Fatalf("vector collection not dropped: %v", vectors.deleted)
	}
}

func TestAgentSeedOnlyWhenEmpty(t *testing.T) {
	svc, _, _ := newAgentService(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	t.Setenv("SEED_AGENTS", "Researcher|You research the web;Helper|")
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := svc.List(dbc, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 seeded agents, got %d", len(list))
	}
	if list[0].Name != "Researcher" || list[0].SystemPrompt == nil {
		t.Fatalf("unexpected first agent %+v", list[0])
	}
	if list[1].Name != "Helper" || list[1].SystemPrompt != nil {
		t.Fatalf("unexpected second agent %+v", list[1])
	}

	// A second seed pass is a no-op once agents exist.
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	list, err = svc.List(dbc, 0)
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("seed must not duplicate, got %d agents", len(list))
	}
}
