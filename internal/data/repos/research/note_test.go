package research

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/testutil"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
)

func TestListByAgentNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	agentRepo := agents.NewAgentRepo(db, testutil.Logger(t))
	agent, err := agentRepo.Create(dbc, &types.Agent{Name: "tester"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}

	repo := NewNoteRepo(db, testutil.Logger(t))
	base := time.Now().UTC().Add(-time.Hour)
	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	for i, u := range urls {
		if _, err := repo.Create(dbc, &types.ResearchNote{
			AgentID:   agent.ID,
			VectorID:  uuid.NewString(),
			SourceURL: u,
			Content:   "preview",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create note %d: %v", i, err)
		}
	}

	got, err := repo.ListByAgent(dbc, agent.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(urls) {
		t.Fatalf("expected %d notes, got %d", len(urls), len(got))
	}
	for i := range got {
		if got[i].SourceURL != urls[len(urls)-1-i] {
			t.Fatalf("note %d is %q, want newest first", i, got[i].SourceURL)
		}
	}
}

func TestCreateRequiresVectorID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewNoteRepo(db, testutil.Logger(t))
	if _, err := repo.Create(dbc, &types.ResearchNote{AgentID: 1, SourceURL: "https://x.example"}); err == nil {
		t.Fatal("expected missing vector_id to be rejected")
	}
}

func TestDeleteByAgent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	agentRepo := agents.NewAgentRepo(db, testutil.Logger(t))
	agent, err := agentRepo.Create(dbc, &types.Agent{Name: "tester"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}

	repo := NewNoteRepo(db, testutil.Logger(t))
	if _, err := repo.Create(dbc, &types.ResearchNote{
		AgentID:   agent.ID,
		VectorID:  uuid.NewString(),
		SourceURL: "https://x.example",
	}); err != nil {
		t.Fatalf("create note: %v", err)
	}
	if err := repo.DeleteByAgent(dbc, agent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := repo.ListByAgent(dbc, agent.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no notes, got %d", len(got))
	}
}
