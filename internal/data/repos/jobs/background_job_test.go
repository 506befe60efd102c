package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/testutil"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
)

func TestJobLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	agentRepo := agents.NewAgentRepo(db, testutil.Logger(t))
	agent, err := agentRepo.Create(dbc, &types.Agent{Name: "tester"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}

	repo := NewBackgroundJobRepo(db, testutil.Logger(t))
	created, err := repo.Create(dbc, &types.BackgroundJob{
		ID:       uuid.NewString(),
		AgentID:  agent.ID,
		TaskName: "crawl4ai_scrape",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if created.Status != types.JobStatusPending {
		t.Fatalf("expected pending, got %q", created.Status)
	}

	if err := repo.MarkRunning(dbc, created.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.JobStatusRunning {
		t.Fatalf("expected running, got %q", got.Status)
	}
	if got.CompletedAt != nil {
		t.Fatal("completed_at must stay empty until a terminal status")
	}

	result, _ := json.Marshal(map[string]any{"url": "https://example.com", "scrape_success": true})
	if err := repo.Complete(dbc, created.ID, types.JobStatusSuccess, result); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err = repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("get after complete: %v", err)
	}
	if got.Status != types.JobStatusSuccess {
		t.Fatalf("expected success, got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to be stamped")
	}
	if !got.Terminal() {
		t.Fatal("success must be terminal")
	}
}

func TestCompleteRejectsNonTerminalStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewBackgroundJobRepo(db, testutil.Logger(t))
	if err := repo.Complete(dbc, uuid.NewString(), types.JobStatusRunning, nil); err == nil {
		t.Fatal("expected running to be rejected as a terminal status")
	}
}
