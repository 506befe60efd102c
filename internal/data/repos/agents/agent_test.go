package agents

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/testutil"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAgentRepo(db, testutil.Logger(t))

	prompt := "You are a helpful research assistant."
	created, err := repo.Create(dbc, &types.Agent{Name: "researcher", SystemPrompt: &prompt})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "researcher" {
		t.Fatalf("unexpected name %q", got.Name)
	}
	if got.SystemPrompt == nil || *got.SystemPrompt != prompt {
		t.Fatalf("unexpected system prompt %v", got.SystemPrompt)
	}
}

func TestCreateRequiresName(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAgentRepo(db, testutil.Logger(t))
	if _, err := repo.Create(dbc, &types.Agent{}); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAgentRepo(db, testutil.Logger(t))
	created, err := repo.Create(dbc, &types.Agent{Name: "before"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateFields(dbc, created.ID, map[string]interface{}{
		"name":          "after",
		"system_prompt": "Answer briefly.",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "after" {
		t.Fatalf("name not updated: %q", got.Name)
	}
	if got.SystemPrompt == nil || *got.SystemPrompt != "Answer briefly." {
		t.Fatalf("system prompt not updated: %v", got.SystemPrompt)
	}
}

func TestDeleteRemovesAgent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAgentRepo(db, testutil.Logger(t))
	created, err := repo.Create(dbc, &types.Agent{Name: "doomed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(dbc, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(dbc, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestCount(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAgentRepo(db, testutil.Logger(t))
	n, err := repo.Count(dbc)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if _, err := repo.Create(dbc, &types.Agent{Name: "one"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := repo.Count(dbc)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if after != n+1 {
		t.Fatalf("expected count %d, got %d", n+1, after)
	}
}
