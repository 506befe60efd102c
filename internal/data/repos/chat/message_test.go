package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/testutil"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
)

func seedConversation(t *testing.T, db *gorm.DB, dbc dbctx.Context) *types.Conversation {
	t.Helper()
	log := testutil.Logger(t)
	agentRepo := agents.NewAgentRepo(db, log)
	agent, err := agentRepo.Create(dbc, &types.Agent{Name: "tester"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	convRepo := NewConversationRepo(db, log)
	conv, err := convRepo.Create(dbc, agent.ID, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conv
}

func TestNextSeqStartsAtOne(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	seq, err := repo.NextSeq(dbc, conv.ID)
	if err != nil {
		t.Fatalf("next seq: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected first seq 1, got %d", seq)
	}
}

func TestSaveAssignsMonotonicSequence(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	contents := []string{"hi", "hello", "how can I help?"}
	roles := []string{types.MessageTypeHuman, types.MessageTypeAI, types.MessageTypeAI}
	for i, content := range contents {
		seq, err := repo.NextSeq(dbc, conv.ID)
		if err != nil {
			t.Fatalf("next seq: %v", err)
		}
		if seq != int64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
		if _, err := repo.Save(dbc, &types.Message{
			ConversationID: conv.ID,
			MessageID:      uuid.NewString(),
			MessageType:    roles[i],
			Content:        content,
			SequenceNumber: seq,
		}); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
	}

	got, err := repo.ListByConversation(dbc, conv.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(got))
	}
	for i, m := range got {
		if m.SequenceNumber != int64(i+1) {
			t.Fatalf("message %d has seq %d", i, m.SequenceNumber)
		}
		if m.Content != contents[i] {
			t.Fatalf("message %d content %q, want %q", i, m.Content, contents[i])
		}
	}
}

func TestListOrdersBySequenceNotInsertion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	for _, seq := range []int64{3, 1, 2} {
		if _, err := repo.Save(dbc, &types.Message{
			ConversationID: conv.ID,
			MessageID:      uuid.NewString(),
			MessageType:    types.MessageTypeHuman,
			Content:        "msg",
			SequenceNumber: seq,
		}); err != nil {
			t.Fatalf("save seq %d: %v", seq, err)
		}
	}

	got, err := repo.ListByConversation(dbc, conv.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, m := range got {
		if m.SequenceNumber != int64(i+1) {
			t.Fatalf("position %d has seq %d", i, m.SequenceNumber)
		}
	}
}

func TestSaveRejectsInvalidType(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	if _, err := repo.Save(dbc, &types.Message{
		ConversationID: conv.ID,
		MessageID:      uuid.NewString(),
		MessageType:    "assistant",
		Content:        "nope",
		SequenceNumber: 1,
	}); err == nil {
		t.Fatal("expected invalid message_type to be rejected")
	}

	n, err := repo.CountByConversation(dbc, conv.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing stored, got %d rows", n)
	}
}

func TestSaveDuplicateMessageIDFails(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	id := uuid.NewString()
	if _, err := repo.Save(dbc, &types.Message{
		ConversationID: conv.ID,
		MessageID:      id,
		MessageType:    types.MessageTypeHuman,
		Content:        "first",
		SequenceNumber: 1,
	}); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if _, err := repo.Save(dbc, &types.Message{
		ConversationID: conv.ID,
		MessageID:      id,
		MessageType:    types.MessageTypeHuman,
		Content:        "retry",
		SequenceNumber: 2,
	}); err == nil {
		t.Fatal("expected duplicate message_id to fail")
	}
}

func TestToolCallsRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := seedConversation(t, db, dbc)
	repo := NewMessageRepo(db, testutil.Logger(t))

	msg := &types.Message{
		ConversationID: conv.ID,
		MessageID:      uuid.NewString(),
		MessageType:    types.MessageTypeAI,
		SequenceNumber: 1,
	}
	if err := msg.SetToolCalls([]types.ToolCall{
		{CallID: "call_1", Name: "research_url", Args: map[string]any{"url": "https://example.com"}},
	}); err != nil {
		t.Fatalf("set tool calls: %v", err)
	}
	if _, err := repo.Save(dbc, msg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.ListByConversation(dbc, conv.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	calls, err := got[0].GetToolCalls()
	if err != nil {
		t.Fatalf("get tool calls: %v", err)
	}
	if len(calls) != 1 || calls[0].Name != "research_url" || calls[0].CallID != "call_1" {
		t.Fatalf("unexpected tool calls: %+v", calls)
	}
}
