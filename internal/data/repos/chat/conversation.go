package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error)
	GetByThread(dbc dbctx.Context, threadID string) (*types.Conversation, error)
	// GetOrCreate resolves a thread id to a conversation, creating one
	// when the thread is new. An empty threadID always creates a fresh
	// conversation under a random thread id.
	GetOrCreate(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error)
	ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.Conversation, error)
	Touch(dbc dbctx.Context, id int64) error
	Delete(dbc dbctx.Context, threadID string) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error) {
	if agentID <= 0 {
		return nil, fmt.Errorf("missing agent_id")
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	row := &types.Conversation{AgentID: agentID, ThreadID: threadID}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *conversationRepo) GetByThread(dbc dbctx.Context, threadID string) (*types.Conversation, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Conversation
	if err := txx.WithContext(dbc.Ctx).First(&out, "thread_id = ?", threadID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) GetOrCreate(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return r.Create(dbc, agentID, "")
	}
	existing, err := r.GetByThread(dbc, threadID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.Create(dbc, agentID, threadID)
}

func (r *conversationRepo) ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.Conversation, error) {
	if agentID <= 0 {
		return nil, fmt.Errorf("missing agent_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Conversation
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("agent_id = ?", agentID).
		Order("updated_at DESC, created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) Touch(dbc dbctx.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// Delete removes the conversation; its messages cascade.
func (r *conversationRepo) Delete(dbc dbctx.Context, threadID string) error {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Delete(&types.Conversation{}, "thread_id = ?", threadID).Error
}
