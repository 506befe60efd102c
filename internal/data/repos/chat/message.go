package chat

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type MessageRepo interface {
	// Save appends one message to a conversation at the given sequence
	// number. A reused message_id surfaces as a uniqueness violation
	// from the database; nothing is stored in that case.
	Save(dbc dbctx.Context, row *types.Message) (*types.Message, error)
	// NextSeq returns COALESCE(MAX(sequence_number), 0) + 1 for the
	// conversation. On an empty conversation this is 1.
	NextSeq(dbc dbctx.Context, conversationID int64) (int64, error)
	ListByConversation(dbc dbctx.Context, conversationID int64, limit int) ([]*types.Message, error)
	CountByConversation(dbc dbctx.Context, conversationID int64) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Save(dbc dbctx.Context, row *types.Message) (*types.Message, error) {
	if row == nil {
		return nil, fmt.Errorf("missing message")
	}
	if row.ConversationID <= 0 {
		return nil, fmt.Errorf("missing conversation_id")
	}
	if strings.TrimSpace(row.MessageID) == "" {
		return nil, fmt.Errorf("missing message_id")
	}
	if !types.ValidMessageType(row.MessageType) {
		return nil, fmt.Errorf("invalid message_type %q", row.MessageType)
	}
	if row.SequenceNumber <= 0 {
		return nil, fmt.Errorf("missing sequence_number")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *messageRepo) NextSeq(dbc dbctx.Context, conversationID int64) (int64, error) {
	if conversationID <= 0 {
		return 0, fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var maxSeq int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Select("COALESCE(MAX(sequence_number), 0)").
		Where("conversation_id = ?", conversationID).
		Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID int64, limit int) ([]*types.Message, error) {
	if conversationID <= 0 {
		return nil, fmt.Errorf("missing conversation_id")
	}
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("sequence_number ASC, created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) CountByConversation(dbc dbctx.Context, conversationID int64) (int64, error) {
	if conversationID <= 0 {
		return 0, fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
