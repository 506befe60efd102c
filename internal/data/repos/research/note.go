package research

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type NoteRepo interface {
	Create(dbc dbctx.Context, row *types.ResearchNote) (*types.ResearchNote, error)
	ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.ResearchNote, error)
	DeleteByAgent(dbc dbctx.Context, agentID int64) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, log *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: log.With("repo", "ResearchNoteRepo")}
}

func (r *noteRepo) Create(dbc dbctx.Context, row *types.ResearchNote) (*types.ResearchNote, error) {
	if row == nil {
		return nil, fmt.Errorf("missing note")
	}
	if row.AgentID <= 0 {
		return nil, fmt.Errorf("missing agent_id")
	}
	if strings.TrimSpace(row.VectorID) == "" {
		return nil, fmt.Errorf("missing vector_id")
	}
	if strings.TrimSpace(row.SourceURL) == "" {
		return nil, fmt.Errorf("missing source_url")
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

func (r *noteRepo) ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.ResearchNote, error) {
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
	var out []*types.ResearchNote
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ResearchNote{}).
		Where("agent_id = ?", agentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *noteRepo) DeleteByAgent(dbc dbctx.Context, agentID int64) error {
	if agentID <= 0 {
		return fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Delete(&types.ResearchNote{}, "agent_id = ?", agentID).Error
}
