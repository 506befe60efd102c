package agents

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type AgentRepo interface {
	Create(dbc dbctx.Context, row *types.Agent) (*types.Agent, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Agent, error)
	List(dbc dbctx.Context, limit int) ([]*types.Agent, error)
	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id int64) error
	Count(dbc dbctx.Context) (int64, error)
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, log *logger.Logger) AgentRepo {
	return &agentRepo{db: db, log: log.With("repo", "AgentRepo")}
}

func (r *agentRepo) Create(dbc dbctx.Context, row *types.Agent) (*types.Agent, error) {
	if row == nil {
		return nil, fmt.Errorf("missing agent")
	}
	if row.Name == "" {
		return nil, fmt.Errorf("missing agent name")
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

func (r *agentRepo) GetByID(dbc dbctx.Context, id int64) (*types.Agent, error) {
	if id <= 0 {
		return nil, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Agent
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *agentRepo) List(dbc dbctx.Context, limit int) ([]*types.Agent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Agent
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Agent{}).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *agentRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error {
	if id <= 0 {
		return fmt.Errorf("missing agent_id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Agent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the agent row; conversations and their messages go with
// it through the cascade foreign keys.
func (r *agentRepo) Delete(dbc dbctx.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Delete(&types.Agent{}, "id = ?", id).Error
}

func (r *agentRepo) Count(dbc dbctx.Context) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).Model(&types.Agent{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
