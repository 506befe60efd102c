package jobs

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type BackgroundJobRepo interface {
	Create(dbc dbctx.Context, row *types.BackgroundJob) (*types.BackgroundJob, error)
	GetByID(dbc dbctx.Context, id string) (*types.BackgroundJob, error)
	MarkRunning(dbc dbctx.Context, id string) error
	// Complete moves the job to a terminal status and stamps completed_at.
	Complete(dbc dbctx.Context, id string, status string, result []byte) error
	ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.BackgroundJob, error)
}

type backgroundJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBackgroundJobRepo(db *gorm.DB, log *logger.Logger) BackgroundJobRepo {
	return &backgroundJobRepo{db: db, log: log.With("repo", "BackgroundJobRepo")}
}

func (r *backgroundJobRepo) Create(dbc dbctx.Context, row *types.BackgroundJob) (*types.BackgroundJob, error) {
	if row == nil {
		return nil, fmt.Errorf("missing job")
	}
	if strings.TrimSpace(row.ID) == "" {
		return nil, fmt.Errorf("missing job id")
	}
	if row.AgentID <= 0 {
		return nil, fmt.Errorf("missing agent_id")
	}
	if row.Status == "" {
		row.Status = types.JobStatusPending
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

func (r *backgroundJobRepo) GetByID(dbc dbctx.Context, id string) (*types.BackgroundJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("missing job id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.BackgroundJob
	if err := txx.WithContext(dbc.Ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *backgroundJobRepo) MarkRunning(dbc dbctx.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("missing job id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.BackgroundJob{}).
		Where("id = ?", id).
		Update("status", types.JobStatusRunning).Error
}

func (r *backgroundJobRepo) Complete(dbc dbctx.Context, id string, status string, result []byte) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("missing job id")
	}
	if status != types.JobStatusSuccess && status != types.JobStatusFailure {
		return fmt.Errorf("non-terminal status %q", status)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now().UTC(),
	}
	if len(result) > 0 {
		updates["result"] = result
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.BackgroundJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *backgroundJobRepo) ListByAgent(dbc dbctx.Context, agentID int64, limit int) ([]*types.BackgroundJob, error) {
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
	var out []*types.BackgroundJob
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.BackgroundJob{}).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
