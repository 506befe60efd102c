package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
)

type BackgroundJob struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID  int64  `gorm:"column:agent_id;not null;index" json:"agent_id"`
	TaskName string `gorm:"column:task_name;not null;index" json:"task_name"`
	Status   string `gorm:"column:status;not null;default:'pending';index" json:"status"`

	Payload datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`
	Result  datatypes.JSON `gorm:"type:jsonb;column:result" json:"result,omitempty"`

	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (BackgroundJob) TableName() string { return "background_jobs" }

// Terminal reports whether the job has reached a final status.
func (j *BackgroundJob) Terminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailure
}
