package domain

import (
	"time"
)

type Agent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	SystemPrompt *string   `gorm:"column:system_prompt;type:text" json:"system_prompt,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (Agent) TableName() string { return "agents" }
