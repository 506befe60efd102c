package domain

import (
	"time"
)

// ResearchNote is the relational record of one researched URL. The same
// text is indexed in the vector store under VectorID for semantic search.
type ResearchNote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID   int64     `gorm:"column:agent_id;not null;index" json:"agent_id"`
	VectorID  string    `gorm:"column:vector_id;not null;uniqueIndex" json:"vector_id"`
	SourceURL string    `gorm:"column:source_url;not null" json:"source_url"`
	Content   string    `gorm:"column:content;type:text;not null;default:''" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ResearchNote) TableName() string { return "research_notes" }
