package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	MessageTypeHuman  = "human"
	MessageTypeAI     = "ai"
	MessageTypeSystem = "system"
	MessageTypeTool   = "tool"
)

// ValidMessageType reports whether t is one of the four stored roles.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeHuman, MessageTypeAI, MessageTypeSystem, MessageTypeTool:
		return true
	}
	return false
}

type Conversation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID   int64     `gorm:"column:agent_id;not null;index" json:"agent_id"`
	ThreadID  string    `gorm:"column:thread_id;not null;uniqueIndex" json:"thread_id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`

	Agent *Agent `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string { return "conversations" }

// ToolCall is one model-requested tool invocation, stored as part of an
// ai message's tool_calls JSON column.
type ToolCall struct {
	CallID string         `json:"id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
}

type Message struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64  `gorm:"column:conversation_id;not null;index;index:idx_messages_conversation_seq,priority:1" json:"conversation_id"`
	MessageID      string `gorm:"column:message_id;not null;uniqueIndex" json:"message_id"`
	MessageType    string `gorm:"column:message_type;not null;index" json:"message_type"`
	Content        string `gorm:"column:content;type:text;not null;default:''" json:"content"`

	ToolCalls  datatypes.JSON `gorm:"type:jsonb;column:tool_calls" json:"tool_calls,omitempty"`
	ToolCallID *string        `gorm:"column:tool_call_id" json:"tool_call_id,omitempty"`

	AdditionalMetadata datatypes.JSON `gorm:"type:jsonb;column:additional_metadata" json:"additional_metadata,omitempty"`

	SequenceNumber int64     `gorm:"column:sequence_number;not null;index:idx_messages_conversation_seq,priority:2" json:"sequence_number"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string { return "messages" }

// SetToolCalls JSON-encodes calls into the tool_calls column. A nil or
// empty slice clears the column.
func (m *Message) SetToolCalls(calls []ToolCall) error {
	if len(calls) == 0 {
		m.ToolCalls = nil
		return nil
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return fmt.Errorf("encode tool_calls: %w", err)
	}
	m.ToolCalls = datatypes.JSON(raw)
	return nil
}

// GetToolCalls decodes the tool_calls column; an empty column yields nil.
func (m *Message) GetToolCalls() ([]ToolCall, error) {
	if len(m.ToolCalls) == 0 {
		return nil, nil
	}
	var calls []ToolCall
	if err := json.Unmarshal(m.ToolCalls, &calls); err != nil {
		return nil, fmt.Errorf("decode tool_calls: %w", err)
	}
	return calls, nil
}
