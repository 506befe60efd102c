package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/http/response"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

type ConversationHandler struct {
	chat services.ChatService
}

func NewConversationHandler(chat services.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

type createConversationReq struct {
	AgentID  int64  `json:"agent_id" binding:"required"`
	ThreadID string `json:"thread_id"`
}

// messageDTO is the wire shape of a stored message; role uses the chat
// API vocabulary, not the storage one.
type messageDTO struct {
	MessageID      string    `json:"message_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SequenceNumber int64     `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

func wireRole(messageType string) string {
	switch messageType {
	case types.MessageTypeHuman:
		return "user"
	case types.MessageTypeAI:
		return "assistant"
	default:
		return messageType
	}
}

// GET /agents/:id/conversations?limit=50
func (h *ConversationHandler) ListByAgent(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	list, err := h.chat.ListConversations(dbc, id, limit)
	if err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "list_conversations_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": list})
}

// POST /conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, err := h.chat.CreateConversation(dbc, req.AgentID, req.ThreadID)
	if err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "create_conversation_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// GET /conversations/:thread_id/messages?limit=200
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	threadID := strings.TrimSpace(c.Param("thread_id"))
	if threadID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_thread_id", errors.New("thread id must not be empty"))
		return
	}
	limit := 200
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.chat.ListMessages(dbc, threadID, limit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "conversation_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "list_messages_failed", err)
		return
	}
	msgs := make([]messageDTO, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, messageDTO{
			MessageID:      row.MessageID,
			Role:           wireRole(row.MessageType),
			Content:        row.Content,
			SequenceNumber: row.SequenceNumber,
			CreatedAt:      row.CreatedAt,
		})
	}
	response.RespondOK(c, gin.H{"thread_id": threadID, "messages": msgs})
}

// DELETE /conversations/:thread_id
func (h *ConversationHandler) Delete(c *gin.Context) {
	threadID := strings.TrimSpace(c.Param("thread_id"))
	if threadID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_thread_id", errors.New("thread id must not be empty"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chat.DeleteConversation(dbc, threadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "conversation_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_conversation_failed", err)
		return
	}
	response.RespondNoContent(c)
}
