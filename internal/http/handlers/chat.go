package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	agentgraph "github.com/findmeajob/findmeajob-backend/internal/agents/graph"
	"github.com/findmeajob/findmeajob-backend/internal/http/response"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
	log  *logger.Logger
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat, log: log.With("handler", "ChatHandler")}
}

type chatReq struct {
	Message  string `json:"message" binding:"required"`
	AgentID  int64  `json:"agent_id" binding:"required"`
	ThreadID string `json:"thread_id"`
}

// POST /chat
//
// Streams the model run as SSE. The first event decides the response
// shape: a carrier error means the model never produced output, so the
// request fails with a JSON error instead of a broken stream.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "empty_message", fmt.Errorf("message must not be empty"))
		return
	}

	stream, err := h.chat.StartStream(c.Request.Context(), req.AgentID, req.ThreadID, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "chat_start_failed", err)
		return
	}

	first, ok := <-stream.Events
	if ok && first.Err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "model_unavailable", first.Err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Header().Set("X-Thread-ID", stream.Conversation.ThreadID)
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	if ok {
		h.writeEvent(c, first)
	}
	for ev := range stream.Events {
		h.writeEvent(c, ev)
	}
}

func (h *ChatHandler) writeEvent(c *gin.Context, ev agentgraph.Event) {
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Event, ev.Data); err != nil {
		// Client went away; the stream loop keeps draining so the
		// persistence task still gets the full run.
		h.log.Debug("sse write failed", "error", err)
		return
	}
	c.Writer.Flush()
}
