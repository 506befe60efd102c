package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/findmeajob/findmeajob-backend/internal/http/response"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

type AgentHandler struct {
	agents services.AgentService
}

func NewAgentHandler(agents services.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

type agentReq struct {
	Name         string  `json:"name" binding:"required"`
	SystemPrompt *string `json:"system_prompt"`
}

type agentUpdateReq struct {
	Name         *string `json:"name"`
	SystemPrompt *string `json:"system_prompt"`
}

func agentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", errors.New("agent id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// POST /agents
func (h *AgentHandler) Create(c *gin.Context) {
	var req agentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_request", err)
		return
	}
	prompt := ""
	if req.SystemPrompt != nil {
		prompt = *req.SystemPrompt
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	agent, err := h.agents.Create(dbc, req.Name, prompt)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_agent_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"agent": agent})
}

// GET /agents?limit=100
func (h *AgentHandler) List(c *gin.Context) {
	limit := 100
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	list, err := h.agents.List(dbc, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_agents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"agents": list})
}

// GET /agents/:id
func (h *AgentHandler) Get(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	agent, err := h.agents.Get(dbc, id)
	if err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_agent_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"agent": agent})
}

// PUT /agents/:id
func (h *AgentHandler) Update(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	var req agentUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	agent, err := h.agents.Update(dbc, id, services.AgentUpdate{Name: req.Name, SystemPrompt: req.SystemPrompt})
	if err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "update_agent_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"agent": agent})
}

// DELETE /agents/:id
func (h *AgentHandler) Delete(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.agents.Delete(dbc, id); err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_agent_failed", err)
		return
	}
	response.RespondNoContent(c)
}
