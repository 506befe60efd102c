package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/http/response"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

type ResearchHandler struct {
	agents   services.AgentService
	research services.ResearchService
	jobs     services.JobService
}

func NewResearchHandler(agents services.AgentService, research services.ResearchService, jobs services.JobService) *ResearchHandler {
	return &ResearchHandler{agents: agents, research: research, jobs: jobs}
}

type executeToolReq struct {
	Tool string `json:"tool" binding:"required"`
	URL  string `json:"url"`
}

// POST /agents/:id/execute-tool
//
// Accepts only the scrape task; the work itself runs as a background
// job, so the response is 202 with the job id to poll.
func (h *ResearchHandler) ExecuteTool(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	var req executeToolReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_request", err)
		return
	}
	if req.Tool != services.TaskScrape {
		response.RespondError(c, http.StatusBadRequest, "unknown_tool", fmt.Errorf("unsupported tool %q", req.Tool))
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_url", errors.New("url must be an http(s) URL"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if _, err := h.agents.Get(dbc, id); err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_agent_failed", err)
		return
	}

	job, err := h.jobs.EnqueueScrape(dbc, id, rawURL)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	response.RespondAccepted(c, gin.H{"job_id": job.ID, "status": job.Status})
}

// GET /jobs/:id
func (h *ResearchHandler) GetJob(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", errors.New("job id must not be empty"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.jobs.GetJob(dbc, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "job_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_job_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /agents/:id/research?limit=50
func (h *ResearchHandler) ListNotes(c *gin.Context) {
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
	if _, err := h.agents.Get(dbc, id); err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			response.RespondError(c, http.StatusNotFound, "agent_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_agent_failed", err)
		return
	}
	notes, err := h.research.ListNotes(dbc, id, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_research_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"notes": notes})
}
