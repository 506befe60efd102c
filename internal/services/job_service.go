package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/jobs"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/utils"
)

// TaskScrape is the one background task the research surface accepts.
const TaskScrape = "crawl4ai_scrape"

type JobService interface {
	// EnqueueScrape records a pending job and schedules it on the bounded
	// runner. The returned job id can be polled immediately.
	EnqueueScrape(dbc dbctx.Context, agentID int64, url string) (*types.BackgroundJob, error)
	GetJob(dbc dbctx.Context, id string) (*types.BackgroundJob, error)
	// Wait blocks until all in-flight jobs have finished. Test and
	// shutdown hook.
	Wait()
}

type jobService struct {
	db       *gorm.DB
	log      *logger.Logger
	jobs     jobs.BackgroundJobRepo
	research ResearchService
	notifier JobNotifier
	group    *errgroup.Group
}

func NewJobService(db *gorm.DB, log *logger.Logger, repo jobs.BackgroundJobRepo, research ResearchService, notifier JobNotifier) JobService {
	serviceLog := log.With("service", "JobService")

	group := &errgroup.Group{}
	group.SetLimit(utils.GetEnvAsInt("JOBS_MAX_CONCURRENT", 4, log))

	if notifier == nil {
		notifier = noopJobNotifier{}
	}
	return &jobService{
		db:       db,
		log:      serviceLog,
		jobs:     repo,
		research: research,
		notifier: notifier,
		group:    group,
	}
}

func (s *jobService) EnqueueScrape(dbc dbctx.Context, agentID int64, url string) (*types.BackgroundJob, error) {
	payload, err := json.Marshal(map[string]any{"url": url})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	job, err := s.jobs.Create(dbc, &types.BackgroundJob{
		ID:       uuid.NewString(),
		AgentID:  agentID,
		TaskName: TaskScrape,
		Status:   types.JobStatusPending,
		Payload:  payload,
	})
	if err != nil {
		return nil, err
	}

	jobID := job.ID
	// group.Go blocks at the concurrency limit; hand off so the enqueue
	// request returns immediately while the job waits its turn.
	go s.group.Go(func() error {
		s.runScrapeJob(jobID, agentID, url)
		return nil
	})
	return job, nil
}

// runScrapeJob executes one scrape on the runner's goroutine. It owns a
// fresh context: the enqueuing request has usually finished by now.
func (s *jobService) runScrapeJob(jobID string, agentID int64, url string) {
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := s.log.With("job_id", jobID, "agent_id", agentID, "url", url)

	if err := s.jobs.MarkRunning(dbc, jobID); err != nil {
		log.Error("mark running failed", "error", err)
		return
	}
	s.notify(ctx, jobID, agentID, types.JobStatusRunning)

	result := s.research.ResearchURL(ctx, agentID, url)

	status := types.JobStatusSuccess
	if !result.Success {
		status = types.JobStatusFailure
	}
	raw, err := json.Marshal(FormatJobResult(result))
	if err != nil {
		log.Error("encode job result failed", "error", err)
		raw = nil
	}
	if err := s.jobs.Complete(dbc, jobID, status, raw); err != nil {
		log.Error("complete job failed", "status", status, "error", err)
		return
	}
	s.notify(ctx, jobID, agentID, status)
	log.Info("scrape job finished", "status", status)
}

func (s *jobService) notify(ctx context.Context, jobID string, agentID int64, status string) {
	if err := s.notifier.Publish(ctx, jobID, agentID, status); err != nil {
		s.log.Warn("job status publish failed", "job_id", jobID, "status", status, "error", err)
	}
}

func (s *jobService) GetJob(dbc dbctx.Context, id string) (*types.BackgroundJob, error) {
	return s.jobs.GetByID(dbc, id)
}

func (s *jobService) Wait() {
	_ = s.group.Wait()
}
