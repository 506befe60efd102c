package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/research"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/platform/chroma"
	"github.com/findmeajob/findmeajob-backend/internal/platform/scraper"
)

const (
	researchPreviewChars = 500
	searchPreviewChars   = 300
)

// ResearchResult is the shared outcome shape for both the synchronous
// agent tool and the background job path.
type ResearchResult struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	VectorID  string `json:"vector_id,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SearchResultItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Preview   string `json:"preview"`
	WordCount int    `json:"word_count"`
}

type SearchResult struct {
	Success bool               `json:"success"`
	Query   string             `json:"query"`
	Results []SearchResultItem `json:"results"`
	Count   int                `json:"count"`
	Error   string             `json:"error,omitempty"`
}

type ResearchService interface {
	// ResearchURL scrapes a page, indexes the text in the agent's vector
	// collection, and records a research note. Failures come back as a
	// result value so callers can persist or format them.
	ResearchURL(ctx context.Context, agentID int64, url string) *ResearchResult
	SearchResearch(ctx context.Context, agentID int64, query string, limit int) *SearchResult
	ListNotes(dbc dbctx.Context, agentID int64, limit int) ([]*types.ResearchNote, error)
}

type researchService struct {
	db      *gorm.DB
	log     *logger.Logger
	scraper scraper.Scraper
	vectors chroma.VectorStore
	notes   research.NoteRepo
}

func NewResearchService(db *gorm.DB, log *logger.Logger, sc scraper.Scraper, vectors chroma.VectorStore, notes research.NoteRepo) ResearchService {
	return &researchService{
		db:      db,
		log:     log.With("service", "ResearchService"),
		scraper: sc,
		vectors: vectors,
		notes:   notes,
	}
}

func (s *researchService) ResearchURL(ctx context.Context, agentID int64, url string) *ResearchResult {
	scraped := s.scraper.Scrape(ctx, url)
	if !scraped.Success {
		return &ResearchResult{Success: false, URL: url, Error: scraped.Error}
	}

	vectorID := uuid.NewString()
	if err := s.vectors.AddDocument(ctx, agentID, vectorID, scraped.Content, map[string]any{
		"agent_id":   agentID,
		"url":        url,
		"title":      scraped.Title,
		"word_count": scraped.WordCount,
	}); err != nil {
		s.log.Error("vector store add failed", "agent_id", agentID, "url", url, "error", err)
		return &ResearchResult{Success: false, URL: url, Error: fmt.Sprintf("Research error: %v", err)}
	}

	if _, err := s.notes.Create(dbctx.Context{Ctx: ctx}, &types.ResearchNote{
		AgentID:   agentID,
		VectorID:  vectorID,
		SourceURL: url,
		Content:   scraped.Content,
	}); err != nil {
		s.log.Error("research note insert failed", "agent_id", agentID, "url", url, "error", err)
		return &ResearchResult{Success: false, URL: url, Error: fmt.Sprintf("Research error: %v", err)}
	}

	return &ResearchResult{
		Success:   true,
		URL:       url,
		Title:     scraped.Title,
		Content:   scraped.Content,
		WordCount: scraped.WordCount,
		VectorID:  vectorID,
		Preview:   preview(scraped.Content, researchPreviewChars),
	}
}

func (s *researchService) SearchResearch(ctx context.Context, agentID int64, query string, limit int) *SearchResult {
	if limit <= 0 {
		limit = 3
	}
	matches, err := s.vectors.QueryDocuments(ctx, agentID, query, limit)
	if err != nil {
		s.log.Error("research search failed", "agent_id", agentID, "query", query, "error", err)
		return &SearchResult{Success: false, Query: query, Error: fmt.Sprintf("Search error: %v", err)}
	}

	results := make([]SearchResultItem, 0, len(matches))
	for _, m := range matches {
		item := SearchResultItem{Preview: preview(m.Document, searchPreviewChars)}
		if v, ok := m.Metadata["title"].(string); ok {
			item.Title = v
		}
		if v, ok := m.Metadata["url"].(string); ok {
			item.URL = v
		}
		if v, ok := m.Metadata["word_count"].(float64); ok {
			item.WordCount = int(v)
		}
		results = append(results, item)
	}
	return &SearchResult{Success: true, Query: query, Results: results, Count: len(results)}
}

func (s *researchService) ListNotes(dbc dbctx.Context, agentID int64, limit int) ([]*types.ResearchNote, error) {
	return s.notes.ListByAgent(dbc, agentID, limit)
}

func preview(text string, n int) string {
	if len(text) > n {
		return text[:n] + "..."
	}
	return text
}

// FormatResearchResult renders a research outcome as tool output for the
// model.
func FormatResearchResult(r *ResearchResult) string {
	if r.Success {
		return fmt.Sprintf("Researched: %s\n\nContent preview:\n%s", r.Title, r.Preview)
	}
	return fmt.Sprintf("Research failed for %s: %s", r.URL, r.Error)
}

// FormatSearchResult renders a search outcome as tool output for the
// model.
func FormatSearchResult(r *SearchResult) string {
	if !r.Success {
		return fmt.Sprintf("Search error: %s", r.Error)
	}
	if r.Count == 0 {
		return fmt.Sprintf("No existing research found for query: %s", r.Query)
	}
	summaries := make([]string, 0, r.Count)
	for i, item := range r.Results {
		summaries = append(summaries, fmt.Sprintf("%d. %s (%s)\n%s", i+1, item.Title, item.URL, item.Preview))
	}
	return fmt.Sprintf("Found %d relevant research notes:\n\n%s", r.Count, strings.Join(summaries, "\n\n"))
}

// FormatJobResult renders a research outcome as a background job result
// payload.
func FormatJobResult(r *ResearchResult) map[string]any {
	if r.Success {
		return map[string]any{
			"title":           r.Title,
			"word_count":      r.WordCount,
			"vector_id":       r.VectorID,
			"content_preview": r.Preview,
		}
	}
	return map[string]any{"error": r.Error, "scrape_success": false}
}
