package chroma

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

// VectorStore exposes per-agent research collections. Each agent owns
// one collection named agent_<id>_research; collection ids are cached
// after the first lookup.
type VectorStore interface {
	AddDocument(ctx context.Context, agentID int64, vectorID, document string, metadata map[string]any) error
	QueryDocuments(ctx context.Context, agentID int64, query string, topK int) ([]DocumentMatch, error)
	DeleteAgentCollection(ctx context.Context, agentID int64) error
}

type DocumentMatch struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

type vectorStore struct {
	log         *logger.Logger
	client      Client
	mu          sync.Mutex
	collections map[int64]string
}

func NewVectorStore(log *logger.Logger, client Client) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if client == nil {
		return nil, fmt.Errorf("chroma client required")
	}
	return &vectorStore{
		log:         log.With("service", "ChromaVectorStore"),
		client:      client,
		collections: make(map[int64]string),
	}, nil
}

func CollectionName(agentID int64) string {
	return fmt.Sprintf("agent_%d_research", agentID)
}

func (s *vectorStore) collectionID(ctx context.Context, agentID int64) (string, error) {
	if agentID <= 0 {
		return "", fmt.Errorf("missing agent_id")
	}
	s.mu.Lock()
	id, ok := s.collections[agentID]
	s.mu.Unlock()
	if ok {
		return id, nil
	}
	col, err := s.client.GetOrCreateCollection(ctx, CollectionName(agentID), map[string]any{
		"agent_id": agentID,
	})
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.collections[agentID] = col.ID
	s.mu.Unlock()
	return col.ID, nil
}

func (s *vectorStore) AddDocument(ctx context.Context, agentID int64, vectorID, document string, metadata map[string]any) error {
	if strings.TrimSpace(vectorID) == "" {
		return fmt.Errorf("missing vector_id")
	}
	if strings.TrimSpace(document) == "" {
		return fmt.Errorf("missing document")
	}
	id, err := s.collectionID(ctx, agentID)
	if err != nil {
		return err
	}
	req := AddRequest{
		IDs:       []string{vectorID},
		Documents: []string{document},
	}
	if len(metadata) > 0 {
		req.Metadatas = []map[string]any{metadata}
	}
	return s.client.Add(ctx, id, req)
}

func (s *vectorStore) QueryDocuments(ctx context.Context, agentID int64, query string, topK int) ([]DocumentMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []DocumentMatch{}, nil
	}
	if topK <= 0 {
		topK = 3
	}
	id, err := s.collectionID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Query(ctx, id, QueryRequest{
		QueryTexts: []string{query},
		NResults:   topK,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return []DocumentMatch{}, nil
	}

	ids := resp.IDs[0]
	out := make([]DocumentMatch, 0, len(ids))
	for i, vid := range ids {
		m := DocumentMatch{ID: vid}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			m.Document = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Distance = resp.Distances[0][i]
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *vectorStore) DeleteAgentCollection(ctx context.Context, agentID int64) error {
	if agentID <= 0 {
		return fmt.Errorf("missing agent_id")
	}
	s.mu.Lock()
	delete(s.collections, agentID)
	s.mu.Unlock()
	return s.client.DeleteCollection(ctx, CollectionName(agentID))
}
