package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

// Client is a thin wrapper over the Chroma REST API. Documents are sent
// as raw text; the server-side embedding function handles vectorization.
type Client interface {
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (*Collection, error)
	Add(ctx context.Context, collectionID string, req AddRequest) error
	Query(ctx context.Context, collectionID string, req QueryRequest) (*QueryResponse, error)
	DeleteCollection(ctx context.Context, name string) error
}

type Collection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type AddRequest struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas,omitempty"`
}

type QueryRequest struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include,omitempty"`
}

// QueryResponse carries one inner slice per query text.
type QueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	host := strings.TrimSpace(os.Getenv("CHROMA_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("CHROMA_PORT"))
	if port == "" {
		port = "8000"
	}
	baseURL := strings.TrimSpace(os.Getenv("CHROMA_BASE_URL"))
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%s", host, port)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &client{
		log:        log.With("service", "ChromaClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *client) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing collection name")
	}
	body := map[string]any{
		"name":          name,
		"get_or_create": true,
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	var out Collection
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections", body, &out); err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("collection %q: empty id in response", name)
	}
	return &out, nil
}

func (c *client) Add(ctx context.Context, collectionID string, req AddRequest) error {
	if strings.TrimSpace(collectionID) == "" {
		return fmt.Errorf("missing collection id")
	}
	if len(req.IDs) == 0 {
		return nil
	}
	if len(req.Documents) != len(req.IDs) {
		return fmt.Errorf("ids and documents length mismatch")
	}
	path := fmt.Sprintf("/api/v1/collections/%s/add", collectionID)
	if err := c.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("add to collection %s: %w", collectionID, err)
	}
	return nil
}

func (c *client) Query(ctx context.Context, collectionID string, req QueryRequest) (*QueryResponse, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(req.QueryTexts) == 0 {
		return &QueryResponse{}, nil
	}
	if req.NResults <= 0 {
		req.NResults = 3
	}
	if len(req.Include) == 0 {
		req.Include = []string{"documents", "metadatas", "distances"}
	}
	path := fmt.Sprintf("/api/v1/collections/%s/query", collectionID)
	var out QueryResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collectionID, err)
	}
	return &out, nil
}

func (c *client) DeleteCollection(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("missing collection name")
	}
	path := fmt.Sprintf("/api/v1/collections/%s", name)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chroma status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
