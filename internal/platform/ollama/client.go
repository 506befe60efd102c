package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

// ErrUnavailable wraps network-level failures reaching the model server.
// The HTTP layer checks for it to answer 503 before any token is sent.
var ErrUnavailable = errors.New("ollama unavailable")

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

type ChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

// StreamCallback receives each content delta as it arrives.
type StreamCallback func(token string)

type Client interface {
	Chat(ctx context.Context, messages []Message, tools []map[string]any) (*ChatResponse, error)
	// ChatStream runs one model call over newline-delimited JSON. Content
	// deltas go to cb as they arrive; the returned response carries the
	// full accumulated content and any tool calls from the final chunk.
	ChatStream(ctx context.Context, messages []Message, tools []map[string]any, cb StreamCallback) (*ChatResponse, error)
	Ping(ctx context.Context) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	if model == "" {
		model = "gpt-oss"
	}

	timeout := 180 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OLLAMA_TIMEOUT_SECONDS")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &client{
		log:        log.With("service", "OllamaClient"),
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) Chat(ctx context.Context, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	return c.ChatStream(ctx, messages, tools, nil)
}

func (c *client) ChatStream(ctx context.Context, messages []Message, tools []map[string]any, cb StreamCallback) (*ChatResponse, error) {
	stream := cb != nil

	body, err := json.Marshal(ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return nil, fmt.Errorf("ollama chat failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if !stream {
		var out ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode chat response: %w", err)
		}
		return &out, nil
	}

	var final ChatResponse
	var content strings.Builder
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk ChatResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			cb(chunk.Message.Content)
		}
		if len(chunk.Message.ToolCalls) > 0 {
			final.Message.ToolCalls = chunk.Message.ToolCalls
		}
		if chunk.Done {
			calls := final.Message.ToolCalls
			final = chunk
			if len(final.Message.ToolCalls) == 0 {
				final.Message.ToolCalls = calls
			}
			break
		}
	}
	final.Message.Role = "assistant"
	final.Message.Content = content.String()
	return &final, nil
}

func (c *client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
