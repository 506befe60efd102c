package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	agentgraph "github.com/findmeajob/findmeajob-backend/internal/agents/graph"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/chat"
	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/dbctx"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

// ErrAgentNotFound maps to 404 at the HTTP layer.
var ErrAgentNotFound = errors.New("agent not found")

const persistQueueCap = 64

// ChatStream is one in-flight chat turn. Events carries the run ready
// for SSE framing; Persisted resolves when the background persistence
// task has finished, stream success or not.
type ChatStream struct {
	Conversation *types.Conversation
	Events       <-chan agentgraph.Event
	Persisted    <-chan struct{}
}

type ChatService interface {
	// StartStream validates the request, records the user message, and
	// launches the graph run with its persistence task attached.
	StartStream(ctx context.Context, agentID int64, threadID, message string) (*ChatStream, error)
	ListMessages(dbc dbctx.Context, threadID string, limit int) ([]*types.Message, error)
	ListConversations(dbc dbctx.Context, agentID int64, limit int) ([]*types.Conversation, error)
	CreateConversation(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error)
	DeleteConversation(dbc dbctx.Context, threadID string) error
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	agents        agents.AgentRepo
	conversations chat.ConversationRepo
	messages      chat.MessageRepo
	graph         *agentgraph.Graph
	historyLimit  int
}

func NewChatService(db *gorm.DB, log *logger.Logger, agentRepo agents.AgentRepo, convRepo chat.ConversationRepo, msgRepo chat.MessageRepo, graph *agentgraph.Graph) ChatService {
	return &chatService{
		db:            db,
		log:           log.With("service", "ChatService"),
		agents:        agentRepo,
		conversations: convRepo,
		messages:      msgRepo,
		graph:         graph,
		historyLimit:  200,
	}
}

func (s *chatService) StartStream(ctx context.Context, agentID int64, threadID, message string) (*ChatStream, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	dbc := dbctx.Context{Ctx: ctx}
	agent, err := s.agents.GetByID(dbc, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("load agent: %w", err)
	}

	conv, err := s.conversations.GetOrCreate(dbc, agent.ID, threadID)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	rows, err := s.messages.ListByConversation(dbc, conv.ID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := agentgraph.HistoryFromMessages(rows)

	// The user message is durable before the stream starts; a duplicate
	// message_id or storage failure aborts the whole request.
	seq, err := s.messages.NextSeq(dbc, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	if _, err := s.messages.Save(dbc, &types.Message{
		ConversationID: conv.ID,
		MessageID:      uuid.NewString(),
		MessageType:    types.MessageTypeHuman,
		Content:        message,
		SequenceNumber: seq,
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	if err := s.conversations.Touch(dbc, conv.ID); err != nil {
		s.log.Warn("touch conversation failed", "conversation_id", conv.ID, "error", err)
	}

	// The run outlives the request. A client disconnect must only stop
	// delivery; token generation and persistence keep going, so the graph
	// and its model calls run on a context detached from cancellation.
	src := s.graph.Stream(context.WithoutCancel(ctx), agent, history, message)

	queue := make(chan agentgraph.Event, persistQueueCap)
	persisted := make(chan struct{})
	go func() {
		defer close(persisted)
		s.persistFromQueue(conv.ID, queue)
	}()
	events := teeStream(ctx, src, queue)

	return &ChatStream{Conversation: conv, Events: events, Persisted: persisted}, nil
}

// teeStream forwards every source event to the persistence queue before
// yielding it downstream, so the queue sees the same prefix the client
// does. Queue closure is the only completion signal the persistence task
// gets; it fires exactly once, whether the source ended cleanly, failed
// mid-stream, or failed before producing output.
func teeStream(ctx context.Context, src <-chan agentgraph.Event, queue chan<- agentgraph.Event) <-chan agentgraph.Event {
	out := make(chan agentgraph.Event)
	go func() {
		defer close(out)
		var closeOnce sync.Once
		closeQueue := func() { closeOnce.Do(func() { close(queue) }) }
		defer closeQueue()

		for ev := range src {
			if ev.Err != nil {
				// Source died before streaming anything. Record the
				// failure for the persistence side, then surface the
				// carrier event so the caller can fail the request.
				queue <- agentgraph.Event{Event: agentgraph.EventError, Data: ev.Err.Error()}
				closeQueue()
			} else {
				queue <- ev
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				// Client gone. Keep feeding the queue so persistence
				// still sees everything the source produces.
				for rest := range src {
					if rest.Err == nil {
						queue <- rest
					}
				}
				return
			}
			if ev.Err != nil {
				return
			}
		}
	}()
	return out
}

// persistFromQueue drains one run's event queue, concatenating message
// payloads in arrival order, and writes a single ai message when the
// queue closes. It runs detached from the request: a disconnected client
// must not lose the turn. Persistence failures are logged and dropped.
func (s *chatService) persistFromQueue(conversationID int64, queue <-chan agentgraph.Event) {
	var text strings.Builder
	for ev := range queue {
		if ev.Event == agentgraph.EventMessage {
			text.WriteString(ev.Data)
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return
	}

	dbc := dbctx.Background()
	log := s.log.With("conversation_id", conversationID)

	seq, err := s.messages.NextSeq(dbc, conversationID)
	if err != nil {
		log.Error("assistant persistence: next sequence failed", "error", err)
		return
	}
	if _, err := s.messages.Save(dbc, &types.Message{
		ConversationID: conversationID,
		MessageID:      uuid.NewString(),
		MessageType:    types.MessageTypeAI,
		Content:        text.String(),
		SequenceNumber: seq,
	}); err != nil {
		log.Error("assistant persistence: save failed", "error", err)
		return
	}
	if err := s.conversations.Touch(dbc, conversationID); err != nil {
		log.Warn("assistant persistence: touch failed", "error", err)
	}
}

func (s *chatService) ListMessages(dbc dbctx.Context, threadID string, limit int) ([]*types.Message, error) {
	conv, err := s.conversations.GetByThread(dbc, threadID)
	if err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(dbc, conv.ID, limit)
}

func (s *chatService) ListConversations(dbc dbctx.Context, agentID int64, limit int) ([]*types.Conversation, error) {
	if _, err := s.agents.GetByID(dbc, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return s.conversations.ListByAgent(dbc, agentID, limit)
}

func (s *chatService) CreateConversation(dbc dbctx.Context, agentID int64, threadID string) (*types.Conversation, error) {
	if _, err := s.agents.GetByID(dbc, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return s.conversations.Create(dbc, agentID, threadID)
}

func (s *chatService) DeleteConversation(dbc dbctx.Context, threadID string) error {
	if _, err := s.conversations.GetByThread(dbc, threadID); err != nil {
		return err
	}
	return s.conversations.Delete(dbc, threadID)
}
