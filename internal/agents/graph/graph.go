package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/findmeajob/findmeajob-backend/internal/domain"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/platform/ollama"
	"github.com/findmeajob/findmeajob-backend/internal/utils"
)

const (
	EventMessage = "message"
	EventError   = "error"
	EventDone    = "done"

	// DoneData is the payload of every terminal done event.
	DoneData = "[DONE]"
)

// Event is one unit of the streamed run. A non-nil Err means the run
// failed before producing any output; the channel closes right after.
type Event struct {
	Event string
	Data  string
	Err   error
}

// Graph runs the bounded model/tools loop: a model turn streams tokens
// and may request tool calls; a tools turn executes them and feeds the
// results back; the run ends when a model turn requests no tools.
type Graph struct {
	log       *logger.Logger
	llm       ollama.Client
	registry  *Registry
	maxRounds int
}

func New(log *logger.Logger, llm ollama.Client, registry *Registry) *Graph {
	return &Graph{
		log:       log.With("component", "AgentGraph"),
		llm:       llm,
		registry:  registry,
		maxRounds: utils.GetEnvAsInt("GRAPH_MAX_TOOL_ROUNDS", 8, log),
	}
}

// Stream executes one run and returns its event channel. The channel is
// closed after the terminal event; consumers must drain it. Token events
// arrive as {message, <delta>}, failures as {error, <text>} followed by
// {done, [DONE]}, success as {done, [DONE]}.
func (g *Graph) Stream(ctx context.Context, agent *types.Agent, history []ollama.Message, userMessage string) <-chan Event {
	out := make(chan Event)
	go g.run(ctx, agent, history, userMessage, out)
	return out
}

func (g *Graph) run(ctx context.Context, agent *types.Agent, history []ollama.Message, userMessage string, out chan<- Event) {
	defer close(out)

	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	msgs := g.buildMessages(agent, history, userMessage)
	log := g.log.With("agent_id", agent.ID)
	log.Debug("starting graph run", "messages", len(msgs))

	emitted := false
	for round := 0; ; round++ {
		resp, err := g.llm.ChatStream(ctx, msgs, g.registry.Specs(), func(token string) {
			if token == "" {
				return
			}
			if emit(Event{Event: EventMessage, Data: token}) {
				emitted = true
			}
		})
		if err != nil {
			log.Error("model turn failed", "round", round, "error", err)
			if !emitted && errors.Is(err, ollama.ErrUnavailable) {
				// Nothing streamed yet: let the caller fail the whole
				// request instead of starting a broken stream.
				emit(Event{Err: err})
				return
			}
			emit(Event{Event: EventError, Data: fmt.Sprintf("An error occurred: %v", err)})
			emit(Event{Event: EventDone, Data: DoneData})
			return
		}

		assistant := ollama.Message{
			Role:      "assistant",
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		}
		msgs = append(msgs, assistant)

		if len(assistant.ToolCalls) == 0 {
			emit(Event{Event: EventDone, Data: DoneData})
			return
		}

		if round+1 >= g.maxRounds {
			log.Error("tool round limit reached", "rounds", g.maxRounds)
			emit(Event{Event: EventError, Data: fmt.Sprintf("An error occurred: tool round limit (%d) reached", g.maxRounds)})
			emit(Event{Event: EventDone, Data: DoneData})
			return
		}

		for i, call := range assistant.ToolCalls {
			callID := fmt.Sprintf("call_%d_%d", round, i)
			content := g.executeCall(ctx, agent.ID, call)
			msgs = append(msgs, ollama.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: callID,
			})
		}
	}
}

// executeCall runs one tool call; every outcome, including unknown tools
// and execution errors, becomes tool message content for the next model
// turn.
func (g *Graph) executeCall(ctx context.Context, agentID int64, call ollama.ToolCall) string {
	name := call.Function.Name
	tool, ok := g.registry.Lookup(name)
	if !ok {
		g.log.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	args := make(map[string]any, len(call.Function.Arguments)+1)
	for k, v := range call.Function.Arguments {
		args[k] = v
	}
	if tool.NeedsAgentID {
		// The run decides identity; a model-supplied agent_id is not
		// trusted.
		args["agent_id"] = agentID
	}

	result, err := tool.Fn(ctx, args)
	if err != nil {
		g.log.Error("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}

// buildMessages assembles the model input: system prompt (unless history
// already starts with one), prior conversation, then the new user turn.
func (g *Graph) buildMessages(agent *types.Agent, history []ollama.Message, userMessage string) []ollama.Message {
	msgs := make([]ollama.Message, 0, len(history)+2)
	if agent.SystemPrompt != nil && strings.TrimSpace(*agent.SystemPrompt) != "" {
		if len(history) == 0 || history[0].Role != "system" {
			msgs = append(msgs, ollama.Message{Role: "system", Content: *agent.SystemPrompt})
		}
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, ollama.Message{Role: "user", Content: userMessage})
	return msgs
}

// HistoryFromMessages converts stored rows into model input, mapping the
// stored roles onto the chat API's.
func HistoryFromMessages(rows []*types.Message) []ollama.Message {
	out := make([]ollama.Message, 0, len(rows))
	for _, row := range rows {
		msg := ollama.Message{Content: row.Content}
		switch row.MessageType {
		case types.MessageTypeHuman:
			msg.Role = "user"
		case types.MessageTypeAI:
			msg.Role = "assistant"
		case types.MessageTypeSystem:
			msg.Role = "system"
		case types.MessageTypeTool:
			msg.Role = "tool"
		default:
			continue
		}
		if row.ToolCallID != nil {
			msg.ToolCallID = *row.ToolCallID
		}
		if calls, err := row.GetToolCalls(); err == nil {
			for _, c := range calls {
				msg.ToolCalls = append(msg.ToolCalls, ollama.ToolCall{
					Function: ollama.ToolCallFunction{Name: c.Name, Arguments: c.Args},
				})
			}
		}
		out = append(out, msg)
	}
	return out
}
