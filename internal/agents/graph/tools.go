package graph

import "context"

// Tool is one model-invocable function. Schema follows the OpenAI-style
// function format the chat API expects.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	// NeedsAgentID marks tools whose agent_id argument is supplied by
	// the run, not trusted from the model.
	NeedsAgentID bool
	Fn           func(ctx context.Context, args map[string]any) (string, error)
}

// Registry is an immutable name-to-tool map built once at startup.
type Registry struct {
	tools map[string]*Tool
	specs []map[string]any
}

func NewRegistry(list ...*Tool) *Registry {
	byName := make(map[string]*Tool, len(list))
	specs := make([]map[string]any, 0, len(list))
	for _, t := range list {
		byName[t.Name] = t
		specs = append(specs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return &Registry{tools: byName, specs: specs}
}

// Lookup is an O(1) name resolution; ok is false for unknown tools.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns the tool definitions to attach to model calls.
func (r *Registry) Specs() []map[string]any {
	return r.specs
}

func (r *Registry) Len() int { return len(r.tools) }
