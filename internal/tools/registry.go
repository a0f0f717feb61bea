// Package tools provides the tool catalog: a registry mapping stable tool
// ids to callable behavior, metadata, and parameter schemas.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

// ErrUnknownTool is returned for lookups of unregistered tool ids.
var ErrUnknownTool = errors.New("unknown tool")

// Error kinds carried on tool results so the model can explain failures.
const (
	KindUpstream   = "upstream_error"
	KindConflict   = "draft_conflict"
	KindValidation = "validation_error"
	KindNotFound   = "not_found"
	KindInternal   = "internal_error"
)

// Result is the structured outcome of a tool execution. Tools never
// panic or abort the turn; failures come back as error results the model
// can explain to the user.
type Result struct {
	Status  string         `json:"status"`
	Kind    string         `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Success builds a success result.
func Success(data map[string]any) *Result {
	return &Result{Status: "success", Data: data}
}

// Errorf builds an error result of the given kind.
func Errorf(kind, format string, args ...any) *Result {
	return &Result{Status: "error", Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// JSON renders the result for a role=tool message.
func (r *Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","kind":"internal_error","message":"unencodable result"}`
	}
	return string(data)
}

// IsError reports whether the result is an error result.
func (r *Result) IsError() bool {
	return r.Status == "error"
}

// Invocation carries the per-call context a tool executes under.
type Invocation struct {
	ThreadID string
	UserID   string
	// Handler is the name of the handler driving the loop.
	Handler string
	// Args holds the model-supplied arguments, decoded from JSON.
	Args map[string]any
	// State is the turn's findings accumulator.
	State *model.TurnState
}

// ExecFunc is the callable behavior behind a tool id.
type ExecFunc func(ctx context.Context, inv *Invocation) *Result

// Tool pairs metadata with behavior. Handoff tools return control to the
// coordinator once invoked.
type Tool struct {
	Meta    model.ToolMetadata
	Exec    ExecFunc
	Handoff bool
}

// Registry is the tool catalog.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty catalog.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool to the catalog.
func (r *Registry) Register(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := t.Meta.ToolID
	if id == "" {
		return errors.New("tool id cannot be empty")
	}
	if _, exists := r.tools[id]; exists {
		return fmt.Errorf("tool %q already registered", id)
	}
	r.tools[id] = t
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a tool by id.
func (r *Registry) Get(id string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, id)
	}
	return t, nil
}

// Metadata returns the full metadata for a tool id.
func (r *Registry) Metadata(id string) (model.ToolMetadata, error) {
	t, err := r.Get(id)
	if err != nil {
		return model.ToolMetadata{}, err
	}
	return t.Meta, nil
}

// List returns (tool_id, description) pairs in registration order.
func (r *Registry) List() []model.ToolSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ToolSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, model.ToolSummary{
			ToolID:      id,
			Description: r.tools[id].Meta.Description,
		})
	}
	return out
}

// Definitions builds model-facing declarations for a tool subset.
// Unknown ids are skipped.
func (r *Registry) Definitions(ids []string) []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(ids))
	for _, id := range ids {
		t, ok := r.tools[id]
		if !ok {
			continue
		}
		defs = append(defs, definition(t.Meta))
	}
	return defs
}

func definition(meta model.ToolMetadata) llm.ToolDefinition {
	props := make(map[string]any, len(meta.Parameters))
	var required []string
	for name, p := range meta.Parameters {
		props[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	params := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		params["required"] = required
	}

	return llm.ToolDefinition{
		Name:        meta.ToolID,
		Description: meta.Description,
		Parameters:  params,
	}
}

// Execute dispatches one model-requested tool call. It returns the tool
// (nil when unknown) and a structured result; it never returns an error.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall, inv *Invocation) (*Tool, *Result) {
	t, err := r.Get(call.Name)
	if err != nil {
		metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
		return nil, Errorf(KindNotFound, "no such tool %q", call.Name)
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
			return t, Errorf(KindValidation, "arguments for %s are not valid JSON", call.Name)
		}
	}

	for name, p := range t.Meta.Parameters {
		if !p.Required {
			continue
		}
		if v, ok := args[name]; !ok || v == nil || v == "" {
			metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
			return t, Errorf(KindValidation, "missing required parameter %q", name)
		}
	}

	inv.Args = args
	res := t.Exec(ctx, inv)
	if res == nil {
		res = Errorf(KindInternal, "tool %s returned no result", call.Name)
	}

	status := "success"
	if res.IsError() {
		status = "error"
	}
	metrics.ToolExecutionsTotal.WithLabelValues(call.Name, status).Inc()
	return t, res
}

// Argument accessors. Model-supplied JSON decodes numbers as float64.

// StringArg returns a string argument or "".
func (inv *Invocation) StringArg(name string) string {
	if v, ok := inv.Args[name].(string); ok {
		return v
	}
	return ""
}

// OptStringArg returns a pointer to a string argument, or nil when the
// model omitted it. Supplied-but-empty still counts as supplied.
func (inv *Invocation) OptStringArg(name string) *string {
	if v, ok := inv.Args[name].(string); ok {
		return &v
	}
	return nil
}

// IntArg returns an integer argument or the default.
func (inv *Invocation) IntArg(name string, def int) int {
	switch v := inv.Args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// MapArg returns an object argument or nil.
func (inv *Invocation) MapArg(name string) map[string]any {
	if v, ok := inv.Args[name].(map[string]any); ok {
		return v
	}
	return nil
}
