package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/internal/tools"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
)

// scriptedModel replays a fixed sequence of completion responses. Once
// the script runs out it repeats the last response.
type scriptedModel struct {
	script   []*llm.CompletionResponse
	calls    int
	requests []*llm.CompletionRequest
	err      error
}

func (m *scriptedModel) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	i := m.calls
	if i >= len(m.script) {
		i = len(m.script) - 1
	}
	m.calls++
	return m.script[i], nil
}

func (m *scriptedModel) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	return nil, errors.New("not supported")
}

func (m *scriptedModel) SupportsTools() bool { return true }
func (m *scriptedModel) Name() string        { return "scripted" }
func (m *scriptedModel) Models() []string    { return []string{"scripted-1"} }

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: args}
}

func newTestRegistry(t *testing.T, mgr *drafts.Manager) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, tools.RegisterDraftTools(r, mgr))
	require.NoError(t, tools.RegisterRecordTools(r))
	return r
}

func TestLoopFinalAnswerWithoutTools(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{Content: "Nothing on your calendar today."},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	outcome, err := loop.Run(context.Background(), HandlerCalendar, "prompt", nil, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "Nothing on your calendar today.", outcome.Text)
	assert.False(t, outcome.Truncated)
	assert.Equal(t, 1, m.calls)
}

func TestLoopExecutesToolThenFinishes(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", tools.ToolCreateDraftEmail, `{"to":"ann@example.com","subject":"Hi"}`),
		}},
		{Content: "Draft started."},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	outcome, err := loop.Run(context.Background(), HandlerDraft, "prompt",
		[]string{tools.ToolCreateDraftEmail}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "Draft started.", outcome.Text)

	d, err := mgr.Get(context.Background(), "t1", model.DraftEmail)
	require.NoError(t, err)
	assert.Equal(t, "Hi", d.(*model.EmailDraft).Subject)

	// The second request must carry the assistant tool call and a
	// role=tool result keyed by the call id.
	require.Len(t, m.requests, 2)
	msgs := m.requests[1].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[0].Role)
	assert.Equal(t, "tool", msgs[1].Role)
	assert.Equal(t, "c1", msgs[1].ToolCallID)
}

func TestLoopHandoffOnRecordTool(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", tools.ToolRecordCalendarInfo, `{"title":"Tomorrow","content":"Standup at 9am."}`),
		}},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	state := model.NewTurnState("q")
	inv := &tools.Invocation{ThreadID: "t1", State: state}
	outcome, err := loop.Run(context.Background(), HandlerCalendar, "prompt",
		[]string{tools.ToolRecordCalendarInfo}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandoff, outcome.Kind)
	assert.Equal(t, TargetCoordinator, outcome.Target)

	require.Len(t, state.Findings["calendar"], 1)
	assert.Equal(t, "Tomorrow", state.Findings["calendar"][0].Title)
	assert.Equal(t, "Standup at 9am.", state.Findings["calendar"][0].Content)
}

func TestLoopFailedRecordDoesNotHandOff(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		// Missing required parameters makes the record call fail.
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", tools.ToolRecordCalendarInfo, `{}`),
		}},
		{Content: "Let me try that again."},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	state := model.NewTurnState("q")
	inv := &tools.Invocation{ThreadID: "t1", State: state}
	outcome, err := loop.Run(context.Background(), HandlerCalendar, "prompt",
		[]string{tools.ToolRecordCalendarInfo}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinal, outcome.Kind)
	assert.False(t, state.HasFindings())
}

func TestLoopUnknownToolFeedsErrorBack(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "no_such_tool", `{}`)}},
		{Content: "I can't do that."},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	outcome, err := loop.Run(context.Background(), HandlerCalendar, "prompt", nil, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinal, outcome.Kind)

	msgs := m.requests[1].Messages
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "not_found")
}

func TestLoopBoundExceededDegradesToPartialAnswer(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{
			Content: "Still gathering details.",
			ToolCalls: []llm.ToolCall{
				toolCall("c1", tools.ToolCreateDraftEmail, `{"subject":"Hi"}`),
			},
		},
	}}
	loop := NewLoop(m, registry, 3, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	outcome, err := loop.Run(context.Background(), HandlerDraft, "prompt",
		[]string{tools.ToolCreateDraftEmail}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinal, outcome.Kind)
	assert.True(t, outcome.Truncated)
	assert.Equal(t, "Still gathering details.", outcome.Text)
	assert.Equal(t, 3, m.calls)
}

func TestLoopBoundExceededWithoutTextApologizes(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", tools.ToolCreateDraftEmail, `{"subject":"Hi"}`),
		}},
	}}
	loop := NewLoop(m, registry, 2, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	outcome, err := loop.Run(context.Background(), HandlerDraft, "prompt",
		[]string{tools.ToolCreateDraftEmail}, nil, inv)
	require.NoError(t, err)
	assert.True(t, outcome.Truncated)
	assert.NotEmpty(t, outcome.Text)
}

func TestLoopCancellation(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{{Content: "unreachable"}}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	_, err := loop.Run(ctx, HandlerCalendar, "prompt", nil, nil, inv)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.calls)
}

func TestLoopModelErrorSurfaces(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{err: errors.New("rate limited")}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	_, err := loop.Run(context.Background(), HandlerCalendar, "prompt", nil, nil, inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestLoopDoesNotMutateHistory(t *testing.T) {
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", tools.ToolCreateDraftEmail, `{"subject":"Hi"}`),
		}},
		{Content: "Done."},
	}}
	loop := NewLoop(m, registry, 5, logger.NewNop())

	history := make([]llm.ChatMessage, 1, 4)
	history[0] = llm.ChatMessage{Role: "user", Content: "draft an email"}

	inv := &tools.Invocation{ThreadID: "t1", State: model.NewTurnState("q")}
	_, err := loop.Run(context.Background(), HandlerDraft, "prompt",
		[]string{tools.ToolCreateDraftEmail}, history, inv)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "draft an email", history[0].Content)
}
