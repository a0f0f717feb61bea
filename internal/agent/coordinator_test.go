package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
)

func newTestCoordinator(t *testing.T, toolModel, textModel llm.Client) (*Coordinator, *drafts.Manager) {
	t.Helper()
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	registry := newTestRegistry(t, mgr)
	return NewCoordinator(toolModel, textModel, registry, mgr, 5, logger.NewNop()), mgr
}

func TestRunTurnCalendarReadQuery(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "record_calendar_info", `{"title":"Tomorrow","content":"Standup at 9am, then a 2pm review."}`),
		}},
	}}
	coord, _ := newTestCoordinator(t, m, nil)

	reply, state, err := coord.RunTurn(context.Background(), "t1", "u1", "What's on my calendar tomorrow?", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Standup at 9am")
	assert.Equal(t, model.AnalysisCompleted, state.Analysis.Status)
	assert.Equal(t, "What's on my calendar tomorrow?", state.Analysis.Original)
	assert.NotEmpty(t, state.Analysis.Restated)
	assert.Equal(t, reply, state.FinalSummary)

	// The calendar handler only ever sees its own tool subset.
	require.NotEmpty(t, m.requests)
	for _, def := range m.requests[0].Tools {
		assert.NotEqual(t, "create_draft_email", def.Name)
	}
}

func TestRunTurnDraftConflictSurfacesToUser(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "create_draft_calendar_event", `{"title":"Planning"}`),
		}},
		{Content: "You already have an email draft in progress. Should I discard it first?"},
	}}
	coord, mgr := newTestCoordinator(t, m, nil)

	ctx := context.Background()
	subject := "Quarterly review"
	_, err := mgr.UpsertEmail(ctx, "t1", model.EmailDraftInput{Subject: &subject})
	require.NoError(t, err)

	reply, _, err := coord.RunTurn(ctx, "t1", "u1", "Schedule a planning meeting", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "already have an email draft")

	// The conflict brief reaches the model both as prompt context and as
	// the failed tool's result.
	assert.Contains(t, m.requests[0].System, "Quarterly review")
	conflictMsg := m.requests[1].Messages[len(m.requests[1].Messages)-1]
	assert.Equal(t, "tool", conflictMsg.Role)
	assert.Contains(t, conflictMsg.Content, "draft_conflict")

	// The email draft survives untouched and no event draft exists.
	live, err := mgr.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, model.DraftEmail, live[0].Variant())
}

func TestRunTurnCalendarEditTwoStep(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{
		// Calendar handler resolves the event and hands off.
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "record_calendar_info", `{"title":"Sarah 1:1","content":"Found event evt-42, Tuesday 10am."}`),
		}},
		// Draft handler composes the change using the resolved id.
		{ToolCalls: []llm.ToolCall{
			toolCall("c2", "create_draft_calendar_change", `{"event_id":"evt-42","change_type":"time_change","changed_fields":{"start_time":"2026-09-03T10:00:00Z"}}`),
		}},
		{ToolCalls: []llm.ToolCall{
			toolCall("c3", "record_draft_info", `{"title":"Change drafted","content":"Moved the 1:1 to Thursday 10am."}`),
		}},
	}}
	coord, mgr := newTestCoordinator(t, m, nil)

	reply, state, err := coord.RunTurn(context.Background(), "t1", "u1",
		"Reschedule my 1:1 meeting with Sarah to Thursday", nil)
	require.NoError(t, err)

	// Both handlers ran, in order, and the second one saw the first one's
	// finding in its prompt.
	require.Len(t, state.Findings["calendar"], 1)
	require.Len(t, state.Findings["draft"], 1)
	require.GreaterOrEqual(t, len(m.requests), 2)
	assert.Contains(t, m.requests[1].System, "evt-42")

	assert.Contains(t, reply, "evt-42")
	assert.Contains(t, reply, "Thursday")

	d, err := mgr.Get(context.Background(), "t1", model.DraftCalendarChange)
	require.NoError(t, err)
	change := d.(*model.CalendarChangeDraft)
	assert.Equal(t, "evt-42", change.EventID)
	assert.Equal(t, "2026-09-03T10:00:00Z", change.ChangedFields["start_time"])
}

func TestRunTurnAmbiguousEditAsksForClarification(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{{Content: "unreachable"}}}
	coord, _ := newTestCoordinator(t, m, nil)

	reply, state, err := coord.RunTurn(context.Background(), "t1", "u1",
		"Change the title to Project Kickoff", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "which item")
	assert.Equal(t, model.AnalysisCompleted, state.Analysis.Status)
	assert.Empty(t, m.requests, "clarification never reaches a handler")
}

func TestRunTurnModelClassificationFallback(t *testing.T) {
	textModel := &scriptedModel{script: []*llm.CompletionResponse{
		{Content: `Here you go: {"handler":"email","restated":"Summarize recent correspondence."}`},
	}}
	toolModel := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "record_email_info", `{"title":"Recent mail","content":"Three messages from finance."}`),
		}},
	}}
	coord, _ := newTestCoordinator(t, toolModel, textModel)

	reply, state, err := coord.RunTurn(context.Background(), "t1", "u1",
		"Summarize my recent correspondence", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, textModel.calls)
	assert.Equal(t, "Summarize recent correspondence.", state.Analysis.Restated)
	assert.Contains(t, reply, "finance")
}

func TestRunTurnNoTextModelClarifiesUnresolvedIntent(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{{Content: "unreachable"}}}
	coord, _ := newTestCoordinator(t, m, nil)

	reply, _, err := coord.RunTurn(context.Background(), "t1", "u1",
		"Summarize my recent correspondence", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Empty(t, m.requests)
}

func TestRunTurnCreateIntentReachesDraftHandler(t *testing.T) {
	m := &scriptedModel{script: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "create_draft_email", `{"to":"team@example.com","subject":"Launch update"}`),
		}},
		{ToolCalls: []llm.ToolCall{
			toolCall("c2", "record_draft_info", `{"title":"Email drafted","content":"Draft to the team about the launch."}`),
		}},
	}}
	coord, mgr := newTestCoordinator(t, m, nil)

	reply, _, err := coord.RunTurn(context.Background(), "t1", "u1",
		"Draft an email to the team about the launch", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "launch")

	d, err := mgr.Get(context.Background(), "t1", model.DraftEmail)
	require.NoError(t, err)
	assert.Equal(t, "Launch update", d.(*model.EmailDraft).Subject)
}
