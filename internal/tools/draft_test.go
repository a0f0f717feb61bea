package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
)

func newDraftToolRegistry(t *testing.T) (*Registry, *drafts.Manager) {
	t.Helper()
	mgr := drafts.NewManager(drafts.NewMemoryBackend())
	r := NewRegistry()
	require.NoError(t, RegisterDraftTools(r, mgr))
	return r, mgr
}

func TestCreateDraftEmailTool(t *testing.T) {
	r, mgr := newDraftToolRegistry(t)

	inv := &Invocation{ThreadID: "t1"}
	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolCreateDraftEmail,
		Arguments: `{"to":"ann@example.com","subject":"Hi"}`,
	}, inv)
	require.False(t, res.IsError(), res.Message)

	d, err := mgr.Get(context.Background(), "t1", model.DraftEmail)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", d.(*model.EmailDraft).To)
}

func TestCreateDraftConflictResult(t *testing.T) {
	r, mgr := newDraftToolRegistry(t)
	ctx := context.Background()

	subject := "Hi"
	_, err := mgr.UpsertEmail(ctx, "t1", model.EmailDraftInput{Subject: &subject})
	require.NoError(t, err)

	_, res := r.Execute(ctx, llm.ToolCall{
		Name:      ToolCreateDraftCalendarEvent,
		Arguments: `{"title":"Standup"}`,
	}, &Invocation{ThreadID: "t1"})
	require.True(t, res.IsError())
	assert.Equal(t, KindConflict, res.Kind)
	assert.Contains(t, res.Message, "email draft")
}

func TestCreateDraftCalendarChangeTool(t *testing.T) {
	r, mgr := newDraftToolRegistry(t)

	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolCreateDraftCalendarChange,
		Arguments: `{"event_id":"evt-7","change_type":"cancel","changed_fields":{"status":"cancelled"}}`,
	}, &Invocation{ThreadID: "t1"})
	require.False(t, res.IsError(), res.Message)

	d, err := mgr.Get(context.Background(), "t1", model.DraftCalendarChange)
	require.NoError(t, err)
	change := d.(*model.CalendarChangeDraft)
	assert.Equal(t, "evt-7", change.EventID)
	assert.Equal(t, "cancelled", change.ChangedFields["status"])
}

func TestDeleteDraftToolAbsentIsNoOp(t *testing.T) {
	r, _ := newDraftToolRegistry(t)

	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolDeleteDraft,
		Arguments: `{"draft_type":"email"}`,
	}, &Invocation{ThreadID: "t1"})
	require.False(t, res.IsError())
	assert.Equal(t, false, res.Data["deleted"])
}

func TestDeleteDraftToolRejectsUnknownType(t *testing.T) {
	r, _ := newDraftToolRegistry(t)

	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolDeleteDraft,
		Arguments: `{"draft_type":"grocery_list"}`,
	}, &Invocation{ThreadID: "t1"})
	require.True(t, res.IsError())
	assert.Equal(t, KindValidation, res.Kind)
}

func TestClearDraftsToolReturnsClearedTags(t *testing.T) {
	r, mgr := newDraftToolRegistry(t)
	ctx := context.Background()

	subject := "Hi"
	_, err := mgr.UpsertEmail(ctx, "t1", model.EmailDraftInput{Subject: &subject})
	require.NoError(t, err)

	_, res := r.Execute(ctx, llm.ToolCall{Name: ToolClearDrafts, Arguments: `{}`}, &Invocation{ThreadID: "t1"})
	require.False(t, res.IsError())
	assert.Equal(t, []string{"email"}, res.Data["cleared"])

	live, err := mgr.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, live)
}
