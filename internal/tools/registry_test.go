package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
)

func echoTool(id string, params map[string]model.ParamSchema) *Tool {
	return &Tool{
		Meta: model.ToolMetadata{
			ToolID:      id,
			Description: "echoes its arguments",
			Category:    model.CategoryUtility,
			Parameters:  params,
		},
		Exec: func(ctx context.Context, inv *Invocation) *Result {
			return Success(map[string]any{"args": inv.Args})
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", nil)))

	tool, err := r.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", tool.Meta.ToolID)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", nil)))
	assert.Error(t, r.Register(echoTool("echo", nil)))
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("b", nil)))
	require.NoError(t, r.Register(echoTool("a", nil)))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ToolID)
	assert.Equal(t, "a", list[1].ToolID)
	assert.Equal(t, "echoes its arguments", list[0].Description)
}

func TestMetadataUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Metadata("missing")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDefinitionsSkipsUnknownIDs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", map[string]model.ParamSchema{
		"text": {Required: true, Type: "string", Description: "text to echo"},
	})))

	defs := r.Definitions([]string{"echo", "missing"})
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, []string{"text"}, defs[0].Parameters["required"])
}

func TestExecuteUnknownToolReturnsNotFound(t *testing.T) {
	r := NewRegistry()
	tool, res := r.Execute(context.Background(), llm.ToolCall{Name: "missing"}, &Invocation{})
	assert.Nil(t, tool)
	assert.True(t, res.IsError())
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestExecuteRejectsMissingRequiredParam(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", map[string]model.ParamSchema{
		"text": {Required: true, Type: "string", Description: "text to echo"},
	})))

	_, res := r.Execute(context.Background(), llm.ToolCall{Name: "echo", Arguments: `{}`}, &Invocation{})
	assert.True(t, res.IsError())
	assert.Equal(t, KindValidation, res.Kind)
	assert.Contains(t, res.Message, "text")
}

func TestExecuteRejectsInvalidJSONArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", nil)))

	_, res := r.Execute(context.Background(), llm.ToolCall{Name: "echo", Arguments: `{broken`}, &Invocation{})
	assert.True(t, res.IsError())
	assert.Equal(t, KindValidation, res.Kind)
}

func TestExecuteDecodesArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", nil)))

	inv := &Invocation{}
	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      "echo",
		Arguments: `{"text":"hello","count":3}`,
	}, inv)
	require.False(t, res.IsError())
	assert.Equal(t, "hello", inv.StringArg("text"))
	assert.Equal(t, 3, inv.IntArg("count", 0))
	assert.Nil(t, inv.OptStringArg("absent"))
}

func TestResultJSONRoundTrip(t *testing.T) {
	res := Errorf(KindConflict, "an email draft already exists")
	assert.Contains(t, res.JSON(), `"draft_conflict"`)
	assert.Contains(t, res.JSON(), "already exists")
}
