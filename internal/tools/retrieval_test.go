package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/office"
)

// fakeOffice serves canned office responses and records the filters it
// was called with.
type fakeOffice struct {
	items   *office.ItemsResult
	search  *office.SearchResult
	err     error
	lastUID string
	lastF   office.Filters
}

func (f *fakeOffice) call(userID string, filters office.Filters) (*office.ItemsResult, error) {
	f.lastUID = userID
	f.lastF = filters
	return f.items, f.err
}

func (f *fakeOffice) GetCalendarEvents(ctx context.Context, userID string, fl office.Filters) (*office.ItemsResult, error) {
	return f.call(userID, fl)
}
func (f *fakeOffice) GetEmails(ctx context.Context, userID string, fl office.Filters) (*office.ItemsResult, error) {
	return f.call(userID, fl)
}
func (f *fakeOffice) GetNotes(ctx context.Context, userID string, fl office.Filters) (*office.ItemsResult, error) {
	return f.call(userID, fl)
}
func (f *fakeOffice) GetDocuments(ctx context.Context, userID string, fl office.Filters) (*office.ItemsResult, error) {
	return f.call(userID, fl)
}
func (f *fakeOffice) SearchAllData(ctx context.Context, userID, query string, maxResults int) (*office.SearchResult, error) {
	f.lastUID = userID
	f.lastF = office.Filters{Query: query, MaxResults: maxResults}
	return f.search, f.err
}

func TestGetCalendarEventsToolMapsFilters(t *testing.T) {
	fake := &fakeOffice{items: &office.ItemsResult{
		Status: "success",
		Items:  []map[string]any{{"id": "evt-1", "title": "Standup"}},
	}}
	r := NewRegistry()
	require.NoError(t, RegisterRetrievalTools(r, fake))

	inv := &Invocation{UserID: "u1"}
	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolGetCalendarEvents,
		Arguments: `{"start_date":"2026-09-01","end_date":"2026-09-07","max_results":5}`,
	}, inv)

	require.False(t, res.IsError(), res.Message)
	assert.Equal(t, "u1", fake.lastUID)
	assert.Equal(t, "2026-09-01", fake.lastF.StartDate)
	assert.Equal(t, "2026-09-07", fake.lastF.EndDate)
	assert.Equal(t, 5, fake.lastF.MaxResults)
	assert.Equal(t, 1, res.Data["count"])
}

func TestRetrievalToolUpstreamErrorBecomesErrorResult(t *testing.T) {
	fake := &fakeOffice{err: &office.UpstreamError{Op: "get_emails", Status: 503, Reason: "unavailable"}}
	r := NewRegistry()
	require.NoError(t, RegisterRetrievalTools(r, fake))

	_, res := r.Execute(context.Background(), llm.ToolCall{Name: ToolGetEmails, Arguments: `{}`}, &Invocation{UserID: "u1"})
	require.True(t, res.IsError())
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Contains(t, res.Message, "unavailable")
}

func TestRetrievalToolTimeoutBecomesErrorResult(t *testing.T) {
	fake := &fakeOffice{err: context.DeadlineExceeded}
	r := NewRegistry()
	require.NoError(t, RegisterRetrievalTools(r, fake))

	// The request context itself is alive; only the office call deadlined.
	_, res := r.Execute(context.Background(), llm.ToolCall{Name: ToolGetNotes, Arguments: `{}`}, &Invocation{UserID: "u1"})
	require.True(t, res.IsError())
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Contains(t, res.Message, "timed out")
}

func TestSearchAllDataToolRequiresQuery(t *testing.T) {
	fake := &fakeOffice{search: &office.SearchResult{Status: "success"}}
	r := NewRegistry()
	require.NoError(t, RegisterRetrievalTools(r, fake))

	_, res := r.Execute(context.Background(), llm.ToolCall{Name: ToolSearchAllData, Arguments: `{}`}, &Invocation{UserID: "u1"})
	require.True(t, res.IsError())
	assert.Equal(t, KindValidation, res.Kind)
}

func TestSearchAllDataToolReturnsGroupedResults(t *testing.T) {
	fake := &fakeOffice{search: &office.SearchResult{
		Status: "success",
		GroupedResults: office.GroupedResults{
			Emails: []map[string]any{{"id": "m1"}},
		},
		Summary: "1 result",
	}}
	r := NewRegistry()
	require.NoError(t, RegisterRetrievalTools(r, fake))

	inv := &Invocation{UserID: "u1"}
	_, res := r.Execute(context.Background(), llm.ToolCall{
		Name:      ToolSearchAllData,
		Arguments: `{"query":"budget","max_results":10}`,
	}, inv)

	require.False(t, res.IsError(), res.Message)
	assert.Equal(t, "budget", fake.lastF.Query)
	assert.Equal(t, 10, fake.lastF.MaxResults)
	assert.Equal(t, "1 result", res.Data["summary"])
}
