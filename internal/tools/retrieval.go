package tools

import (
	"context"
	"errors"

	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/internal/office"
)

// Tool ids for the data-retrieval and search tools.
const (
	ToolGetCalendarEvents = "get_calendar_events"
	ToolGetEmails         = "get_emails"
	ToolGetNotes          = "get_notes"
	ToolGetDocuments      = "get_documents"
	ToolSearchAllData     = "search_all_data"
)

// OfficeClient is the surface of the office data service the retrieval
// tools need.
type OfficeClient interface {
	GetCalendarEvents(ctx context.Context, userID string, f office.Filters) (*office.ItemsResult, error)
	GetEmails(ctx context.Context, userID string, f office.Filters) (*office.ItemsResult, error)
	GetNotes(ctx context.Context, userID string, f office.Filters) (*office.ItemsResult, error)
	GetDocuments(ctx context.Context, userID string, f office.Filters) (*office.ItemsResult, error)
	SearchAllData(ctx context.Context, userID, query string, maxResults int) (*office.SearchResult, error)
}

func dateRangeParams() map[string]model.ParamSchema {
	return map[string]model.ParamSchema{
		"start_date":  {Type: "string", Description: "Inclusive range start, ISO 8601"},
		"end_date":    {Type: "string", Description: "Inclusive range end, ISO 8601"},
		"query":       {Type: "string", Description: "Free-text filter"},
		"max_results": {Type: "integer", Description: "Maximum number of items to return"},
	}
}

func (inv *Invocation) filters() office.Filters {
	return office.Filters{
		StartDate:  inv.StringArg("start_date"),
		EndDate:    inv.StringArg("end_date"),
		Query:      inv.StringArg("query"),
		Type:       inv.StringArg("type"),
		MaxResults: inv.IntArg("max_results", 0),
	}
}

// upstreamResult converts an office call outcome into a structured tool
// result. Cancellation propagates; everything else becomes an error
// result so the model can explain it.
func upstreamResult(ctx context.Context, items *office.ItemsResult, err error) *Result {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return Errorf(KindUpstream, "request cancelled")
			}
			return Errorf(KindUpstream, "the data service timed out")
		}
		return Errorf(KindUpstream, "%v", err)
	}
	return Success(map[string]any{
		"items": items.Items,
		"count": len(items.Items),
	})
}

// RegisterRetrievalTools registers the read-only data tools.
func RegisterRetrievalTools(r *Registry, client OfficeClient) error {
	retrieval := []struct {
		id, desc string
		params   map[string]model.ParamSchema
		call     func(ctx context.Context, inv *Invocation) (*office.ItemsResult, error)
	}{
		{
			id:     ToolGetCalendarEvents,
			desc:   "Retrieve the user's calendar events, optionally filtered by date range or text.",
			params: dateRangeParams(),
			call: func(ctx context.Context, inv *Invocation) (*office.ItemsResult, error) {
				return client.GetCalendarEvents(ctx, inv.UserID, inv.filters())
			},
		},
		{
			id:     ToolGetEmails,
			desc:   "Retrieve the user's emails, optionally filtered by date range or text.",
			params: dateRangeParams(),
			call: func(ctx context.Context, inv *Invocation) (*office.ItemsResult, error) {
				return client.GetEmails(ctx, inv.UserID, inv.filters())
			},
		},
		{
			id:     ToolGetNotes,
			desc:   "Retrieve the user's notes, optionally filtered by text.",
			params: dateRangeParams(),
			call: func(ctx context.Context, inv *Invocation) (*office.ItemsResult, error) {
				return client.GetNotes(ctx, inv.UserID, inv.filters())
			},
		},
		{
			id:   ToolGetDocuments,
			desc: "Retrieve the user's documents, optionally filtered by type or text.",
			params: map[string]model.ParamSchema{
				"query":       {Type: "string", Description: "Free-text filter"},
				"type":        {Type: "string", Description: "Document type filter"},
				"max_results": {Type: "integer", Description: "Maximum number of items to return"},
			},
			call: func(ctx context.Context, inv *Invocation) (*office.ItemsResult, error) {
				return client.GetDocuments(ctx, inv.UserID, inv.filters())
			},
		},
	}

	for _, spec := range retrieval {
		spec := spec
		err := r.Register(&Tool{
			Meta: model.ToolMetadata{
				ToolID:       spec.id,
				Description:  spec.desc,
				Category:     model.CategoryDataRetrieval,
				Parameters:   spec.params,
				RequiresAuth: true,
				Service:      "office",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				items, err := spec.call(ctx, inv)
				return upstreamResult(ctx, items, err)
			},
		})
		if err != nil {
			return err
		}
	}

	return r.Register(&Tool{
		Meta: model.ToolMetadata{
			ToolID:      ToolSearchAllData,
			Description: "Search across the user's emails, calendar, contacts, and files at once.",
			Category:    model.CategorySearch,
			Parameters: map[string]model.ParamSchema{
				"query":       {Required: true, Type: "string", Description: "Search query"},
				"max_results": {Type: "integer", Description: "Maximum number of results"},
			},
			RequiresAuth: true,
			Service:      "office",
		},
		Exec: func(ctx context.Context, inv *Invocation) *Result {
			res, err := client.SearchAllData(ctx, inv.UserID, inv.StringArg("query"), inv.IntArg("max_results", 0))
			if err != nil {
				return upstreamResult(ctx, nil, err)
			}
			return Success(map[string]any{
				"grouped_results": res.GroupedResults,
				"summary":         res.Summary,
			})
		},
	})
}
