// Package office is the HTTP client for the sibling data service that
// owns calendar, email, note, and document data.
package office

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout bounds every outbound call. The core makes at most one
// attempt; retry policy belongs to the caller.
const DefaultTimeout = 10 * time.Second

// UpstreamError is a typed failure from the sibling service: timeout,
// non-2xx status, or a malformed body.
type UpstreamError struct {
	Op     string
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("office %s failed: status %d: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("office %s failed: %s", e.Op, e.Reason)
}

// IsUpstream reports whether err is an upstream-service error.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// Filters is the common filter set for data-retrieval calls.
type Filters struct {
	StartDate  string
	EndDate    string
	Query      string
	Type       string
	MaxResults int
}

// ItemsResult is a successful retrieval payload.
type ItemsResult struct {
	Status string           `json:"status"`
	Items  []map[string]any `json:"items"`
	Error  string           `json:"error,omitempty"`
}

// GroupedResults buckets unified search hits by source.
type GroupedResults struct {
	Emails   []map[string]any `json:"emails"`
	Calendar []map[string]any `json:"calendar"`
	Contacts []map[string]any `json:"contacts"`
	Files    []map[string]any `json:"files"`
	Other    []map[string]any `json:"other"`
}

// SearchResult is the unified search payload.
type SearchResult struct {
	Status         string         `json:"status"`
	GroupedResults GroupedResults `json:"grouped_results"`
	Summary        string         `json:"summary"`
	Error          string         `json:"error,omitempty"`
}

// Client calls the office data service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates an office client. Timeout <= 0 uses DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.StartDate != "" {
		v.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("end_date", f.EndDate)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.MaxResults > 0 {
		v.Set("max_results", strconv.Itoa(f.MaxResults))
	}
	return v
}

func (c *Client) get(ctx context.Context, op, path, userID string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-ID", userID)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UpstreamError{Op: op, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Reason: "failed to read body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Reason: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Reason: "malformed response body"}
	}
	return nil
}

// itemsCall handles the common items-shaped endpoints. A 2xx body that is
// missing the expected fields is an upstream error, not an empty success.
func (c *Client) itemsCall(ctx context.Context, op, path, userID string, f Filters) (*ItemsResult, error) {
	var raw struct {
		Status *string          `json:"status"`
		Items  []map[string]any `json:"items"`
		Error  string           `json:"error"`
	}
	if err := c.get(ctx, op, path, userID, f.values(), &raw); err != nil {
		return nil, err
	}

	if raw.Status == nil {
		return nil, &UpstreamError{Op: op, Reason: "response missing status field"}
	}
	if *raw.Status != "success" {
		return nil, &UpstreamError{Op: op, Reason: raw.Error}
	}
	if raw.Items == nil {
		return nil, &UpstreamError{Op: op, Reason: "response missing items field"}
	}

	return &ItemsResult{Status: *raw.Status, Items: raw.Items}, nil
}

// GetCalendarEvents retrieves calendar events for a user.
func (c *Client) GetCalendarEvents(ctx context.Context, userID string, f Filters) (*ItemsResult, error) {
	return c.itemsCall(ctx, "get_calendar_events", "/v1/calendar/events", userID, f)
}

// GetEmails retrieves emails for a user.
func (c *Client) GetEmails(ctx context.Context, userID string, f Filters) (*ItemsResult, error) {
	return c.itemsCall(ctx, "get_emails", "/v1/emails", userID, f)
}

// GetNotes retrieves notes for a user.
func (c *Client) GetNotes(ctx context.Context, userID string, f Filters) (*ItemsResult, error) {
	return c.itemsCall(ctx, "get_notes", "/v1/notes", userID, f)
}

// GetDocuments retrieves documents for a user.
func (c *Client) GetDocuments(ctx context.Context, userID string, f Filters) (*ItemsResult, error) {
	return c.itemsCall(ctx, "get_documents", "/v1/documents", userID, f)
}

// SearchAllData runs the unified keyword/vector search across the user's
// data sources.
func (c *Client) SearchAllData(ctx context.Context, userID, query string, maxResults int) (*SearchResult, error) {
	v := url.Values{}
	v.Set("q", query)
	if maxResults > 0 {
		v.Set("max_results", strconv.Itoa(maxResults))
	}

	var raw struct {
		Status         *string         `json:"status"`
		GroupedResults *GroupedResults `json:"grouped_results"`
		Summary        string          `json:"summary"`
		Error          string          `json:"error"`
	}
	if err := c.get(ctx, "search_all_data", "/v1/search", userID, v, &raw); err != nil {
		return nil, err
	}

	if raw.Status == nil {
		return nil, &UpstreamError{Op: "search_all_data", Reason: "response missing status field"}
	}
	if *raw.Status != "success" {
		return nil, &UpstreamError{Op: "search_all_data", Reason: raw.Error}
	}
	if raw.GroupedResults == nil {
		return nil, &UpstreamError{Op: "search_all_data", Reason: "response missing grouped_results field"}
	}

	return &SearchResult{
		Status:         *raw.Status,
		GroupedResults: *raw.GroupedResults,
		Summary:        raw.Summary,
	}, nil
}
