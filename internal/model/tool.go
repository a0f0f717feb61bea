package model

// ToolCategory groups tools by the kind of work they do.
type ToolCategory string

const (
	CategoryDataRetrieval   ToolCategory = "data_retrieval"
	CategoryDraftManagement ToolCategory = "draft_management"
	CategorySearch          ToolCategory = "search"
	CategoryWebSearch       ToolCategory = "web_search"
	CategoryUtility         ToolCategory = "utility"
)

// ParamSchema describes one declared tool parameter.
type ParamSchema struct {
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolMetadata describes a callable tool, both for dispatch and for
// self-description to the model.
type ToolMetadata struct {
	ToolID       string                 `json:"tool_id"`
	Description  string                 `json:"description"`
	Category     ToolCategory           `json:"category"`
	Parameters   map[string]ParamSchema `json:"parameters"`
	Examples     []string               `json:"examples,omitempty"`
	RequiresAuth bool                   `json:"requires_auth"`
	// Service names the external dependency this tool calls, or "none".
	Service string `json:"service"`
}

// ToolSummary is the short self-description shape for tool listings.
type ToolSummary struct {
	ToolID      string `json:"tool_id"`
	Description string `json:"description"`
}
