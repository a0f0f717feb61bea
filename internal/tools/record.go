package tools

import (
	"context"
	"fmt"

	"github.com/yeagerd/adminee-sub001/internal/model"
)

// Tool ids for the record-info handoff tools. Invoking one writes a
// titled finding into the turn state and unconditionally returns control
// to the coordinator.
const (
	ToolRecordCalendarInfo = "record_calendar_info"
	ToolRecordEmailInfo    = "record_email_info"
	ToolRecordDocumentInfo = "record_document_info"
	ToolRecordDraftInfo    = "record_draft_info"
)

// RegisterRecordTools registers one record-info tool per handler domain.
func RegisterRecordTools(r *Registry) error {
	domains := []struct {
		id, domain string
	}{
		{ToolRecordCalendarInfo, "calendar"},
		{ToolRecordEmailInfo, "email"},
		{ToolRecordDocumentInfo, "document"},
		{ToolRecordDraftInfo, "draft"},
	}

	for _, d := range domains {
		d := d
		err := r.Register(&Tool{
			Meta: model.ToolMetadata{
				ToolID:      d.id,
				Description: fmt.Sprintf("Record what you found about the user's %s request and return control to the coordinator. Call this once, when your work is done.", d.domain),
				Category:    model.CategoryUtility,
				Parameters: map[string]model.ParamSchema{
					"title":   {Required: true, Type: "string", Description: "Short label for the finding"},
					"content": {Required: true, Type: "string", Description: "The finding itself, ready to show the user"},
				},
				Service: "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				if inv.State == nil {
					return Errorf(KindInternal, "no turn state to record into")
				}
				inv.State.Record(d.domain, inv.StringArg("title"), inv.StringArg("content"))
				return Success(map[string]any{"recorded": true})
			},
			Handoff: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
