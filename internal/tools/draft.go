package tools

import (
	"context"
	"fmt"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

// Tool ids for the draft-management tools. Only the Draft handler carries
// these; every other handler is read-only with respect to drafts.
const (
	ToolCreateDraftEmail          = "create_draft_email"
	ToolCreateDraftCalendarEvent  = "create_draft_calendar_event"
	ToolCreateDraftCalendarChange = "create_draft_calendar_change"
	ToolDeleteDraft               = "delete_draft"
	ToolClearDrafts               = "clear_drafts"
)

func draftResult(d model.Draft, err error) *Result {
	if err != nil {
		switch {
		case drafts.IsConflict(err):
			metrics.DraftConflictsTotal.Inc()
			return Errorf(KindConflict, "%v", err)
		case drafts.IsValidation(err):
			return Errorf(KindValidation, "%v", err)
		default:
			return Errorf(KindInternal, "%v", err)
		}
	}
	return Success(map[string]any{"draft": d})
}

// RegisterDraftTools registers the draft-management tools on top of the
// draft manager.
func RegisterDraftTools(r *Registry, mgr *drafts.Manager) error {
	specs := []*Tool{
		{
			Meta: model.ToolMetadata{
				ToolID:      ToolCreateDraftEmail,
				Description: "Create the thread's email draft, or merge new fields into it. Only supplied fields change.",
				Category:    model.CategoryDraftManagement,
				Parameters: map[string]model.ParamSchema{
					"to":      {Type: "string", Description: "Comma-separated recipient addresses"},
					"cc":      {Type: "string", Description: "Comma-separated cc addresses"},
					"bcc":     {Type: "string", Description: "Comma-separated bcc addresses"},
					"subject": {Type: "string", Description: "Email subject"},
					"body":    {Type: "string", Description: "Email body"},
				},
				Examples:     []string{`{"to":"ann@example.com","subject":"Quarterly review"}`},
				RequiresAuth: true,
				Service:      "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				d, err := mgr.UpsertEmail(ctx, inv.ThreadID, model.EmailDraftInput{
					To:      inv.OptStringArg("to"),
					Cc:      inv.OptStringArg("cc"),
					Bcc:     inv.OptStringArg("bcc"),
					Subject: inv.OptStringArg("subject"),
					Body:    inv.OptStringArg("body"),
				})
				if err != nil {
					return draftResult(nil, err)
				}
				return draftResult(d, nil)
			},
		},
		{
			Meta: model.ToolMetadata{
				ToolID:      ToolCreateDraftCalendarEvent,
				Description: "Create the thread's calendar event draft, or merge new fields into it. Only supplied fields change.",
				Category:    model.CategoryDraftManagement,
				Parameters: map[string]model.ParamSchema{
					"title":       {Type: "string", Description: "Event title"},
					"start_time":  {Type: "string", Description: "Start time, ISO 8601"},
					"end_time":    {Type: "string", Description: "End time, ISO 8601"},
					"attendees":   {Type: "string", Description: "Comma-separated attendee addresses"},
					"location":    {Type: "string", Description: "Event location"},
					"description": {Type: "string", Description: "Event description"},
				},
				Examples:     []string{`{"title":"Sync","start_time":"2025-06-18T10:00:00Z"}`},
				RequiresAuth: true,
				Service:      "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				d, err := mgr.UpsertCalendarEvent(ctx, inv.ThreadID, model.CalendarEventDraftInput{
					Title:       inv.OptStringArg("title"),
					StartTime:   inv.OptStringArg("start_time"),
					EndTime:     inv.OptStringArg("end_time"),
					Attendees:   inv.OptStringArg("attendees"),
					Location:    inv.OptStringArg("location"),
					Description: inv.OptStringArg("description"),
				})
				if err != nil {
					return draftResult(nil, err)
				}
				return draftResult(d, nil)
			},
		},
		{
			Meta: model.ToolMetadata{
				ToolID:      ToolCreateDraftCalendarChange,
				Description: "Create the thread's draft edit to an existing calendar event, or merge new changes into it.",
				Category:    model.CategoryDraftManagement,
				Parameters: map[string]model.ParamSchema{
					"event_id":       {Required: true, Type: "string", Description: "Identifier of the event being changed"},
					"change_type":    {Type: "string", Description: "Kind of change, e.g. reschedule or cancel"},
					"changed_fields": {Type: "object", Description: "Only the event properties being modified"},
				},
				RequiresAuth: true,
				Service:      "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				d, err := mgr.UpsertCalendarChange(ctx, inv.ThreadID, model.CalendarChangeDraftInput{
					EventID:       inv.OptStringArg("event_id"),
					ChangeType:    inv.OptStringArg("change_type"),
					ChangedFields: inv.MapArg("changed_fields"),
				})
				if err != nil {
					return draftResult(nil, err)
				}
				return draftResult(d, nil)
			},
		},
		{
			Meta: model.ToolMetadata{
				ToolID:      ToolDeleteDraft,
				Description: "Discard the thread's draft of the given type. Deleting an absent draft is not an error.",
				Category:    model.CategoryDraftManagement,
				Parameters: map[string]model.ParamSchema{
					"draft_type": {Required: true, Type: "string", Description: "One of: email, calendar_event, calendar_change"},
				},
				RequiresAuth: true,
				Service:      "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				variant := model.DraftVariant(inv.StringArg("draft_type"))
				if !validVariant(variant) {
					return Errorf(KindValidation, "unknown draft type %q", variant)
				}
				deleted, err := mgr.Delete(ctx, inv.ThreadID, variant)
				if err != nil {
					return Errorf(KindInternal, "%v", err)
				}
				if !deleted {
					return Success(map[string]any{"deleted": false, "message": "nothing to delete"})
				}
				return Success(map[string]any{"deleted": true, "draft_type": variant})
			},
		},
		{
			Meta: model.ToolMetadata{
				ToolID:      ToolClearDrafts,
				Description: "Discard every draft on the thread.",
				Category:    model.CategoryUtility,
				Parameters:  map[string]model.ParamSchema{},
				RequiresAuth: true,
				Service:      "none",
			},
			Exec: func(ctx context.Context, inv *Invocation) *Result {
				cleared, err := mgr.ClearAll(ctx, inv.ThreadID)
				if err != nil {
					return Errorf(KindInternal, "%v", err)
				}
				tags := make([]string, len(cleared))
				for i, v := range cleared {
					tags[i] = string(v)
				}
				return Success(map[string]any{"cleared": tags})
			},
		},
	}

	for _, t := range specs {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("failed to register %s: %w", t.Meta.ToolID, err)
		}
	}
	return nil
}

func validVariant(v model.DraftVariant) bool {
	for _, known := range model.Variants() {
		if v == known {
			return true
		}
	}
	return false
}
