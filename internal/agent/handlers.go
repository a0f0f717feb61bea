package agent

import (
	"github.com/yeagerd/adminee-sub001/internal/tools"
)

// Handler names. Handlers never call each other; control always returns
// to the coordinator, which alone may start a different handler.
const (
	HandlerCalendar = "calendar"
	HandlerEmail    = "email"
	HandlerDocument = "document"
	HandlerDraft    = "draft"
)

// Handler configures the tool-invocation loop with a domain system prompt
// and a fixed tool subset.
type Handler struct {
	Name         string
	SystemPrompt string
	ToolIDs      []string
}

const calendarPrompt = `You are the calendar specialist of a personal assistant.
You answer questions about the user's calendar: upcoming events, availability,
who is attending what, and when things happen. You are read-only: you never
create or modify anything.

Use get_calendar_events to look up events and search_all_data when the user's
phrasing doesn't map cleanly to a date range. When a tool returns an error
result, explain the problem to the user plainly instead of retrying forever.

When you have what you need, call record_calendar_info exactly once with a
short title and the answer, then stop.`

const emailPrompt = `You are the email specialist of a personal assistant.
You answer questions about the user's email: what arrived, from whom, and
what it says. You are read-only: you never send or modify anything.

Use get_emails to look up messages and search_all_data for broader queries.
When a tool returns an error result, explain the problem to the user plainly.

When you have what you need, call record_email_info exactly once with a short
title and the answer, then stop.`

const documentPrompt = `You are the documents specialist of a personal assistant.
You answer questions about the user's notes and documents. You are read-only.

Use get_notes and get_documents to look things up, and search_all_data for
broader queries. When a tool returns an error result, explain the problem to
the user plainly.

When you have what you need, call record_document_info exactly once with a
short title and the answer, then stop.`

const draftPrompt = `You are the drafting specialist of a personal assistant.
You compose and revise drafts: emails, new calendar events, and changes to
existing calendar events. You are the only part of the system allowed to
modify drafts.

A thread holds at most one type of draft at a time. If a create tool returns
a draft_conflict error, do not work around it: tell the user which draft
already exists, quoting its identifying fields from the error, and ask
whether to discard it first.

Updates are partial: pass only the fields the user supplied, and earlier
values are kept. For a change to an existing calendar event you need its
event id; if the coordinator's context includes one, use it.

When the draft work is done, call record_draft_info exactly once with a short
title and a description of the draft's current state, then stop.`

// CalendarHandler builds the calendar handler.
func CalendarHandler() *Handler {
	return &Handler{
		Name:         HandlerCalendar,
		SystemPrompt: calendarPrompt,
		ToolIDs: []string{
			tools.ToolGetCalendarEvents,
			tools.ToolSearchAllData,
			tools.ToolRecordCalendarInfo,
		},
	}
}

// EmailHandler builds the email handler.
func EmailHandler() *Handler {
	return &Handler{
		Name:         HandlerEmail,
		SystemPrompt: emailPrompt,
		ToolIDs: []string{
			tools.ToolGetEmails,
			tools.ToolSearchAllData,
			tools.ToolRecordEmailInfo,
		},
	}
}

// DocumentHandler builds the document handler.
func DocumentHandler() *Handler {
	return &Handler{
		Name:         HandlerDocument,
		SystemPrompt: documentPrompt,
		ToolIDs: []string{
			tools.ToolGetNotes,
			tools.ToolGetDocuments,
			tools.ToolSearchAllData,
			tools.ToolRecordDocumentInfo,
		},
	}
}

// DraftHandler builds the draft handler, the sole draft-store mutator.
func DraftHandler() *Handler {
	return &Handler{
		Name:         HandlerDraft,
		SystemPrompt: draftPrompt,
		ToolIDs: []string{
			tools.ToolCreateDraftEmail,
			tools.ToolCreateDraftCalendarEvent,
			tools.ToolCreateDraftCalendarChange,
			tools.ToolDeleteDraft,
			tools.ToolClearDrafts,
			tools.ToolRecordDraftInfo,
		},
	}
}

// DefaultHandlers returns every handler keyed by name.
func DefaultHandlers() map[string]*Handler {
	return map[string]*Handler{
		HandlerCalendar: CalendarHandler(),
		HandlerEmail:    EmailHandler(),
		HandlerDocument: DocumentHandler(),
		HandlerDraft:    DraftHandler(),
	}
}
