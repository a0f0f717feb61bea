package agent

import (
	"strings"

	"github.com/yeagerd/adminee-sub001/internal/model"
)

// RouteKind discriminates routing decisions.
type RouteKind string

const (
	// RouteHandlers dispatches to one or more handlers in order.
	RouteHandlers RouteKind = "handlers"
	// RouteClarify ends the turn asking the user for clarification.
	RouteClarify RouteKind = "clarify"
	// RouteModel defers the decision to the classification model.
	RouteModel RouteKind = "model"
)

// Route is a routing decision.
type Route struct {
	Kind     RouteKind
	Handlers []string
	// Reason is a human-readable restatement of why the route was chosen,
	// recorded in the turn's request analysis.
	Reason string
}

// Word lists for the deterministic rule table. Matching is on exact
// lowercased tokens, so "reschedule" never triggers the "schedule" rule.
var (
	draftVerbs = wordSet(
		"create", "creates", "creating", "created",
		"draft", "drafting", "drafted",
		"make", "makes", "making",
		"compose", "composes", "composing",
		"write", "writes", "writing",
		"schedule", "schedules", "scheduling",
	)
	readVerbs = wordSet(
		"read", "search", "find", "view", "check", "show", "list",
		"look", "lookup", "get", "what", "whats", "when", "who", "any",
	)
	editVerbs = wordSet(
		"edit", "edits", "editing",
		"change", "changes", "changing",
		"update", "updates", "updating",
		"modify", "modifying",
		"move", "moving",
		"reschedule", "rescheduling",
		"rename", "renaming",
		"postpone", "postponing",
		"cancel", "cancelling", "canceling",
	)
	calendarWords = wordSet(
		"calendar", "event", "events", "meeting", "meetings",
		"appointment", "appointments", "agenda", "availability",
	)
	emailWords = wordSet(
		"email", "emails", "mail", "inbox", "message", "messages",
	)
	documentWords = wordSet(
		"document", "documents", "doc", "docs",
		"note", "notes", "notebook", "file", "files",
	)
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func hasAny(toks []string, set map[string]struct{}) bool {
	for _, t := range toks {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// RouteIntent applies the precedence-ordered rule table to the message.
// The table decides the unambiguous cases deterministically; genuinely
// ambiguous phrasing falls through to the classification model.
//
// Create/draft/compose/schedule intent wins over domain read keywords:
// "schedule a meeting" is drafting work even though it names the calendar.
func RouteIntent(text string, active []model.DraftVariant) Route {
	toks := tokenize(text)

	if hasAny(toks, draftVerbs) {
		return Route{
			Kind:     RouteHandlers,
			Handlers: []string{HandlerDraft},
			Reason:   "the user wants to compose or create something",
		}
	}

	if hasAny(toks, readVerbs) {
		switch {
		case hasAny(toks, calendarWords):
			return Route{
				Kind:     RouteHandlers,
				Handlers: []string{HandlerCalendar},
				Reason:   "the user is asking about their calendar",
			}
		case hasAny(toks, emailWords):
			return Route{
				Kind:     RouteHandlers,
				Handlers: []string{HandlerEmail},
				Reason:   "the user is asking about their email",
			}
		case hasAny(toks, documentWords):
			return Route{
				Kind:     RouteHandlers,
				Handlers: []string{HandlerDocument},
				Reason:   "the user is asking about their documents or notes",
			}
		}
	}

	if hasAny(toks, editVerbs) {
		switch {
		case hasAny(toks, calendarWords):
			// An edit to a named existing event: the calendar handler
			// resolves its identifier first, then the draft handler
			// composes the change.
			return Route{
				Kind:     RouteHandlers,
				Handlers: []string{HandlerCalendar, HandlerDraft},
				Reason:   "the user wants to change an existing calendar event",
			}
		case len(active) > 0:
			// Ambiguous edit with a draft in progress: assume the edit
			// targets the draft.
			return Route{
				Kind:     RouteHandlers,
				Handlers: []string{HandlerDraft},
				Reason:   "the user wants to revise the draft in progress",
			}
		default:
			return Route{
				Kind:   RouteClarify,
				Reason: "the user wants to edit something, but there is nothing identifiable to edit",
			}
		}
	}

	return Route{Kind: RouteModel}
}
