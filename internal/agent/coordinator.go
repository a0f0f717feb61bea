package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/internal/tools"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
)

// maxDispatches caps how many handlers one turn may run through.
const maxDispatches = 4

// summaryOrder fixes the order findings appear in the final summary.
var summaryOrder = []string{HandlerCalendar, HandlerEmail, HandlerDocument, HandlerDraft}

// Coordinator is the entry point for a turn. It classifies intent,
// selects handlers, relays handoffs, and assembles the final reply from
// the turn state.
type Coordinator struct {
	loop      *Loop
	textModel llm.Client
	registry  *tools.Registry
	draftMgr  *drafts.Manager
	handlers  map[string]*Handler
	logger    *logger.Logger
}

// NewCoordinator wires the orchestration core. toolModel drives the
// handler loops and must support tool calling; textModel serves plain
// classification completions and may be the same client or nil.
func NewCoordinator(toolModel, textModel llm.Client, registry *tools.Registry, draftMgr *drafts.Manager, maxIterations int, log *logger.Logger) *Coordinator {
	return &Coordinator{
		loop:      NewLoop(toolModel, registry, maxIterations, log),
		textModel: textModel,
		registry:  registry,
		draftMgr:  draftMgr,
		handlers:  DefaultHandlers(),
		logger:    log,
	}
}

// RunTurn processes one user message to its final aggregated reply.
// History excludes the current message. Writes by a handler are fully
// applied before the next handler starts; the pipeline is strictly
// sequential.
func (c *Coordinator) RunTurn(ctx context.Context, threadID, userID, text string, history []llm.ChatMessage) (string, *model.TurnState, error) {
	state := model.NewTurnState(text)

	live, err := c.draftMgr.List(ctx, threadID)
	if err != nil {
		return "", state, fmt.Errorf("failed to read draft state: %w", err)
	}
	variants := make([]model.DraftVariant, len(live))
	for i, d := range live {
		variants[i] = d.Variant()
	}

	route := RouteIntent(text, variants)
	if route.Kind == RouteModel {
		route = c.classify(ctx, text)
	}
	state.Analysis.Restated = route.Reason

	c.logger.Debug("turn routed",
		zap.String("thread_id", threadID),
		zap.String("kind", string(route.Kind)),
		zap.Strings("handlers", route.Handlers),
	)

	if route.Kind == RouteClarify {
		state.Analysis.Status = model.AnalysisCompleted
		clarify := "I want to make sure I change the right thing. Could you tell me which item you mean?"
		state.FinalSummary = clarify
		return clarify, state, nil
	}

	msgs := make([]llm.ChatMessage, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.ChatMessage{Role: "user", Content: text})

	inv := &tools.Invocation{
		ThreadID: threadID,
		UserID:   userID,
		State:    state,
	}

	var finalText string

dispatch:
	for i, name := range route.Handlers {
		if i >= maxDispatches {
			break
		}
		h, ok := c.handlers[name]
		if !ok {
			c.logger.Warn("route named unknown handler", zap.String("handler", name))
			continue
		}

		inv.Handler = h.Name
		system := h.SystemPrompt + c.draftContext(ctx, threadID) + findingsContext(state)

		outcome, err := c.loop.Run(ctx, h.Name, system, h.ToolIDs, msgs, inv)
		if err != nil {
			return "", state, err
		}

		switch outcome.Kind {
		case OutcomeFinal:
			finalText = outcome.Text
			break dispatch
		case OutcomeClarify:
			finalText = outcome.Text
			break dispatch
		case OutcomeHandoff:
			// Control returns here after every handoff; the next handler
			// in the route, if any, runs with the accumulated findings.
			continue
		}
	}

	state.Analysis.Status = model.AnalysisCompleted
	summary := assembleSummary(state, finalText)
	state.FinalSummary = summary
	return summary, state, nil
}

// classify defers a genuinely ambiguous message to the model. Without a
// text model the turn ends in clarification rather than a guess.
func (c *Coordinator) classify(ctx context.Context, text string) Route {
	if c.textModel == nil {
		return Route{Kind: RouteClarify, Reason: "the request did not match any known intent"}
	}

	prompt := `Classify the user request below for a personal assistant that has
four specialists: "calendar" (read calendar), "email" (read email),
"document" (read notes and documents), "draft" (compose or change drafts
of emails and calendar events). Reply with only a JSON object:
{"handler": "<calendar|email|document|draft|clarify>", "restated": "<one sentence restating the request>"}

Request: ` + text

	resp, err := c.textModel.Complete(ctx, &llm.CompletionRequest{
		Messages:  []llm.ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 256,
	})
	if err != nil {
		c.logger.Warn("intent classification failed", zap.Error(err))
		return Route{Kind: RouteClarify, Reason: "the request could not be classified"}
	}

	var parsed struct {
		Handler  string `json:"handler"`
		Restated string `json:"restated"`
	}
	raw := resp.Content
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Route{Kind: RouteClarify, Reason: "the request could not be classified"}
	}

	switch parsed.Handler {
	case HandlerCalendar, HandlerEmail, HandlerDocument, HandlerDraft:
		return Route{
			Kind:     RouteHandlers,
			Handlers: []string{parsed.Handler},
			Reason:   parsed.Restated,
		}
	default:
		return Route{Kind: RouteClarify, Reason: parsed.Restated}
	}
}

// draftContext describes the thread's live drafts verbatim so the model
// can explain conflicts to the user.
func (c *Coordinator) draftContext(ctx context.Context, threadID string) string {
	live, err := c.draftMgr.List(ctx, threadID)
	if err != nil || len(live) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nDrafts currently in progress on this thread:\n")
	for _, d := range live {
		fmt.Fprintf(&b, "- %s\n", d.Summary())
	}
	b.WriteString("Only one type of draft may be in progress at a time.")
	return b.String()
}

// findingsContext carries earlier handlers' findings into the next
// handler's prompt; this is how a resolved event identifier reaches the
// draft handler in the calendar-edit two-step.
func findingsContext(state *model.TurnState) string {
	if !state.HasFindings() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nContext gathered earlier this turn:\n")
	for _, name := range summaryOrder {
		for _, f := range state.Findings[name] {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", name, f.Title, f.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// assembleSummary builds the turn's reply from the accumulated findings
// and the last handler's answer text.
func assembleSummary(state *model.TurnState, finalText string) string {
	if !state.HasFindings() {
		if finalText == "" {
			return "I wasn't able to complete that request."
		}
		return finalText
	}

	var b strings.Builder
	if finalText != "" {
		b.WriteString(finalText)
		b.WriteString("\n\n")
	}
	for _, name := range summaryOrder {
		for _, f := range state.Findings[name] {
			if f.Title != "" {
				fmt.Fprintf(&b, "%s: %s\n", f.Title, f.Content)
			} else {
				fmt.Fprintf(&b, "%s\n", f.Content)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
