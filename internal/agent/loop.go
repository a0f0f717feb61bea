// Package agent implements the multi-agent orchestration core: the
// tool-invocation loop, the specialized handlers, and the coordinator
// that routes a turn between them.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/tools"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

// DefaultMaxIterations bounds the tool-invocation loop. Exceeding it is
// fatal for the turn; the loop degrades to whatever partial answer exists.
const DefaultMaxIterations = 10

// TargetCoordinator is the implicit handoff target.
const TargetCoordinator = "coordinator"

// OutcomeKind discriminates the three ways a loop run can end.
type OutcomeKind string

const (
	OutcomeFinal   OutcomeKind = "final_answer"
	OutcomeHandoff OutcomeKind = "handoff"
	OutcomeClarify OutcomeKind = "clarification_needed"
)

// Outcome is the explicit terminal signal of one loop run.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Target string
	// Truncated marks a best-effort answer produced after the iteration
	// bound was exceeded.
	Truncated bool
}

// Loop is the generic machinery that drives a handler: it repeatedly asks
// the model for the next action and executes requested tools until a
// terminal condition is reached. The loop itself is stateless and shared
// by every handler.
type Loop struct {
	model         llm.Client
	registry      *tools.Registry
	maxIterations int
	logger        *logger.Logger
}

// NewLoop creates a loop on a tool-capable model client.
func NewLoop(model llm.Client, registry *tools.Registry, maxIterations int, log *logger.Logger) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		model:         model,
		registry:      registry,
		maxIterations: maxIterations,
		logger:        log,
	}
}

// Run drives one handler to a terminal outcome. The invocation's State
// and the draft store may be mutated by tool executions; the history
// slice is never mutated. Cancellation is checked between iterations and
// between tool calls.
func (l *Loop) Run(ctx context.Context, handlerName, systemPrompt string, toolIDs []string, history []llm.ChatMessage, inv *tools.Invocation) (*Outcome, error) {
	msgs := make([]llm.ChatMessage, len(history))
	copy(msgs, history)

	defs := l.registry.Definitions(toolIDs)
	var lastText string

	for i := 0; i < l.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := l.model.Complete(ctx, &llm.CompletionRequest{
			System:   systemPrompt,
			Messages: msgs,
			Tools:    defs,
		})
		if err != nil {
			metrics.RecordModelCall(l.model.Name(), "", "error", 0, 0)
			return nil, fmt.Errorf("model call failed for %s handler: %w", handlerName, err)
		}
		metrics.RecordModelCall(l.model.Name(), resp.Model, "success", resp.TokensIn, resp.TokensOut)

		if len(resp.ToolCalls) == 0 {
			metrics.LoopIterations.WithLabelValues(handlerName).Observe(float64(i + 1))
			return &Outcome{Kind: OutcomeFinal, Text: resp.Content}, nil
		}

		if resp.Content != "" {
			lastText = resp.Content
		}
		msgs = append(msgs, llm.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			tool, res := l.registry.Execute(ctx, call, inv)
			l.logger.Debug("tool executed",
				zap.String("handler", handlerName),
				zap.String("tool", call.Name),
				zap.String("status", res.Status),
			)
			msgs = append(msgs, llm.ChatMessage{
				Role:       "tool",
				Content:    res.JSON(),
				ToolCallID: call.ID,
			})

			if tool != nil && tool.Handoff && !res.IsError() {
				metrics.HandoffsTotal.WithLabelValues(handlerName).Inc()
				metrics.LoopIterations.WithLabelValues(handlerName).Observe(float64(i + 1))
				return &Outcome{Kind: OutcomeHandoff, Target: TargetCoordinator}, nil
			}
		}
	}

	// Bound exceeded. Degrade to the best partial answer we have rather
	// than an opaque failure.
	l.logger.Warn("tool-invocation loop exceeded iteration bound",
		zap.String("handler", handlerName),
		zap.Int("max_iterations", l.maxIterations),
	)
	metrics.LoopIterations.WithLabelValues(handlerName).Observe(float64(l.maxIterations))

	text := lastText
	if text == "" {
		text = "I couldn't finish working on that request. Could you try rephrasing it?"
	}
	return &Outcome{Kind: OutcomeFinal, Text: text, Truncated: true}, nil
}
