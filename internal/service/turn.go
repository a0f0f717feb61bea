package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/model"
	natsclient "github.com/yeagerd/adminee-sub001/internal/nats"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

// historyLimit bounds how much thread history seeds the model context.
const historyLimit = 50

// TurnRunner is the orchestration core as the turn pipeline sees it.
type TurnRunner interface {
	RunTurn(ctx context.Context, threadID, userID, text string, history []llm.ChatMessage) (string, *model.TurnState, error)
}

// TurnService is the single entry point for processing a user message
// into an aggregated reply.
type TurnService struct {
	streamManager *natsclient.StreamManager
	threadService *ThreadService
	coordinator   TurnRunner
	draftManager  *drafts.Manager
	logger        *logger.Logger
}

// NewTurnService creates a new turn service.
func NewTurnService(
	streamManager *natsclient.StreamManager,
	threadService *ThreadService,
	coordinator TurnRunner,
	draftManager *drafts.Manager,
	log *logger.Logger,
) *TurnService {
	return &TurnService{
		streamManager: streamManager,
		threadService: threadService,
		coordinator:   coordinator,
		draftManager:  draftManager,
		logger:        log,
	}
}

// StartTurn runs one full request/response cycle: persist the user
// message, drive the coordinator, persist the reply, and return it with
// every draft still live on the thread. Failures inside the turn come
// back as an explanatory reply, never as a raw fault; only cancellation
// propagates as an error.
func (s *TurnService) StartTurn(ctx context.Context, threadID, userID, text string) (*model.TurnResult, error) {
	start := time.Now()

	if threadID == "" {
		thread, err := s.threadService.Create(ctx, userID, &model.CreateThreadRequest{
			Title: titleFrom(text),
		})
		if err != nil {
			return nil, err
		}
		threadID = thread.ID
	} else if _, err := s.threadService.Get(ctx, userID, threadID); err != nil {
		return nil, err
	}

	// Seed model context from the log before this message is appended,
	// so history and the current message stay distinct.
	history := s.loadHistory(ctx, userID, threadID)

	userMsg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  threadID,
		UserID:    userID,
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	seq, err := s.streamManager.PublishMessage(ctx, userMsg)
	if err != nil {
		return nil, err
	}
	userMsg.Sequence = seq
	s.threadService.UpdateLastMessage(ctx, userID, threadID, userMsg)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	answer, _, err := s.coordinator.RunTurn(ctx, threadID, userID, text, history)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.publishEvent(ctx, userID, threadID, model.EventTypeCancel, err.Error())
			metrics.RecordTurn("cancelled", time.Since(start).Seconds())
			return nil, err
		}

		// The turn still completes with an explanation instead of an
		// opaque failure.
		s.logger.Error("turn failed",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		s.publishEvent(ctx, userID, threadID, model.EventTypeError, err.Error())
		metrics.RecordTurn("error", time.Since(start).Seconds())
		answer = "Sorry, something went wrong while working on that. Please try again."
	} else {
		metrics.RecordTurn("success", time.Since(start).Seconds())
	}

	assistantMsg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  threadID,
		UserID:    userID,
		Role:      model.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now(),
	}
	if seq, err := s.streamManager.PublishMessage(ctx, assistantMsg); err != nil {
		s.logger.Error("failed to publish assistant message", zap.Error(err))
	} else {
		assistantMsg.Sequence = seq
	}
	s.threadService.UpdateLastMessage(ctx, userID, threadID, assistantMsg)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	live, err := s.draftManager.List(ctx, threadID)
	if err != nil {
		s.logger.Warn("failed to list drafts for turn result", zap.Error(err))
		live = nil
	}

	return &model.TurnResult{
		ThreadID: threadID,
		Text:     answer,
		Drafts:   live,
	}, nil
}

func (s *TurnService) loadHistory(ctx context.Context, userID, threadID string) []llm.ChatMessage {
	messages, _, _, err := s.streamManager.GetMessages(ctx, userID, threadID, 0, historyLimit)
	if err != nil {
		// A turn on a fresh thread has no history; a turn on an existing
		// one degrades to no context rather than failing.
		s.logger.Warn("failed to load history",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return nil
	}

	history := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		history = append(history, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return history
}

func (s *TurnService) publishEvent(ctx context.Context, userID, threadID string, t model.EventType, reason string) {
	// Event publication is best-effort; a cancelled request context must
	// not block it.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}

	_, err := s.streamManager.PublishEvent(ctx, &model.TurnEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  threadID,
		UserID:    userID,
		Type:      t,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish turn event", zap.Error(err))
	}
}

func titleFrom(text string) string {
	const max = 80
	if len(text) <= max {
		return text
	}
	return text[:max]
}
