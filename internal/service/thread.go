// Package service provides business logic for the assistant backend.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/model"
	natsclient "github.com/yeagerd/adminee-sub001/internal/nats"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

// ErrThreadNotFound is returned for unknown, foreign, or deleted threads.
var ErrThreadNotFound = errors.New("thread not found")

// ThreadService handles thread lifecycle. The message log itself lives in
// JetStream; thread headers are held in memory here (a database would
// replace this map in production).
type ThreadService struct {
	streamManager *natsclient.StreamManager
	logger        *logger.Logger

	threads map[string]*model.Thread
	mu      sync.RWMutex
}

// NewThreadService creates a new thread service.
func NewThreadService(streamManager *natsclient.StreamManager, log *logger.Logger) *ThreadService {
	return &ThreadService{
		streamManager: streamManager,
		logger:        log,
		threads:       make(map[string]*model.Thread),
	}
}

// Create creates a new thread.
func (s *ThreadService) Create(ctx context.Context, userID string, req *model.CreateThreadRequest) (*model.Thread, error) {
	now := time.Now()

	thread := &model.Thread{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  req.Metadata,
	}

	s.mu.Lock()
	s.threads[thread.ID] = thread
	s.mu.Unlock()

	metrics.ThreadsTotal.Inc()
	s.logger.Info("thread created",
		zap.String("thread_id", thread.ID),
		zap.String("user_id", userID),
	)

	return thread, nil
}

// Get retrieves a thread by ID.
func (s *ThreadService) Get(ctx context.Context, userID, threadID string) (*model.Thread, error) {
	s.mu.RLock()
	thread, exists := s.threads[threadID]
	s.mu.RUnlock()

	if !exists || thread.UserID != userID || thread.Deleted {
		return nil, ErrThreadNotFound
	}

	return thread, nil
}

// List retrieves threads for a user.
func (s *ThreadService) List(ctx context.Context, userID string, limit, offset int) (*model.ListThreadsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var threads []model.Thread
	for _, thread := range s.threads {
		if thread.UserID == userID && !thread.Deleted {
			threads = append(threads, *thread)
		}
	}

	// Simple pagination
	total := len(threads)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListThreadsResponse{
		Threads: threads[start:end],
		Total:   total,
		HasMore: end < total,
	}, nil
}

// Delete soft deletes a thread.
func (s *ThreadService) Delete(ctx context.Context, userID, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, exists := s.threads[threadID]
	if !exists || thread.UserID != userID {
		return ErrThreadNotFound
	}

	thread.Deleted = true
	thread.UpdatedAt = time.Now()

	return nil
}

// UpdateLastMessage updates the last message for a thread.
func (s *ThreadService) UpdateLastMessage(ctx context.Context, userID, threadID string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, exists := s.threads[threadID]
	if !exists || thread.UserID != userID {
		return ErrThreadNotFound
	}

	thread.LastMessage = msg
	thread.MessageCount++
	thread.UpdatedAt = time.Now()

	return nil
}

// History retrieves the ordered message log for a thread.
func (s *ThreadService) History(ctx context.Context, userID, threadID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	messages, lastSeq, hasMore, err := s.streamManager.GetMessages(ctx, userID, threadID, afterSequence, limit)
	if err != nil {
		return nil, err
	}

	return &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}
