package drafts

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/pkg/metrics"
)

const lockStripes = 64

// Manager owns draft state per thread. All operations for one thread are
// serialized through a striped mutex while unrelated threads proceed in
// parallel. Every mutation is computed fully before the single backend
// write, so a cancelled context never leaves a partial merge behind.
type Manager struct {
	backend Backend
	locks   [lockStripes]sync.Mutex
}

// NewManager creates a draft manager on top of a backend.
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

func (m *Manager) lock(threadID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(threadID))
	return &m.locks[h.Sum32()%lockStripes]
}

// checkExclusive rejects the upsert if a draft of any other variant is
// live on the thread. All three variants share one exclusivity set.
func (m *Manager) checkExclusive(ctx context.Context, threadID string, requested model.DraftVariant) error {
	existing, err := m.backend.List(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	for _, d := range existing {
		if d.Variant() != requested {
			return &ConflictError{
				Requested: requested,
				Existing:  d.Variant(),
				Summary:   d.Summary(),
			}
		}
	}
	return nil
}

// UpsertEmail creates or partially merges the thread's email draft.
// Only non-nil input fields overwrite stored values.
func (m *Manager) UpsertEmail(ctx context.Context, threadID string, in model.EmailDraftInput) (*model.EmailDraft, error) {
	mu := m.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.checkExclusive(ctx, threadID, model.DraftEmail); err != nil {
		return nil, err
	}

	now := time.Now()
	draft := &model.EmailDraft{}
	prev, err := m.backend.Get(ctx, threadID, model.DraftEmail)
	switch {
	case err == nil:
		*draft = *prev.(*model.EmailDraft)
	case errors.Is(err, ErrNotFound):
		draft.DraftMeta = model.DraftMeta{
			Type:      model.DraftEmail,
			ThreadID:  threadID,
			CreatedAt: now,
		}
		metrics.DraftOpsTotal.WithLabelValues(string(model.DraftEmail), "create").Inc()
	default:
		return nil, err
	}

	setString(&draft.To, in.To)
	setString(&draft.Cc, in.Cc)
	setString(&draft.Bcc, in.Bcc)
	setString(&draft.Subject, in.Subject)
	setString(&draft.Body, in.Body)
	draft.UpdatedAt = now

	if err := m.backend.Put(ctx, threadID, draft); err != nil {
		return nil, fmt.Errorf("failed to store email draft: %w", err)
	}
	metrics.DraftOpsTotal.WithLabelValues(string(model.DraftEmail), "merge").Inc()
	return draft, nil
}

// UpsertCalendarEvent creates or partially merges the thread's calendar
// event draft.
func (m *Manager) UpsertCalendarEvent(ctx context.Context, threadID string, in model.CalendarEventDraftInput) (*model.CalendarEventDraft, error) {
	mu := m.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.checkExclusive(ctx, threadID, model.DraftCalendarEvent); err != nil {
		return nil, err
	}

	now := time.Now()
	draft := &model.CalendarEventDraft{}
	prev, err := m.backend.Get(ctx, threadID, model.DraftCalendarEvent)
	switch {
	case err == nil:
		*draft = *prev.(*model.CalendarEventDraft)
	case errors.Is(err, ErrNotFound):
		draft.DraftMeta = model.DraftMeta{
			Type:      model.DraftCalendarEvent,
			ThreadID:  threadID,
			CreatedAt: now,
		}
		metrics.DraftOpsTotal.WithLabelValues(string(model.DraftCalendarEvent), "create").Inc()
	default:
		return nil, err
	}

	setString(&draft.Title, in.Title)
	setString(&draft.StartTime, in.StartTime)
	setString(&draft.EndTime, in.EndTime)
	setString(&draft.Location, in.Location)
	setString(&draft.Description, in.Description)
	if in.Attendees != nil {
		draft.Attendees = model.ParseAttendees(*in.Attendees)
	}
	draft.UpdatedAt = now

	if err := m.backend.Put(ctx, threadID, draft); err != nil {
		return nil, fmt.Errorf("failed to store calendar event draft: %w", err)
	}
	metrics.DraftOpsTotal.WithLabelValues(string(model.DraftCalendarEvent), "merge").Inc()
	return draft, nil
}

// UpsertCalendarChange creates or partially merges the thread's calendar
// change draft. A new change draft requires an event id.
func (m *Manager) UpsertCalendarChange(ctx context.Context, threadID string, in model.CalendarChangeDraftInput) (*model.CalendarChangeDraft, error) {
	mu := m.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.checkExclusive(ctx, threadID, model.DraftCalendarChange); err != nil {
		return nil, err
	}

	now := time.Now()
	draft := &model.CalendarChangeDraft{}
	prev, err := m.backend.Get(ctx, threadID, model.DraftCalendarChange)
	switch {
	case err == nil:
		*draft = *prev.(*model.CalendarChangeDraft)
		if draft.ChangedFields != nil {
			fields := make(map[string]any, len(draft.ChangedFields))
			for k, v := range draft.ChangedFields {
				fields[k] = v
			}
			draft.ChangedFields = fields
		}
	case errors.Is(err, ErrNotFound):
		if in.EventID == nil || *in.EventID == "" {
			return nil, &ValidationError{Field: "event_id", Reason: "is required for a calendar change draft"}
		}
		draft.DraftMeta = model.DraftMeta{
			Type:      model.DraftCalendarChange,
			ThreadID:  threadID,
			CreatedAt: now,
		}
		metrics.DraftOpsTotal.WithLabelValues(string(model.DraftCalendarChange), "create").Inc()
	default:
		return nil, err
	}

	setString(&draft.EventID, in.EventID)
	setString(&draft.ChangeType, in.ChangeType)
	if in.ChangedFields != nil {
		if draft.ChangedFields == nil {
			draft.ChangedFields = make(map[string]any, len(in.ChangedFields))
		}
		for k, v := range in.ChangedFields {
			// Attendee changes arrive as a comma-separated string and are
			// normalized into {email, name} pairs.
			if k == "attendees" {
				if s, ok := v.(string); ok {
					draft.ChangedFields[k] = model.ParseAttendees(s)
					continue
				}
			}
			draft.ChangedFields[k] = v
		}
	}
	draft.UpdatedAt = now

	if err := m.backend.Put(ctx, threadID, draft); err != nil {
		return nil, fmt.Errorf("failed to store calendar change draft: %w", err)
	}
	metrics.DraftOpsTotal.WithLabelValues(string(model.DraftCalendarChange), "merge").Inc()
	return draft, nil
}

// Get retrieves the thread's draft of the given variant.
func (m *Manager) Get(ctx context.Context, threadID string, v model.DraftVariant) (model.Draft, error) {
	return m.backend.Get(ctx, threadID, v)
}

// List returns every live draft on the thread.
func (m *Manager) List(ctx context.Context, threadID string) ([]model.Draft, error) {
	return m.backend.List(ctx, threadID)
}

// Delete removes the thread's draft of the given variant. It reports
// whether anything was deleted; deleting an absent draft is a no-op.
func (m *Manager) Delete(ctx context.Context, threadID string, v model.DraftVariant) (bool, error) {
	mu := m.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := m.backend.Get(ctx, threadID, v)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := m.backend.Delete(ctx, threadID, v); err != nil {
		return false, fmt.Errorf("failed to delete %s draft: %w", v, err)
	}
	metrics.DraftOpsTotal.WithLabelValues(string(v), "delete").Inc()
	return true, nil
}

// ClearAll removes every draft on the thread and returns the variant tags
// that were cleared.
func (m *Manager) ClearAll(ctx context.Context, threadID string) ([]model.DraftVariant, error) {
	mu := m.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := m.backend.List(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	var cleared []model.DraftVariant
	for _, d := range existing {
		if err := m.backend.Delete(ctx, threadID, d.Variant()); err != nil {
			return cleared, fmt.Errorf("failed to clear %s draft: %w", d.Variant(), err)
		}
		metrics.DraftOpsTotal.WithLabelValues(string(d.Variant()), "clear").Inc()
		cleared = append(cleared, d.Variant())
	}
	return cleared, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
