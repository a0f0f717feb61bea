package drafts

import (
	"context"
	"sort"
	"sync"

	"github.com/yeagerd/adminee-sub001/internal/model"
)

// Backend is the keyed storage a Manager sits on. Implementations must
// return ErrNotFound for absent keys. Consistency across threads is the
// backend's concern; per-thread serialization is the Manager's.
type Backend interface {
	Get(ctx context.Context, threadID string, v model.DraftVariant) (model.Draft, error)
	Put(ctx context.Context, threadID string, d model.Draft) error
	Delete(ctx context.Context, threadID string, v model.DraftVariant) error
	List(ctx context.Context, threadID string) ([]model.Draft, error)
}

// MemoryBackend is an in-memory Backend for tests and single-node runs.
type MemoryBackend struct {
	mu      sync.RWMutex
	threads map[string]map[model.DraftVariant]model.Draft
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		threads: make(map[string]map[model.DraftVariant]model.Draft),
	}
}

// Get retrieves a draft by key.
func (b *MemoryBackend) Get(ctx context.Context, threadID string, v model.DraftVariant) (model.Draft, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	d, ok := b.threads[threadID][v]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// Put stores a draft under its (thread, variant) key.
func (b *MemoryBackend) Put(ctx context.Context, threadID string, d model.Draft) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	byVariant, ok := b.threads[threadID]
	if !ok {
		byVariant = make(map[model.DraftVariant]model.Draft)
		b.threads[threadID] = byVariant
	}
	byVariant[d.Variant()] = d
	return nil
}

// Delete removes a keyed entry. Deleting an absent key is not an error.
func (b *MemoryBackend) Delete(ctx context.Context, threadID string, v model.DraftVariant) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.threads[threadID], v)
	return nil
}

// List returns every live draft for a thread, in variant order.
func (b *MemoryBackend) List(ctx context.Context, threadID string) ([]model.Draft, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	byVariant := b.threads[threadID]
	out := make([]model.Draft, 0, len(byVariant))
	for _, d := range byVariant {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Variant() < out[j].Variant()
	})
	return out, nil
}
