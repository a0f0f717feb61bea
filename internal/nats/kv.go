package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/model"
)

// DraftBucket is the JetStream KV bucket holding per-thread drafts.
const DraftBucket = "DRAFTS"

// DraftKV is a drafts.Backend on a JetStream key-value bucket, keyed
// `<thread_id>.<variant>`. Serialization per thread is the manager's job;
// this backend only stores.
type DraftKV struct {
	kv jetstream.KeyValue
}

// NewDraftKV opens (or creates) the drafts bucket.
func NewDraftKV(ctx context.Context, client *Client) (*DraftKV, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, DraftBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      DraftBucket,
			Description: "In-progress drafts keyed by thread and variant",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open drafts bucket: %w", err)
	}

	return &DraftKV{kv: kv}, nil
}

func draftKey(threadID string, v model.DraftVariant) string {
	return threadID + "." + string(v)
}

// Get retrieves a draft by key.
func (b *DraftKV) Get(ctx context.Context, threadID string, v model.DraftVariant) (model.Draft, error) {
	entry, err := b.kv.Get(ctx, draftKey(threadID, v))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, drafts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return model.UnmarshalDraft(entry.Value())
}

// Put stores a draft under its (thread, variant) key.
func (b *DraftKV) Put(ctx context.Context, threadID string, d model.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if _, err := b.kv.Put(ctx, draftKey(threadID, d.Variant()), data); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Delete removes a keyed entry. Deleting an absent key is not an error.
func (b *DraftKV) Delete(ctx context.Context, threadID string, v model.DraftVariant) error {
	err := b.kv.Delete(ctx, draftKey(threadID, v))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// List returns every live draft for a thread, in variant order.
func (b *DraftKV) List(ctx context.Context, threadID string) ([]model.Draft, error) {
	var out []model.Draft
	prefix := threadID + "."

	for _, v := range model.Variants() {
		key := prefix + string(v)
		entry, err := b.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read draft %s: %w", key, err)
		}
		d, err := model.UnmarshalDraft(entry.Value())
		if err != nil {
			// A corrupt entry should not hide the rest of the thread's
			// drafts.
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
