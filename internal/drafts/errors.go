// Package drafts provides per-thread storage of in-progress drafts and
// enforces the one-active-draft-type rule.
package drafts

import (
	"errors"
	"fmt"

	"github.com/yeagerd/adminee-sub001/internal/model"
)

// ErrNotFound is returned when no draft exists for a (thread, variant) key.
var ErrNotFound = errors.New("draft not found")

// ConflictError is the business-rule rejection for creating a draft of a
// different variant while another is live on the thread.
type ConflictError struct {
	Requested model.DraftVariant
	Existing  model.DraftVariant
	// Summary holds the identifying fields of the live draft, surfaced
	// verbatim so the user can resolve the conflict.
	Summary string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot create %s draft: thread already has a %s (%s)",
		e.Requested, e.Existing, e.Summary)
}

// IsConflict reports whether err is a draft conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ValidationError rejects a draft operation before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid draft input: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
