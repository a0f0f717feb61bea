package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttendees(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Attendee
	}{
		{
			name: "bare address",
			in:   "ann@example.com",
			want: []Attendee{{Email: "ann@example.com"}},
		},
		{
			name: "named address",
			in:   "Ann Chen <ann@example.com>",
			want: []Attendee{{Email: "ann@example.com", Name: "Ann Chen"}},
		},
		{
			name: "mixed list with spacing",
			in:   " Ann <ann@example.com> , bob@example.com,",
			want: []Attendee{
				{Email: "ann@example.com", Name: "Ann"},
				{Email: "bob@example.com"},
			},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "unclosed bracket kept verbatim",
			in:   "Ann <ann@example.com",
			want: []Attendee{{Email: "Ann <ann@example.com"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAttendees(tt.in))
		})
	}
}

func TestUnmarshalDraftByVariantTag(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	orig := &CalendarEventDraft{
		DraftMeta: DraftMeta{
			Type:      DraftCalendarEvent,
			ThreadID:  "t1",
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:     "Planning",
		Attendees: []Attendee{{Email: "ann@example.com", Name: "Ann"}},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	decoded, err := UnmarshalDraft(data)
	require.NoError(t, err)
	event, ok := decoded.(*CalendarEventDraft)
	require.True(t, ok)
	assert.Equal(t, "Planning", event.Title)
	assert.Equal(t, DraftCalendarEvent, event.Variant())
	assert.Equal(t, "t1", event.Meta().ThreadID)
}

func TestUnmarshalDraftUnknownVariant(t *testing.T) {
	_, err := UnmarshalDraft([]byte(`{"type":"grocery_list"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grocery_list")
}

func TestDraftSummaries(t *testing.T) {
	email := &EmailDraft{Subject: "Quarterly review"}
	assert.Contains(t, email.Summary(), "Quarterly review")
	assert.Contains(t, (&EmailDraft{}).Summary(), "no subject")

	event := &CalendarEventDraft{Title: "Sync", StartTime: "2026-09-01T10:00:00Z"}
	assert.Contains(t, event.Summary(), "Sync")
	assert.Contains(t, event.Summary(), "2026-09-01T10:00:00Z")

	change := &CalendarChangeDraft{EventID: "evt-9", ChangeType: "cancel"}
	assert.Contains(t, change.Summary(), "evt-9")
	assert.Contains(t, change.Summary(), "cancel")
}
