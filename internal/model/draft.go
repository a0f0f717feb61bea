package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DraftVariant is the discriminant of the draft union.
type DraftVariant string

const (
	DraftEmail          DraftVariant = "email"
	DraftCalendarEvent  DraftVariant = "calendar_event"
	DraftCalendarChange DraftVariant = "calendar_change"
)

// Variants lists every draft variant.
func Variants() []DraftVariant {
	return []DraftVariant{DraftEmail, DraftCalendarEvent, DraftCalendarChange}
}

// DraftMeta is the header shared by every draft variant. It is part of the
// persisted draft shape returned to callers.
type DraftMeta struct {
	Type      DraftVariant `json:"type"`
	ThreadID  string       `json:"thread_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Draft is the union over in-progress composite objects held per thread.
type Draft interface {
	Meta() *DraftMeta
	Variant() DraftVariant
	// Summary returns the identifying fields of the draft, used verbatim in
	// conflict errors and coordinator prompts.
	Summary() string
}

// Attendee is a normalized attendee reference.
type Attendee struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseAttendees normalizes a comma-separated attendee string into
// {email, name} pairs. "Ann <ann@x.com>" keeps the display name; a bare
// address keeps an empty name.
func ParseAttendees(s string) []Attendee {
	var out []Attendee
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if open := strings.Index(part, "<"); open >= 0 {
			close := strings.Index(part, ">")
			if close > open {
				out = append(out, Attendee{
					Email: strings.TrimSpace(part[open+1 : close]),
					Name:  strings.TrimSpace(part[:open]),
				})
				continue
			}
		}
		out = append(out, Attendee{Email: part})
	}
	return out
}

// EmailDraft is an in-progress email composition.
type EmailDraft struct {
	DraftMeta
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Bcc     string `json:"bcc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (d *EmailDraft) Meta() *DraftMeta      { return &d.DraftMeta }
func (d *EmailDraft) Variant() DraftVariant { return DraftEmail }

func (d *EmailDraft) Summary() string {
	if d.Subject != "" {
		return fmt.Sprintf("email draft %q", d.Subject)
	}
	return "email draft (no subject yet)"
}

// CalendarEventDraft is an in-progress new calendar event.
type CalendarEventDraft struct {
	DraftMeta
	Title       string     `json:"title"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Attendees   []Attendee `json:"attendees"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
}

func (d *CalendarEventDraft) Meta() *DraftMeta      { return &d.DraftMeta }
func (d *CalendarEventDraft) Variant() DraftVariant { return DraftCalendarEvent }

func (d *CalendarEventDraft) Summary() string {
	switch {
	case d.Title != "" && d.StartTime != "":
		return fmt.Sprintf("calendar event draft %q at %s", d.Title, d.StartTime)
	case d.Title != "":
		return fmt.Sprintf("calendar event draft %q", d.Title)
	default:
		return "calendar event draft (untitled)"
	}
}

// CalendarChangeDraft is an in-progress edit to an existing calendar event.
// ChangedFields holds only the subset of event properties being modified.
type CalendarChangeDraft struct {
	DraftMeta
	EventID       string         `json:"event_id"`
	ChangeType    string         `json:"change_type"`
	ChangedFields map[string]any `json:"changed_fields"`
}

func (d *CalendarChangeDraft) Meta() *DraftMeta      { return &d.DraftMeta }
func (d *CalendarChangeDraft) Variant() DraftVariant { return DraftCalendarChange }

func (d *CalendarChangeDraft) Summary() string {
	if d.ChangeType != "" {
		return fmt.Sprintf("calendar change draft (%s) for event %s", d.ChangeType, d.EventID)
	}
	return fmt.Sprintf("calendar change draft for event %s", d.EventID)
}

// EmailDraftInput carries a partial email update. Nil fields keep the
// stored value.
type EmailDraftInput struct {
	To      *string `json:"to,omitempty"`
	Cc      *string `json:"cc,omitempty"`
	Bcc     *string `json:"bcc,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

// CalendarEventDraftInput carries a partial calendar event update.
// Attendees is a comma-separated string, normalized on merge.
type CalendarEventDraftInput struct {
	Title       *string `json:"title,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	Attendees   *string `json:"attendees,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CalendarChangeDraftInput carries a partial calendar change update.
type CalendarChangeDraftInput struct {
	EventID       *string        `json:"event_id,omitempty"`
	ChangeType    *string        `json:"change_type,omitempty"`
	ChangedFields map[string]any `json:"changed_fields,omitempty"`
}

// UnmarshalDraft decodes a persisted draft by peeking its variant tag.
func UnmarshalDraft(data []byte) (Draft, error) {
	var peek struct {
		Type DraftVariant `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("failed to decode draft envelope: %w", err)
	}

	var d Draft
	switch peek.Type {
	case DraftEmail:
		d = &EmailDraft{}
	case DraftCalendarEvent:
		d = &CalendarEventDraft{}
	case DraftCalendarChange:
		d = &CalendarChangeDraft{}
	default:
		return nil, fmt.Errorf("unknown draft variant %q", peek.Type)
	}

	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to decode %s draft: %w", peek.Type, err)
	}
	return d, nil
}
