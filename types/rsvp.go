package types

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a row of the events table. Events are owned by the Events Read
// Store and never modified by the RSVP request path.
type Event struct {
	EventID     string          `json:"event_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	StartAt     time.Time       `json:"start_at"`
	EndAt       *time.Time      `json:"end_at,omitempty"`
	Attrs       json.RawMessage `json:"attrs,omitempty"`
}

// RSVP is a single respondent answer for an event. Email and Response are
// expected to be normalized before the RSVP reaches a store.
type RSVP struct {
	EventID   string    `json:"event_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Attendee is a respondent record as returned by attendee listings.
// Timestamp is the record creation time in Unix milliseconds.
type Attendee struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
}

// AttendanceStore records respondents and maintains per-response counters
// for each event.
type AttendanceStore interface {
	// SubmitRSVP inserts the respondent record and increments the counter for
	// its response in one atomic operation. It returns an error wrapping
	// [ErrDuplicateRSVP] if the respondent already exists, in which case
	// nothing is written.
	SubmitRSVP(ctx context.Context, rsvp *RSVP) error

	// GetCounts returns the counter value for each of the given responses.
	// Responses without a counter record are reported as zero.
	GetCounts(ctx context.Context, eventID string, responses []string) (map[string]int64, error)

	// ListAttendees returns the respondent records of an event. A non-empty
	// response narrows the result to respondents with that response.
	ListAttendees(ctx context.Context, eventID, response string) ([]*Attendee, error)
}

// EventStore is the read API of the Events Read Store.
type EventStore interface {
	// GetEvent returns the event with the given ID, or (nil, nil) if there is
	// no such event.
	GetEvent(ctx context.Context, eventID string) (*Event, error)

	// ListEvents returns all events ordered by start time, earliest first.
	ListEvents(ctx context.Context) ([]*Event, error)
}

// Notifier publishes a notification for every recorded RSVP.
type Notifier interface {
	PublishRSVP(ctx context.Context, rsvp *RSVP) error
}
