package httpapi_test

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jlim0255-workship/AWS-EventBookingApp/rsvp"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

// memoryStore is an in-memory AttendanceStore and EventStore.
type memoryStore struct {
	mu          sync.Mutex
	respondents map[string]map[string]*types.RSVP // event ID -> email -> RSVP
	counters    map[string]map[string]int64       // event ID -> response -> count
	events      map[string]*types.Event
}

func newMemoryStore(events ...*types.Event) *memoryStore {
	m := &memoryStore{
		respondents: map[string]map[string]*types.RSVP{},
		counters:    map[string]map[string]int64{},
		events:      map[string]*types.Event{},
	}

	for _, e := range events {
		m.events[e.EventID] = e
	}

	return m
}

func (m *memoryStore) SubmitRSVP(_ context.Context, r *types.RSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.respondents[r.EventID][r.Email]; exists {
		return fmt.Errorf("respondent %s already exists: %w", r.Email, types.ErrDuplicateRSVP)
	}

	if m.respondents[r.EventID] == nil {
		m.respondents[r.EventID] = map[string]*types.RSVP{}
		m.counters[r.EventID] = map[string]int64{}
	}

	m.respondents[r.EventID][r.Email] = r
	m.counters[r.EventID][r.Response]++

	return nil
}

func (m *memoryStore) GetCounts(_ context.Context, eventID string, responses []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int64, len(responses))
	for _, r := range responses {
		counts[r] = m.counters[eventID][r]
	}

	return counts, nil
}

func (m *memoryStore) ListAttendees(_ context.Context, eventID, response string) ([]*types.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emails := make([]string, 0, len(m.respondents[eventID]))
	for email := range m.respondents[eventID] {
		emails = append(emails, email)
	}

	sort.Strings(emails)

	attendees := make([]*types.Attendee, 0, len(emails))

	for _, email := range emails {
		r := m.respondents[eventID][email]
		if response != "" && r.Response != response {
			continue
		}

		attendees = append(attendees, &types.Attendee{
			FullName:  r.FullName,
			Email:     r.Email,
			Response:  r.Response,
			Timestamp: r.CreatedAt.UnixMilli(),
		})
	}

	return attendees, nil
}

func (m *memoryStore) GetEvent(_ context.Context, eventID string) (*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.events[eventID], nil
}

func (m *memoryStore) ListEvents(_ context.Context) ([]*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]*types.Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, e)
	}

	slices.SortFunc(events, func(a, b *types.Event) int {
		if c := a.StartAt.Compare(b.StartAt); c != 0 {
			return c
		}
		return strings.Compare(a.EventID, b.EventID)
	})

	return events, nil
}

// mockService is a func-field implementation of httpapi.Service.
type mockService struct {
	submitRSVPFunc   func(ctx context.Context, sub *rsvp.Submission) (*types.RSVP, error)
	getStatsFunc     func(ctx context.Context, eventID string) (map[string]int64, error)
	getAttendeesFunc func(ctx context.Context, eventID, response string) ([]*types.Attendee, error)
	getEventFunc     func(ctx context.Context, eventID string) (*types.Event, error)
	listEventsFunc   func(ctx context.Context) ([]*types.Event, error)
}

func (m *mockService) SubmitRSVP(ctx context.Context, sub *rsvp.Submission) (*types.RSVP, error) {
	if m.submitRSVPFunc != nil {
		return m.submitRSVPFunc(ctx, sub)
	}
	return &types.RSVP{}, nil
}

func (m *mockService) GetStats(ctx context.Context, eventID string) (map[string]int64, error) {
	if m.getStatsFunc != nil {
		return m.getStatsFunc(ctx, eventID)
	}
	return map[string]int64{}, nil
}

func (m *mockService) GetAttendees(ctx context.Context, eventID, response string) ([]*types.Attendee, error) {
	if m.getAttendeesFunc != nil {
		return m.getAttendeesFunc(ctx, eventID, response)
	}
	return nil, nil
}

func (m *mockService) GetEvent(ctx context.Context, eventID string) (*types.Event, error) {
	if m.getEventFunc != nil {
		return m.getEventFunc(ctx, eventID)
	}
	return nil, types.NewError(types.CodeNotFound, "Event not found")
}

func (m *mockService) ListEvents(ctx context.Context) ([]*types.Event, error) {
	if m.listEventsFunc != nil {
		return m.listEventsFunc(ctx)
	}
	return nil, nil
}

type recordedRequest struct {
	method string
	route  string
	code   int
}

// mockMetrics records observed requests and serves a fixed body.
type mockMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *mockMetrics) ObserveRequest(method, route string, code int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, recordedRequest{method: method, route: route, code: code})
}

func (m *mockMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}
