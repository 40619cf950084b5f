// Package storetests holds behavioural tests shared by every
// [types.AttendanceStore] and [types.EventStore] implementation. Each store
// package runs them against its own backend, in unit tests with a fake and in
// integration tests with the real service.
//
// The tests create their own uniquely named events, so they can run against a
// store that already holds data.
package storetests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventID() string {
	return "test-" + uuid.NewString()
}

// TestSubmitRSVP checks that a first RSVP is recorded and counted, and that a
// second RSVP for the same event and email is rejected without side effects.
func TestSubmitRSVP(t *testing.T, store types.AttendanceStore) {
	ctx := context.Background()
	eventID := newEventID()

	err := store.SubmitRSVP(ctx, &types.RSVP{EventID: eventID, FullName: "Alice", Email: "a@x.com", Response: "Yes"})
	require.NoError(t, err)

	counts, err := store.GetCounts(ctx, eventID, []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Yes": 1, "No": 0}, counts)

	err = store.SubmitRSVP(ctx, &types.RSVP{EventID: eventID, FullName: "Alice", Email: "a@x.com", Response: "No"})
	require.ErrorIs(t, err, types.ErrDuplicateRSVP)

	counts, err = store.GetCounts(ctx, eventID, []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Yes": 1, "No": 0}, counts)
}

// TestGetCountsDefaultsToZero checks that an event without RSVPs reports
// every requested response as zero.
func TestGetCountsDefaultsToZero(t *testing.T, store types.AttendanceStore) {
	counts, err := store.GetCounts(context.Background(), newEventID(), []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Yes": 0, "No": 0}, counts)
}

// TestListAttendees checks attendee listing with and without a response
// filter.
func TestListAttendees(t *testing.T, store types.AttendanceStore) {
	ctx := context.Background()
	eventID := newEventID()
	createdAt := time.UnixMilli(1700000000000)

	rsvps := []*types.RSVP{
		{EventID: eventID, FullName: "Alice", Email: "a@x.com", Response: "Yes", CreatedAt: createdAt},
		{EventID: eventID, FullName: "Bob", Email: "b@x.com", Response: "No", CreatedAt: createdAt},
		{EventID: eventID, FullName: "Carol", Email: "c@x.com", Response: "Yes", CreatedAt: createdAt},
	}

	for _, rsvp := range rsvps {
		require.NoError(t, store.SubmitRSVP(ctx, rsvp))
	}

	all, err := store.ListAttendees(ctx, eventID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	yes, err := store.ListAttendees(ctx, eventID, "Yes")
	require.NoError(t, err)
	require.Len(t, yes, 2)

	for _, a := range yes {
		assert.Equal(t, "Yes", a.Response)
		assert.Equal(t, createdAt.UnixMilli(), a.Timestamp)
	}

	no, err := store.ListAttendees(ctx, eventID, "No")
	require.NoError(t, err)
	require.Len(t, no, 1)
	assert.Equal(t, types.Attendee{FullName: "Bob", Email: "b@x.com", Response: "No", Timestamp: createdAt.UnixMilli()}, *no[0])

	empty, err := store.ListAttendees(ctx, newEventID(), "")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

// TestConcurrentSubmissions checks that concurrent RSVPs with distinct emails
// are all counted, and that of concurrent RSVPs with the same email exactly
// one succeeds.
func TestConcurrentSubmissions(t *testing.T, store types.AttendanceStore) {
	const n = 10

	ctx := context.Background()
	eventID := newEventID()

	var wg sync.WaitGroup

	errs := make([]error, 2*n)

	for i := range n {
		wg.Add(2)

		go func() {
			defer wg.Done()
			errs[i] = store.SubmitRSVP(ctx, &types.RSVP{EventID: eventID, FullName: "Guest", Email: fmt.Sprintf("guest%d@x.com", i), Response: "Yes"})
		}()

		go func() {
			defer wg.Done()
			errs[n+i] = store.SubmitRSVP(ctx, &types.RSVP{EventID: eventID, FullName: "Same", Email: "same@x.com", Response: "No"})
		}()
	}

	wg.Wait()

	for _, err := range errs[:n] {
		require.NoError(t, err)
	}

	succeeded := 0

	for _, err := range errs[n:] {
		if err == nil {
			succeeded++
			continue
		}

		require.ErrorIs(t, err, types.ErrDuplicateRSVP)
	}

	assert.Equal(t, 1, succeeded)

	counts, err := store.GetCounts(ctx, eventID, []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Yes": n, "No": 1}, counts)
}

// EventSeeder is implemented by event stores that can write events. Only test
// and seeding code writes events.
type EventSeeder interface {
	types.EventStore
	SaveEvent(ctx context.Context, event *types.Event) error
}

// TestGetEvent checks event lookup, including the not-found case.
func TestGetEvent(t *testing.T, store EventSeeder) {
	ctx := context.Background()
	end := time.Date(2030, 5, 1, 20, 0, 0, 0, time.UTC)

	event := &types.Event{
		EventID:     newEventID(),
		Title:       "Launch party",
		Description: "Drinks and demos",
		Location:    "Dock 4",
		StartAt:     time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC),
		EndAt:       &end,
	}

	require.NoError(t, store.SaveEvent(ctx, event))

	got, err := store.GetEvent(ctx, event.EventID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, event.Title, got.Title)
	assert.Equal(t, event.Location, got.Location)
	assert.True(t, event.StartAt.Equal(got.StartAt))
	require.NotNil(t, got.EndAt)
	assert.True(t, end.Equal(*got.EndAt))

	missing, err := store.GetEvent(ctx, newEventID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestListEvents checks that events are listed earliest first.
func TestListEvents(t *testing.T, store EventSeeder) {
	ctx := context.Background()
	base := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)

	later := &types.Event{EventID: newEventID(), Title: "Later", StartAt: base.Add(48 * time.Hour)}
	earlier := &types.Event{EventID: newEventID(), Title: "Earlier", StartAt: base}

	require.NoError(t, store.SaveEvent(ctx, later))
	require.NoError(t, store.SaveEvent(ctx, earlier))

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)

	positions := map[string]int{}
	for i, e := range events {
		positions[e.EventID] = i

		if i > 0 {
			assert.False(t, e.StartAt.Before(events[i-1].StartAt), "events must be ordered by start time")
		}
	}

	require.Contains(t, positions, earlier.EventID)
	require.Contains(t, positions, later.EventID)
	assert.Less(t, positions[earlier.EventID], positions[later.EventID])
}
