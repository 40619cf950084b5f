package rsvp_test

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

type mockAttendanceStore struct {
	submitRSVPFunc    func(ctx context.Context, rsvp *types.RSVP) error
	getCountsFunc     func(ctx context.Context, eventID string, responses []string) (map[string]int64, error)
	listAttendeesFunc func(ctx context.Context, eventID, response string) ([]*types.Attendee, error)
}

func (m *mockAttendanceStore) SubmitRSVP(ctx context.Context, rsvp *types.RSVP) error {
	if m.submitRSVPFunc != nil {
		return m.submitRSVPFunc(ctx, rsvp)
	}
	return nil
}

func (m *mockAttendanceStore) GetCounts(ctx context.Context, eventID string, responses []string) (map[string]int64, error) {
	if m.getCountsFunc != nil {
		return m.getCountsFunc(ctx, eventID, responses)
	}
	return map[string]int64{}, nil
}

func (m *mockAttendanceStore) ListAttendees(ctx context.Context, eventID, response string) ([]*types.Attendee, error) {
	if m.listAttendeesFunc != nil {
		return m.listAttendeesFunc(ctx, eventID, response)
	}
	return []*types.Attendee{}, nil
}

type mockEventStore struct {
	getEventFunc   func(ctx context.Context, eventID string) (*types.Event, error)
	listEventsFunc func(ctx context.Context) ([]*types.Event, error)
}

func (m *mockEventStore) GetEvent(ctx context.Context, eventID string) (*types.Event, error) {
	if m.getEventFunc != nil {
		return m.getEventFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockEventStore) ListEvents(ctx context.Context) ([]*types.Event, error) {
	if m.listEventsFunc != nil {
		return m.listEventsFunc(ctx)
	}
	return []*types.Event{}, nil
}

type mockNotifier struct {
	mu        sync.Mutex
	published []*types.RSVP
	err       error
}

func (m *mockNotifier) PublishRSVP(_ context.Context, rsvp *types.RSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published = append(m.published, rsvp)

	return m.err
}

type countingRecorder struct {
	mu                  sync.Mutex
	results             map[string]int
	notificationFailure int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{results: map[string]int{}}
}

func (r *countingRecorder) RSVPSubmitted(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[result]++
}

func (r *countingRecorder) NotificationFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notificationFailure++
}

type logEntry struct {
	level   string
	message string
	fields  map[string]any
}

// recordingLogger keeps every log entry, with the fields attached to the
// logger that wrote it.
type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	fields  map[string]any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{
		mu:      &sync.Mutex{},
		entries: &[]logEntry{},
		fields:  map[string]any{},
	}
}

func (l *recordingLogger) log(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	*l.entries = append(*l.entries, logEntry{level: level, message: message, fields: maps.Clone(l.fields)})
}

func (l *recordingLogger) Entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]logEntry(nil), *l.entries...)
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *recordingLogger) WithField(key string, value any) types.Logger {
	fields := maps.Clone(l.fields)
	fields[key] = value

	return &recordingLogger{mu: l.mu, entries: l.entries, fields: fields}
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *recordingLogger) WithFields(fields map[string]any) types.Logger {
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)

	return &recordingLogger{mu: l.mu, entries: l.entries, fields: merged}
}

func (l *recordingLogger) Debug(msg string)                  { l.log("debug", msg) }
func (l *recordingLogger) Debugf(format string, args ...any) { l.log("debug", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Info(msg string)                   { l.log("info", msg) }
func (l *recordingLogger) Infof(format string, args ...any)  { l.log("info", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Warn(msg string)                   { l.log("warn", msg) }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.log("warn", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Error(msg string)                  { l.log("error", msg) }
func (l *recordingLogger) Errorf(format string, args ...any) { l.log("error", fmt.Sprintf(format, args...)) }
