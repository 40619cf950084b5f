package rsvp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/smithy-go"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxEventIDLength  = 128
	maxFullNameLength = 256
	maxEmailLength    = 254
)

// Submission is an RSVP as sent by a client. Fields are normalized by
// [Service.SubmitRSVP] before anything is stored.
type Submission struct {
	EventID  string `json:"event_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Response string `json:"response"`
}

// Service implements the RSVP operations on top of an attendance store and
// an events store. It is safe for concurrent use.
type Service struct {
	attendance types.AttendanceStore
	events     types.EventStore
	logger     types.Logger
	tracer     trace.Tracer
	opts       *Options
}

// New creates a Service. The logger is enriched with a "component" field.
func New(attendance types.AttendanceStore, events types.EventStore, logger types.Logger, opts ...Option) (*Service, error) {
	if attendance == nil {
		return nil, errors.New("attendance store cannot be nil")
	}

	if events == nil {
		return nil, errors.New("events store cannot be nil")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("invalid RSVP service options: %w", err)
	}

	return &Service{
		attendance: attendance,
		events:     events,
		logger:     logger.WithField("component", "rsvp"),
		tracer:     options.tracerProvider.Tracer(tracerName),
		opts:       options,
	}, nil
}

// Responses returns the allowed responses in configured order.
func (s *Service) Responses() []string {
	return s.opts.responses.Values()
}

// SubmitRSVP validates and normalizes sub, then records it. It returns the
// stored RSVP.
//
// Errors carry a [types.Code]: CodeValidation for bad input,
// CodeDuplicateRSVP when the email has already responded to the event.
// Store faults are logged and returned without a code.
func (s *Service) SubmitRSVP(ctx context.Context, sub *Submission) (*types.RSVP, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.SubmitRSVP")
	defer span.End()

	rsvp, err := s.normalize(sub)
	if err != nil {
		s.opts.recorder.RSVPSubmitted(ResultInvalid)
		return nil, s.fail(span, "SubmitRSVP", "", err)
	}

	span.SetAttributes(
		attribute.String("rsvp.event_id", rsvp.EventID),
		attribute.String("rsvp.response", rsvp.Response),
	)

	if err := s.attendance.SubmitRSVP(ctx, rsvp); err != nil {
		if errors.Is(err, types.ErrDuplicateRSVP) {
			s.opts.recorder.RSVPSubmitted(ResultDuplicate)
		} else {
			s.opts.recorder.RSVPSubmitted(ResultError)
		}

		return nil, s.fail(span, "SubmitRSVP", rsvp.EventID, err)
	}

	s.opts.recorder.RSVPSubmitted(ResultRecorded)

	s.notify(ctx, span, rsvp)

	return rsvp, nil
}

// GetStats returns the counter of every allowed response for an event.
// Responses nobody has chosen yet are zero.
func (s *Service) GetStats(ctx context.Context, eventID string) (map[string]int64, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.GetStats", trace.WithAttributes(attribute.String("rsvp.event_id", eventID)))
	defer span.End()

	eventID, err := normalizeEventID(eventID)
	if err != nil {
		return nil, s.fail(span, "GetStats", "", err)
	}

	responses := s.opts.responses.Values()

	counts, err := s.attendance.GetCounts(ctx, eventID, responses)
	if err != nil {
		return nil, s.fail(span, "GetStats", eventID, err)
	}

	stats := make(map[string]int64, len(responses))
	for _, r := range responses {
		stats[r] = counts[r]
	}

	return stats, nil
}

// GetAttendees returns the respondents of an event. A non-empty response
// must be one of the allowed responses and narrows the result to
// respondents who chose it.
func (s *Service) GetAttendees(ctx context.Context, eventID, response string) ([]*types.Attendee, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.GetAttendees", trace.WithAttributes(attribute.String("rsvp.event_id", eventID)))
	defer span.End()

	eventID, err := normalizeEventID(eventID)
	if err != nil {
		return nil, s.fail(span, "GetAttendees", "", err)
	}

	filter := ""

	if strings.TrimSpace(response) != "" {
		canonical, ok := s.opts.responses.Canonical(response)
		if !ok {
			return nil, s.fail(span, "GetAttendees", eventID, s.invalidResponse())
		}

		filter = canonical
	}

	attendees, err := s.attendance.ListAttendees(ctx, eventID, filter)
	if err != nil {
		return nil, s.fail(span, "GetAttendees", eventID, err)
	}

	return attendees, nil
}

// GetEvent returns an event. An unknown event is a [types.CodeNotFound]
// error.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*types.Event, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.GetEvent", trace.WithAttributes(attribute.String("rsvp.event_id", eventID)))
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, s.fail(span, "GetEvent", "", types.Validationf("event_id is required"))
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, s.fail(span, "GetEvent", eventID, err)
	}

	if event == nil {
		return nil, s.fail(span, "GetEvent", eventID, types.NewError(types.CodeNotFound, "Event not found"))
	}

	return event, nil
}

// ListEvents returns all events ordered by start time.
func (s *Service) ListEvents(ctx context.Context) ([]*types.Event, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.ListEvents")
	defer span.End()

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, s.fail(span, "ListEvents", "", err)
	}

	if events == nil {
		events = []*types.Event{}
	}

	return events, nil
}

func (s *Service) normalize(sub *Submission) (*types.RSVP, error) {
	if sub == nil {
		return nil, types.Validationf("Missing required fields")
	}

	rsvp := &types.RSVP{
		EventID:  strings.TrimSpace(sub.EventID),
		FullName: strings.TrimSpace(sub.FullName),
		Email:    strings.ToLower(strings.TrimSpace(sub.Email)),
		Response: strings.TrimSpace(sub.Response),
	}

	if rsvp.EventID == "" || rsvp.FullName == "" || rsvp.Email == "" || rsvp.Response == "" {
		return nil, types.Validationf("Missing required fields")
	}

	eventID, err := normalizeEventID(rsvp.EventID)
	if err != nil {
		return nil, err
	}

	rsvp.EventID = eventID

	if len(rsvp.FullName) > maxFullNameLength {
		return nil, types.Validationf("full_name must be at most %d characters", maxFullNameLength)
	}

	if !validEmail(rsvp.Email) {
		return nil, types.Validationf("Invalid email address")
	}

	response, ok := s.opts.responses.Canonical(rsvp.Response)
	if !ok {
		return nil, s.invalidResponse()
	}

	rsvp.Response = response
	rsvp.CreatedAt = s.opts.clock().UTC().Truncate(time.Millisecond)

	return rsvp, nil
}

func (s *Service) invalidResponse() error {
	return types.Validationf("response must be one of: %s", s.opts.responses)
}

// notify publishes a recorded RSVP. Failures never reach the caller.
func (s *Service) notify(ctx context.Context, span trace.Span, rsvp *types.RSVP) {
	if s.opts.notifier == nil {
		return
	}

	if err := s.opts.notifier.PublishRSVP(ctx, rsvp); err != nil {
		s.opts.recorder.NotificationFailed()
		span.AddEvent("notification failed", trace.WithAttributes(attribute.String("error", err.Error())))
		s.logger.
			WithField("event_id", rsvp.EventID).
			WithField("operation", "PublishRSVP").
			Errorf("Failed to publish RSVP notification: %v", err)
	}
}

// fail records err on the span and logs it if it is a dependency fault.
// Coded errors are client errors and are returned without logging.
func (s *Service) fail(span trace.Span, operation, eventID string, err error) error {
	if types.GetCode(err) != types.CodeInternal {
		span.SetAttributes(attribute.String("rsvp.error_code", string(types.GetCode(err))))
		return err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" failed")

	logger := s.logger.WithField("operation", operation)
	if eventID != "" {
		logger = logger.WithField("event_id", eventID)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		logger = logger.WithField("error_code", apiErr.ErrorCode())
	}

	logger.Errorf("%s failed: %v", operation, err)

	return err
}

func normalizeEventID(eventID string) (string, error) {
	eventID = strings.TrimSpace(eventID)

	if eventID == "" {
		return "", types.Validationf("event_id is required")
	}

	if len(eventID) > maxEventIDLength || strings.Contains(eventID, "#") {
		return "", types.Validationf("Invalid event_id")
	}

	return eventID, nil
}

func validEmail(email string) bool {
	if len(email) > maxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	at := strings.LastIndex(email, "@")

	return at > 0 && at < len(email)-1
}
