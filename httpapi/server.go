package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jlim0255-workship/AWS-EventBookingApp/rsvp"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

// Service is the RSVP API implemented by *rsvp.Service.
type Service interface {
	SubmitRSVP(ctx context.Context, sub *rsvp.Submission) (*types.RSVP, error)
	GetStats(ctx context.Context, eventID string) (map[string]int64, error)
	GetAttendees(ctx context.Context, eventID, response string) ([]*types.Attendee, error)
	GetEvent(ctx context.Context, eventID string) (*types.Event, error)
	ListEvents(ctx context.Context) ([]*types.Event, error)
}

type server struct {
	svc    Service
	logger types.Logger
	opts   *options
}

// NewHandler returns an http.Handler with all routes registered.
func NewHandler(svc Service, logger types.Logger, opts ...Option) http.Handler {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	s := &server{
		svc:    svc,
		logger: logger.WithField("component", "httpapi"),
		opts:   options,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("OPTIONS /", s.handlePreflight)
	mux.HandleFunc("GET /event/{event_id}", s.handleGetEvent)
	mux.HandleFunc("GET /stats/{event_id}", s.handleGetStats)
	mux.HandleFunc("POST /rsvp", s.handleSubmitRSVP)
	mux.HandleFunc("GET /attendees/{event_id}", s.handleGetAttendees)
	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if options.metrics != nil {
		mux.Handle("GET /metrics", options.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleNotFound)

	return withRequestContext(withCORS(s.withInstrumentation(mux)))
}

// handlePreflight handles OPTIONS on any path.
func (s *server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

// handleGetEvent handles GET /event/{event_id}.
func (s *server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.svc.GetEvent(r.Context(), r.PathValue("event_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// handleGetStats handles GET /stats/{event_id}.
func (s *server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetStats(r.Context(), r.PathValue("event_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleSubmitRSVP handles POST /rsvp. An empty body is treated as an
// RSVP with no fields.
func (s *server) handleSubmitRSVP(w http.ResponseWriter, r *http.Request) {
	var sub rsvp.Submission

	if err := decodeBody(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes), &sub); err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.svc.SubmitRSVP(r.Context(), &sub); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageBody{Message: "RSVP recorded!"})
}

// handleGetAttendees handles GET /attendees/{event_id}?response=.
func (s *server) handleGetAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := s.svc.GetAttendees(r.Context(), r.PathValue("event_id"), r.URL.Query().Get("response"))
	if err != nil {
		writeError(w, err)
		return
	}

	if attendees == nil {
		attendees = []*types.Attendee{}
	}

	writeJSON(w, http.StatusOK, attendees)
}

// handleListEvents handles GET /events.
func (s *server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = []*types.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// handleHealth handles GET /healthz.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}

	for name, check := range s.opts.healthChecks {
		if err := check(r.Context()); err != nil {
			failed[name] = "unavailable"
			s.requestLogger(r).WithField("dependency", name).Errorf("Health check failed: %v", err)
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes a single JSON value into v. Anything after the value
// other than whitespace makes the body invalid.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)

	err := dec.Decode(v)
	if err == nil {
		err = dec.Decode(&struct{}{})
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
	}

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxBytesErr):
		return types.NewError(types.CodePayloadTooLarge, "Request body too large")
	default:
		return types.Validationf("Invalid request body")
	}
}

// handleNotFound handles every unmatched route.
func (s *server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: "Route Not Found", Code: types.CodeNotFound})
}
