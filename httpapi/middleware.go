package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RequestIDHeader carries the request ID. A valid UUID sent by the client is
// kept; anything else is replaced.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the request ID stored in ctx, or "" if there is none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestContext assigns the request ID and extracts the caller's trace
// context, so service spans join the caller's trace.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withCORS adds the CORS headers to every response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders {
			w.Header().Set(k, v)
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}

	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}

	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// withInstrumentation logs one line per request and records request
// metrics. It must wrap the mux directly: the matched route pattern is read
// back from the request the mux received.
func (s *server) withInstrumentation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.opts.clock()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		duration := s.opts.clock().Sub(started)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		if s.opts.metrics != nil {
			s.opts.metrics.ObserveRequest(r.Method, route, rec.status, duration)
		}

		logger := s.requestLogger(r).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})

		if rec.status >= http.StatusInternalServerError {
			logger.Warn("Request failed")
		} else {
			logger.Debug("Request served")
		}
	})
}

//nolint:ireturn // types.Logger is the logging abstraction of every component
func (s *server) requestLogger(r *http.Request) types.Logger {
	return s.logger.WithField("request_id", RequestID(r.Context()))
}
