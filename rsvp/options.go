package rsvp

import (
	"errors"
	"time"

	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jlim0255-workship/AWS-EventBookingApp/rsvp"

// Option is a functional option for configuring a [Service].
type Option func(*Options)

// Options holds the resolved configuration for a [Service].
type Options struct {
	responses      *ResponseSet
	notifier       types.Notifier
	recorder       Recorder
	tracerProvider trace.TracerProvider
	clock          func() time.Time
}

func newOptions() *Options {
	return &Options{
		responses:      MustResponseSet(DefaultResponses...),
		recorder:       nopRecorder{},
		tracerProvider: otel.GetTracerProvider(),
		clock:          time.Now,
	}
}

func (o *Options) validate() error {
	if o.responses == nil {
		return errors.New("response set cannot be nil")
	}

	if o.recorder == nil {
		return errors.New("recorder cannot be nil")
	}

	if o.tracerProvider == nil {
		return errors.New("tracer provider cannot be nil")
	}

	if o.clock == nil {
		return errors.New("clock cannot be nil")
	}

	return nil
}

// WithResponses sets the allowed responses. Default: [DefaultResponses].
func WithResponses(responses *ResponseSet) Option {
	return func(o *Options) {
		o.responses = responses
	}
}

// WithNotifier publishes every recorded RSVP through n. Notifications are
// disabled by default.
func WithNotifier(n types.Notifier) Option {
	return func(o *Options) {
		o.notifier = n
	}
}

// WithRecorder sets the metrics recorder. Default: a recorder that discards
// everything.
func WithRecorder(r Recorder) Option {
	return func(o *Options) {
		o.recorder = r
	}
}

// WithTracerProvider sets the tracer provider used for service spans.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.tracerProvider = tp
	}
}

// WithClock overrides the clock that stamps new RSVPs.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}

// Recorder receives RSVP outcome metrics.
type Recorder interface {
	// RSVPSubmitted is called once per submission with one of the Result*
	// constants.
	RSVPSubmitted(result string)

	// NotificationFailed is called when publishing a recorded RSVP fails.
	NotificationFailed()
}

// Submission results reported to [Recorder.RSVPSubmitted].
const (
	ResultRecorded  = "recorded"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

type nopRecorder struct{}

func (nopRecorder) RSVPSubmitted(string) {}
func (nopRecorder) NotificationFailed()  {}
