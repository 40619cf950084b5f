package dynamodb

import (
	"errors"
	"time"
)

// Option is a functional option for configuring a [Client].
type Option func(*Options)

// Options holds the configuration for a [Client]. Use [Option] functions
// (such as [WithMaxRetryAttempts] or [WithEndpoint]) to customise the
// defaults.
type Options struct {
	maxRetryAttempts           int
	maxRetryBackoffDelay       time.Duration
	transactionConflictRetries int
	endpoint                   string
	dynamoDBAPI                API
	clock                      func() time.Time
}

func newOptions() *Options {
	return &Options{
		maxRetryAttempts:           3,
		maxRetryBackoffDelay:       10 * time.Second,
		transactionConflictRetries: 3,
		clock:                      time.Now,
	}
}

func (o *Options) validate() error {
	if o.maxRetryAttempts < 0 || o.maxRetryAttempts > 10 {
		return errors.New("max DynamoDB API retry attempts must be between 0 and 10")
	}

	if o.maxRetryBackoffDelay < 1*time.Second || o.maxRetryBackoffDelay > 30*time.Second {
		return errors.New("max DynamoDB API retry backoff delay must be between 1 and 30 seconds")
	}

	if o.transactionConflictRetries < 0 || o.transactionConflictRetries > 10 {
		return errors.New("transaction conflict retries must be between 0 and 10")
	}

	if o.clock == nil {
		return errors.New("clock cannot be nil")
	}

	return nil
}

// WithMaxRetryAttempts sets the maximum number of attempts the AWS SDK makes
// for a failed DynamoDB API call. Must be between 0 and 10. Default: 3.
func WithMaxRetryAttempts(n int) Option {
	return func(o *Options) {
		o.maxRetryAttempts = n
	}
}

// WithMaxRetryBackoffDelay sets the maximum backoff delay between SDK retry
// attempts. Must be between 1 second and 30 seconds. Default: 10 seconds.
func WithMaxRetryBackoffDelay(d time.Duration) Option {
	return func(o *Options) {
		o.maxRetryBackoffDelay = d
	}
}

// WithTransactionConflictRetries sets how many times [Client.SubmitRSVP]
// retries a transaction that was cancelled only because of a conflicting
// concurrent transaction on the same items. Must be between 0 and 10.
// Default: 3.
func WithTransactionConflictRetries(n int) Option {
	return func(o *Options) {
		o.transactionConflictRetries = n
	}
}

// WithEndpoint overrides the DynamoDB endpoint URL, e.g. to point the client
// at DynamoDB Local. Ignored when [WithAPI] is used.
func WithEndpoint(url string) Option {
	return func(o *Options) {
		o.endpoint = url
	}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.dynamoDBAPI = api
	}
}

// WithClock sets a custom clock function used to stamp respondent records
// that arrive without a creation time. Defaults to [time.Now].
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}
