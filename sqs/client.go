package sqs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

// RSVPRecordedType is the value of the "type" field and the event_type
// message attribute of every RSVP notification.
const RSVPRecordedType = "rsvp.recorded"

// sqsClient is the subset of the SQS API used by [Publisher]. It is satisfied
// by *sqs.Client.
type sqsClient interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// RSVPRecorded is the JSON body of an RSVP notification. CreatedAt is in Unix
// milliseconds, matching the attendee timestamp.
type RSVPRecorded struct {
	Type      string `json:"type"`
	EventID   string `json:"event_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Response  string `json:"response"`
	CreatedAt int64  `json:"created_at"`
}

// Publisher sends one message to an SQS FIFO queue for every recorded RSVP.
// It implements [types.Notifier].
//
// Messages of the same event share a message group, so consumers see the
// RSVPs of one event in the order they were recorded. The deduplication ID
// is derived from the RSVP itself, so a publish retried within the SQS
// deduplication window is delivered once.
//
// Create a Publisher with [New], then call [Publisher.Init] once before any
// other method. Init is not thread-safe; all other methods are safe for
// concurrent use after Init returns.
type Publisher struct {
	client      sqsClient
	queueName   string
	queueURL    string
	awsCfg      *aws.Config
	opts        *Options
	logger      types.Logger
	initialized bool
}

// New creates a Publisher for the named SQS FIFO queue. The queue name must
// end with ".fifo"; this constraint is enforced by [Publisher.Init].
//
// The logger is automatically enriched with "component" and "queue_name"
// fields. New does not connect to AWS.
func New(awsCfg *aws.Config, queueName string, logger types.Logger, opts ...Option) *Publisher {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger = logger.
		WithField("component", "sqs").
		WithField("queue_name", queueName)

	return &Publisher{
		awsCfg:    awsCfg,
		queueName: queueName,
		opts:      options,
		logger:    logger,
	}
}

// Init validates options and resolves the queue URL via GetQueueUrl. It
// returns the receiver so that initialization can be chained with [New]:
//
//	publisher, err := sqs.New(&awsCfg, "rsvps.fifo", logger).Init(ctx)
//
// Init is idempotent; subsequent calls on an initialized Publisher are
// no-ops.
func (p *Publisher) Init(ctx context.Context) (*Publisher, error) {
	if p.initialized {
		return p, nil
	}

	if !strings.HasSuffix(p.queueName, ".fifo") {
		return nil, errors.New("the SQS queue must be a FIFO queue (the name must end with .fifo)")
	}

	if err := p.opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid SQS options: %w", err)
	}

	// Use injected client if provided (for testing), otherwise create real client
	if p.opts.sqsClient != nil {
		p.client = p.opts.sqsClient
	} else {
		if p.awsCfg == nil {
			return nil, errors.New("AWS config cannot be nil")
		}

		p.client = sqs.NewFromConfig(*p.awsCfg, func(o *sqs.Options) {
			o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, p.opts.sqsAPIMaxRetryBackoffDelay)
			o.Retryer = retry.AddWithMaxAttempts(o.Retryer, p.opts.sqsAPIMaxRetryAttempts)

			if p.opts.endpoint != "" {
				o.BaseEndpoint = aws.String(p.opts.endpoint)
			}
		})
	}

	resp, err := p.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(p.queueName)})
	if err != nil {
		return nil, fmt.Errorf("failed to get SQS queue URL for %s: %w", p.queueName, err)
	}

	p.queueURL = aws.ToString(resp.QueueUrl)
	p.initialized = true

	p.logger.Debug("SQS publisher initialized")

	return p, nil
}

// Name returns the SQS queue name supplied to [New].
func (p *Publisher) Name() string {
	return p.queueName
}

// PublishRSVP sends an [RSVPRecorded] notification for rsvp. The message
// group ID is the event ID and the deduplication ID is a hash of the event
// ID, email, response and creation time.
func (p *Publisher) PublishRSVP(ctx context.Context, rsvp *types.RSVP) error {
	if rsvp == nil {
		return errors.New("rsvp cannot be nil")
	}

	if rsvp.EventID == "" {
		return errors.New("rsvp event ID cannot be empty")
	}

	createdAt := rsvp.CreatedAt.UTC()

	body, err := json.Marshal(&RSVPRecorded{
		Type:      RSVPRecordedType,
		EventID:   rsvp.EventID,
		FullName:  rsvp.FullName,
		Email:     rsvp.Email,
		Response:  rsvp.Response,
		CreatedAt: createdAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal RSVP notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.publishTimeout)
	defer cancel()

	dedupID := hash(rsvp.EventID, rsvp.Email, rsvp.Response, strconv.FormatInt(createdAt.UnixNano(), 10))

	return p.Send(ctx, rsvp.EventID, dedupID, string(body))
}

// Send publishes a single message to the FIFO queue.
//
// groupID is used as the SQS MessageGroupId, which determines message
// ordering within the queue. dedupID is used as the SQS
// MessageDeduplicationId; SQS will silently discard messages with a
// duplicate ID within the 5-minute deduplication window. Both fields are
// required and must be non-empty.
//
// Send requires [Publisher.Init] to have been called successfully.
func (p *Publisher) Send(ctx context.Context, groupID, dedupID, body string) error {
	if !p.initialized {
		return errors.New("SQS publisher not initialized")
	}

	if groupID == "" {
		return errors.New("groupID cannot be empty")
	}

	if dedupID == "" {
		return errors.New("dedupID cannot be empty")
	}

	if body == "" {
		return errors.New("body cannot be empty")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:               &p.queueURL,
		MessageGroupId:         &groupID,
		MessageDeduplicationId: &dedupID,
		MessageBody:            &body,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(RSVPRecordedType),
			},
		},
	}

	started := time.Now()

	output, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}

	p.logger.
		WithField("message_id", aws.ToString(output.MessageId)).
		WithField("group_id", groupID).
		WithField("duration_ms", time.Since(started).Milliseconds()).
		Debug("SQS message sent")

	return nil
}

func hash(input ...string) string {
	h := sha256.New()

	for _, s := range input {
		h.Write([]byte(s))
		h.Write([]byte{0}) // null byte delimiter to prevent hash collisions
	}

	bs := h.Sum(nil)

	return base64.URLEncoding.EncodeToString(bs)
}
