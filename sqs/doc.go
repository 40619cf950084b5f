// Package sqs publishes RSVP notifications to an AWS SQS FIFO queue.
//
// [Publisher] implements [github.com/jlim0255-workship/AWS-EventBookingApp/types.Notifier].
// The RSVP service calls it after the attendance transaction has committed;
// a failed publish is logged by the caller and never turns a recorded RSVP
// into an error.
//
// Create a publisher with [New] and initialise it with [Publisher.Init]:
//
//	publisher, err := sqs.New(&awsCfg, "rsvps.fifo", logger,
//	    sqs.WithPublishTimeout(3*time.Second),
//	).Init(ctx)
//
// Each message body is a JSON encoded [RSVPRecorded]. Messages are grouped
// by event ID, and the deduplication ID is a SHA-256 hash of the event ID,
// email, response and creation time, so a retried publish of the same RSVP
// within the SQS deduplication window is delivered once.
package sqs
