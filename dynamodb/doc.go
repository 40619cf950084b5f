// Package dynamodb provides the DynamoDB-backed Attendance Store: an
// implementation of [github.com/jlim0255-workship/AWS-EventBookingApp/types.AttendanceStore].
//
// # Overview
//
// The package uses a single-table DynamoDB design. All records of one event
// share the partition key ("pk") EVENT#<event_id> and are told apart by a
// type-prefixed sort key ("sk"):
//
//   - Respondents: RESPONDENT#<email>  (full_name, response, created_at)
//   - Counters:    RESPONSE#<response> (count)
//
// A counter always equals the number of respondent records in the same
// partition with that response. [Client.SubmitRSVP] keeps the two in step by
// writing the respondent record (conditioned on its absence) and adding one
// to the counter in a single TransactWriteItems call. A second RSVP for the
// same event and email cancels the whole transaction, so the counter is never
// incremented for a rejected respondent.
//
// # Getting Started
//
// Create a [Client] with [New], supplying an AWS config, the DynamoDB table
// name, and any [Option] values you need:
//
//	client := dynamodb.New(
//	    &awsCfg,
//	    tableName,
//	    dynamodb.WithMaxRetryAttempts(5),
//	)
//
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//
//	if err := client.Init(ctx, false); err != nil {
//	    return err
//	}
//
// By default, [Client.Connect] creates an AWS SDK v2 DynamoDB client from the
// supplied [aws.Config]. Supply [WithAPI] to inject a custom or mock
// implementation.
//
// # Concurrency
//
// [Client] is safe for concurrent use by multiple goroutines once
// [Client.Connect] has returned.
package dynamodb
