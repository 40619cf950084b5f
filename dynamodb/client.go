package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

const (
	// PartitionKey is the DynamoDB partition key attribute name.
	PartitionKey = "pk"

	// SortKey is the DynamoDB sort key attribute name.
	SortKey = "sk"

	// FullNameAttr is the attribute holding a respondent's full name.
	FullNameAttr = "full_name"

	// ResponseAttr is the attribute holding a respondent's response.
	ResponseAttr = "response"

	// CreatedAtAttr is the attribute holding the respondent record creation
	// time, in Unix milliseconds.
	CreatedAtAttr = "created_at"

	// CountAttr is the attribute holding a counter record's value. COUNT is a
	// DynamoDB reserved word, so expressions refer to it as #count.
	CountAttr = "count"

	// EventKeyPrefix prefixes the event ID in the partition key.
	EventKeyPrefix = "EVENT#"

	// RespondentKeyPrefix prefixes the email in a respondent record's sort key.
	RespondentKeyPrefix = "RESPONDENT#"

	// ResponseKeyPrefix prefixes the response value in a counter record's sort key.
	ResponseKeyPrefix = "RESPONSE#"

	// respondentItemIndex is the position of the respondent Put in the
	// SubmitRSVP transaction, and therefore of its cancellation reason.
	respondentItemIndex = 0

	// maxBatchGetKeys is the BatchGetItem limit on keys per request.
	maxBatchGetKeys = 100

	// maxBackoff is the maximum backoff duration for retry loops.
	maxBackoff = 2 * time.Second
)

// API is the subset of the DynamoDB client used by [Client]. It is satisfied
// by *dynamodb.Client.
type API interface {
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Client is a DynamoDB-backed implementation of the [types.AttendanceStore]
// interface. It uses a single-table design with one partition per event.
//
// Use [New] to create a Client, [Client.Connect] to initialize the underlying
// DynamoDB connection, and [Client.Init] to validate the table schema.
type Client struct {
	client    API
	tableName string
	awsCfg    *aws.Config
	opts      *Options
}

// New creates a new Client configured with the given AWS config, table name,
// and optional options. Call [Client.Connect] on the returned client before use.
func New(awsCfg *aws.Config, tableName string, opts ...Option) *Client {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Client{
		awsCfg:    awsCfg,
		tableName: tableName,
		opts:      options,
	}
}

// Connect initializes the DynamoDB client from the AWS config provided to [New].
// It must be called before any other Client methods, and must complete before
// the Client is used concurrently.
func (c *Client) Connect() error {
	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid DynamoDB options: %w", err)
	}

	if c.tableName == "" {
		return errors.New("DynamoDB table name cannot be empty")
	}

	// Use injected DynamoDB API if provided (useful for testing).
	if c.opts.dynamoDBAPI != nil {
		c.client = c.opts.dynamoDBAPI
		return nil
	}

	if c.awsCfg == nil {
		return errors.New("AWS config cannot be nil")
	}

	c.client = dynamodb.NewFromConfig(*c.awsCfg, func(o *dynamodb.Options) {
		retryer := o.Retryer
		if retryer == nil {
			retryer = retry.NewStandard()
		}

		retryer = retry.AddWithMaxBackoffDelay(retryer, c.opts.maxRetryBackoffDelay)
		o.Retryer = retry.AddWithMaxAttempts(retryer, c.opts.maxRetryAttempts)

		if c.opts.endpoint != "" {
			o.BaseEndpoint = aws.String(c.opts.endpoint)
		}
	})

	return nil
}

// TableName returns the DynamoDB table name supplied to [New].
func (c *Client) TableName() string {
	return c.tableName
}

// Init validates the DynamoDB table schema. It checks that the table exists,
// is active, and has the partition key (pk) and sort key (sk) the single-table
// design relies on.
//
// Pass skipSchemaValidation true to skip all checks and return immediately,
// which is useful when schema validation is managed separately.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if skipSchemaValidation {
		return nil
	}

	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	}

	response, err := c.client.DescribeTable(ctx, input)
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", c.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if response.Table == nil {
		return fmt.Errorf("table %s has no description", c.tableName)
	}

	if len(response.Table.KeySchema) < 1 {
		return fmt.Errorf("table %s has no key schema", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[0].AttributeName) != PartitionKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[0].AttributeName), PartitionKey)
	}

	if len(response.Table.KeySchema) < 2 {
		return fmt.Errorf("table %s has a simple primary key, expected composite", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[1].AttributeName) != SortKey {
		return fmt.Errorf("table %s has sort key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[1].AttributeName), SortKey)
	}

	for _, def := range response.Table.AttributeDefinitions {
		name := aws.ToString(def.AttributeName)
		if (name == PartitionKey || name == SortKey) && def.AttributeType != dynamodbtypes.ScalarAttributeTypeS {
			return fmt.Errorf("table %s key attribute %s has type %s, expected %s", c.tableName, name, def.AttributeType, dynamodbtypes.ScalarAttributeTypeS)
		}
	}

	if response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", c.tableName, response.Table.TableStatus)
	}

	return nil
}

// Ping checks that the table is reachable and active.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return errors.New("DynamoDB client not connected")
	}

	response, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.tableName)})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if response.Table == nil || response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active", c.tableName)
	}

	return nil
}

// DropAllData deletes every item from the DynamoDB table. It scans the table
// in pages and removes each page using BatchWriteItem with exponential backoff
// for unprocessed items.
//
// This method is intended for use in tests only. Do not call it in production.
func (c *Client) DropAllData(ctx context.Context) error {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(c.tableName),
		ProjectionExpression: aws.String(PartitionKey + ", " + SortKey),
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
		}

		// Process items in batches of 25 (DynamoDB BatchWriteItem limit).
		for i := 0; i < len(output.Items); i += 25 {
			end := min(i+25, len(output.Items))
			batch := output.Items[i:end]

			requestItems := make([]dynamodbtypes.WriteRequest, 0, len(batch))

			for _, item := range batch {
				requestItems = append(requestItems, dynamodbtypes.WriteRequest{
					DeleteRequest: &dynamodbtypes.DeleteRequest{
						Key: map[string]dynamodbtypes.AttributeValue{
							PartitionKey: item[PartitionKey],
							SortKey:      item[SortKey],
						},
					},
				})
			}

			batchInput := &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]dynamodbtypes.WriteRequest{
					c.tableName: requestItems,
				},
			}

			if err := c.batchWriteWithRetry(ctx, batchInput); err != nil {
				return err
			}
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return nil
}

// SubmitRSVP records a respondent and increments the counter for its response
// in a single DynamoDB transaction. The respondent Put is conditioned on the
// key not existing; if it already exists the transaction is cancelled and the
// returned error wraps [types.ErrDuplicateRSVP]. Nothing is written in that
// case.
//
// Every call uses one client request token for all of its attempts, so an SDK
// retry of an attempt that already committed succeeds instead of being
// reported as a duplicate. Transactions cancelled only by conflicting
// concurrent transactions are retried up to the limit configured with
// [WithTransactionConflictRetries].
func (c *Client) SubmitRSVP(ctx context.Context, rsvp *types.RSVP) error {
	if rsvp == nil {
		return errors.New("rsvp cannot be nil")
	}

	if rsvp.FullName == "" {
		return errors.New("rsvp full name cannot be empty")
	}

	transactionInput, err := c.createSubmitTransaction(rsvp)
	if err != nil {
		return err
	}

	backoff := 50 * time.Millisecond

	for attempt := 0; ; attempt++ {
		_, err = c.client.TransactWriteItems(ctx, transactionInput)
		if err == nil {
			return nil
		}

		var canceled *dynamodbtypes.TransactionCanceledException
		if !errors.As(err, &canceled) {
			return fmt.Errorf("failed to record RSVP in DynamoDB table %s: %w", c.tableName, err)
		}

		if isConditionalCheckFailure(canceled.CancellationReasons, respondentItemIndex) {
			return fmt.Errorf("respondent %s already exists for event %s: %w", rsvp.Email, rsvp.EventID, types.ErrDuplicateRSVP)
		}

		if !isTransactionConflict(canceled.CancellationReasons) || attempt >= c.opts.transactionConflictRetries {
			return fmt.Errorf("RSVP transaction cancelled in DynamoDB table %s (reasons: %s): %w", c.tableName, cancellationCodes(canceled.CancellationReasons), err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

// GetCounts reads the counter records of the given responses with
// BatchGetItem, using strongly consistent reads. Every requested response is
// present in the result; responses without a counter record are zero.
func (c *Client) GetCounts(ctx context.Context, eventID string, responses []string) (map[string]int64, error) {
	pk, err := buildPartitionKey(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to build partition key: %w", err)
	}

	counts := make(map[string]int64, len(responses))
	keys := make([]map[string]dynamodbtypes.AttributeValue, 0, len(responses))

	for _, response := range responses {
		if _, seen := counts[response]; seen {
			continue
		}

		sk, err := buildResponseSortKey(response)
		if err != nil {
			return nil, fmt.Errorf("failed to build counter sort key: %w", err)
		}

		counts[response] = 0

		keys = append(keys, map[string]dynamodbtypes.AttributeValue{
			PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: pk},
			SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: sk},
		})
	}

	for i := 0; i < len(keys); i += maxBatchGetKeys {
		end := min(i+maxBatchGetKeys, len(keys))

		input := &dynamodb.BatchGetItemInput{
			RequestItems: map[string]dynamodbtypes.KeysAndAttributes{
				c.tableName: {
					Keys:                     keys[i:end],
					ConsistentRead:           aws.Bool(true),
					ProjectionExpression:     aws.String(SortKey + ", #count"),
					ExpressionAttributeNames: map[string]string{"#count": CountAttr},
				},
			},
		}

		if err := c.batchGetCounts(ctx, input, counts); err != nil {
			return nil, err
		}
	}

	return counts, nil
}

// ListAttendees queries the respondent records of an event with
// begins_with(sk, "RESPONDENT#"), following LastEvaluatedKey until the
// partition is exhausted. A non-empty response is applied as a filter
// expression. Results are in sort key order. Returns an empty slice if the
// event has no respondents.
func (c *Client) ListAttendees(ctx context.Context, eventID, response string) ([]*types.Attendee, error) {
	pk, err := buildPartitionKey(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to build partition key: %w", err)
	}

	queryInput := &dynamodb.QueryInput{
		TableName: &c.tableName,
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk":     &dynamodbtypes.AttributeValueMemberS{Value: pk},
			":prefix": &dynamodbtypes.AttributeValueMemberS{Value: RespondentKeyPrefix},
		},
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk AND begins_with(%s, :prefix)", PartitionKey, SortKey)),
	}

	if response != "" {
		queryInput.FilterExpression = aws.String("#response = :response")
		queryInput.ExpressionAttributeNames = map[string]string{"#response": ResponseAttr}
		queryInput.ExpressionAttributeValues[":response"] = &dynamodbtypes.AttributeValueMemberS{Value: response}
	}

	attendees := make([]*types.Attendee, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := c.client.Query(ctx, queryInput)
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB table %s: %w", c.tableName, err)
		}

		for _, item := range output.Items {
			attendee, err := attendeeFromItem(item)
			if err != nil {
				return nil, fmt.Errorf("failed to parse respondent record for event %s: %w", eventID, err)
			}

			attendees = append(attendees, attendee)
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		queryInput.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return attendees, nil
}

func (c *Client) createSubmitTransaction(rsvp *types.RSVP) (*dynamodb.TransactWriteItemsInput, error) {
	pk, err := buildPartitionKey(rsvp.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to build partition key: %w", err)
	}

	respondentSortKey, err := buildRespondentSortKey(rsvp.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to build respondent sort key: %w", err)
	}

	counterSortKey, err := buildResponseSortKey(rsvp.Response)
	if err != nil {
		return nil, fmt.Errorf("failed to build counter sort key: %w", err)
	}

	createdAt := rsvp.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.opts.clock()
	}

	// The respondent record may only be created once per event and email.
	putRespondent := dynamodbtypes.TransactWriteItem{
		Put: &dynamodbtypes.Put{
			TableName: &c.tableName,
			Item: map[string]dynamodbtypes.AttributeValue{
				PartitionKey:  &dynamodbtypes.AttributeValueMemberS{Value: pk},
				SortKey:       &dynamodbtypes.AttributeValueMemberS{Value: respondentSortKey},
				FullNameAttr:  &dynamodbtypes.AttributeValueMemberS{Value: rsvp.FullName},
				ResponseAttr:  &dynamodbtypes.AttributeValueMemberS{Value: rsvp.Response},
				CreatedAtAttr: &dynamodbtypes.AttributeValueMemberN{Value: strconv.FormatInt(createdAt.UnixMilli(), 10)},
			},
			ConditionExpression: aws.String(fmt.Sprintf("attribute_not_exists(%s) AND attribute_not_exists(%s)", PartitionKey, SortKey)),
		},
	}

	// ADD creates the counter on first use and increments it atomically
	// on the server afterwards.
	incrementCounter := dynamodbtypes.TransactWriteItem{
		Update: &dynamodbtypes.Update{
			TableName: &c.tableName,
			Key: map[string]dynamodbtypes.AttributeValue{
				PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: pk},
				SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: counterSortKey},
			},
			UpdateExpression:         aws.String("ADD #count :one"),
			ExpressionAttributeNames: map[string]string{"#count": CountAttr},
			ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
				":one": &dynamodbtypes.AttributeValueMemberN{Value: "1"},
			},
		},
	}

	return &dynamodb.TransactWriteItemsInput{
		ClientRequestToken: aws.String(uuid.NewString()),
		TransactItems: []dynamodbtypes.TransactWriteItem{
			putRespondent,
			incrementCounter,
		},
	}, nil
}

func (c *Client) batchGetCounts(ctx context.Context, input *dynamodb.BatchGetItemInput, counts map[string]int64) error {
	// Retry with exponential backoff for unprocessed keys.
	const maxRetries = 5
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		output, err := c.client.BatchGetItem(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to batch get counters from DynamoDB table %s: %w", c.tableName, err)
		}

		for _, item := range output.Responses[c.tableName] {
			response, ok := strings.CutPrefix(getStringValue(item[SortKey]), ResponseKeyPrefix)
			if !ok {
				continue
			}

			if _, requested := counts[response]; !requested {
				continue
			}

			count, err := getNumberValue(item[CountAttr])
			if err != nil {
				return fmt.Errorf("invalid counter value for response %s: %w", response, err)
			}

			counts[response] = count
		}

		if len(output.UnprocessedKeys) == 0 {
			return nil
		}

		if attempt == maxRetries {
			return fmt.Errorf("%d unprocessed keys after %d retries", len(output.UnprocessedKeys[c.tableName].Keys), maxRetries)
		}

		// Wait before retrying unprocessed keys.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
		input.RequestItems = output.UnprocessedKeys
	}

	return nil
}

func (c *Client) batchWriteWithRetry(ctx context.Context, input *dynamodb.BatchWriteItemInput) error {
	// Retry with exponential backoff for unprocessed items.
	const maxRetries = 5
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		batchResult, err := c.client.BatchWriteItem(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to batch delete items from DynamoDB table %s: %w", c.tableName, err)
		}

		if len(batchResult.UnprocessedItems) == 0 {
			return nil
		}

		if attempt == maxRetries {
			return fmt.Errorf("%d unprocessed items after %d retries in DropAllData",
				len(batchResult.UnprocessedItems[c.tableName]), maxRetries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
		input.RequestItems = batchResult.UnprocessedItems
	}

	return nil
}

func attendeeFromItem(item map[string]dynamodbtypes.AttributeValue) (*types.Attendee, error) {
	sk := getStringValue(item[SortKey])

	email, ok := strings.CutPrefix(sk, RespondentKeyPrefix)
	if !ok {
		return nil, fmt.Errorf("sort key %s is not a respondent sort key", sk)
	}

	attendee := &types.Attendee{
		FullName: getStringValue(item[FullNameAttr]),
		Email:    email,
		Response: getStringValue(item[ResponseAttr]),
	}

	if attr, ok := item[CreatedAtAttr]; ok {
		ts, err := getNumberValue(attr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s for respondent %s: %w", CreatedAtAttr, email, err)
		}

		attendee.Timestamp = ts
	}

	return attendee, nil
}

func isConditionalCheckFailure(reasons []dynamodbtypes.CancellationReason, index int) bool {
	if index >= len(reasons) {
		return false
	}

	return aws.ToString(reasons[index].Code) == "ConditionalCheckFailed"
}

// isTransactionConflict reports whether the only cancellation reasons other
// than None are TransactionConflict.
func isTransactionConflict(reasons []dynamodbtypes.CancellationReason) bool {
	conflict := false

	for _, reason := range reasons {
		switch aws.ToString(reason.Code) {
		case "", "None":
		case "TransactionConflict":
			conflict = true
		default:
			return false
		}
	}

	return conflict
}

func cancellationCodes(reasons []dynamodbtypes.CancellationReason) string {
	codes := make([]string, 0, len(reasons))

	for _, reason := range reasons {
		code := aws.ToString(reason.Code)
		if code == "" {
			code = "None"
		}

		codes = append(codes, code)
	}

	return strings.Join(codes, ",")
}

func buildPartitionKey(eventID string) (string, error) {
	if eventID == "" {
		return "", errors.New("eventID cannot be empty")
	}

	if strings.Contains(eventID, "#") {
		return "", errors.New("eventID cannot contain '#'")
	}

	return EventKeyPrefix + eventID, nil
}

func buildRespondentSortKey(email string) (string, error) {
	if email == "" {
		return "", errors.New("email cannot be empty")
	}

	return RespondentKeyPrefix + email, nil
}

func buildResponseSortKey(response string) (string, error) {
	if response == "" {
		return "", errors.New("response cannot be empty")
	}

	return ResponseKeyPrefix + response, nil
}

// getStringValue extracts the string value from a DynamoDB AttributeValue.
// It returns an empty string if the AttributeValue is not of type AttributeValueMemberS.
func getStringValue(attr dynamodbtypes.AttributeValue) string {
	if attrValue, ok := attr.(*dynamodbtypes.AttributeValueMemberS); ok {
		return attrValue.Value
	}

	return ""
}

// getNumberValue extracts an integer from a DynamoDB number AttributeValue.
// A missing attribute is zero.
func getNumberValue(attr dynamodbtypes.AttributeValue) (int64, error) {
	if attr == nil {
		return 0, nil
	}

	attrValue, ok := attr.(*dynamodbtypes.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute is %T, expected a number", attr)
	}

	n, err := strconv.ParseInt(attrValue.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse number %q: %w", attrValue.Value, err)
	}

	return n, nil
}
