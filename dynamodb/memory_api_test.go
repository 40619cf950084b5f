package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type memoryItem = map[string]dynamodbtypes.AttributeValue

// memoryAPI is an in-memory, single-table implementation of API that applies
// TransactWriteItems all-or-nothing under one lock, the way DynamoDB commits a
// transaction. It understands exactly the expressions Client generates.
type memoryAPI struct {
	mu         sync.Mutex
	partitions map[string]map[string]memoryItem
	pageSize   int

	// failUpdate, when set, cancels any transaction whose Update item it
	// returns true for, with the given cancellation code.
	failUpdate     func(update *dynamodbtypes.Update) bool
	failUpdateCode string

	transactCalls int
}

func newMemoryAPI() *memoryAPI {
	return &memoryAPI{
		partitions: make(map[string]map[string]memoryItem),
	}
}

func (m *memoryAPI) get(pk, sk string) (memoryItem, bool) {
	partition, ok := m.partitions[pk]
	if !ok {
		return nil, false
	}

	item, ok := partition[sk]

	return item, ok
}

func (m *memoryAPI) put(item memoryItem) {
	pk := getStringValue(item[PartitionKey])
	sk := getStringValue(item[SortKey])

	if m.partitions[pk] == nil {
		m.partitions[pk] = make(map[string]memoryItem)
	}

	m.partitions[pk][sk] = maps.Clone(item)
}

// itemCount returns the number of items in the partition whose sort key has
// the given prefix.
func (m *memoryAPI) itemCount(pk, prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for sk := range m.partitions[pk] {
		if strings.HasPrefix(sk, prefix) {
			n++
		}
	}

	return n
}

func (m *memoryAPI) TransactWriteItems(_ context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactCalls++

	reasons := make([]dynamodbtypes.CancellationReason, len(params.TransactItems))
	cancelled := false

	for i, ti := range params.TransactItems {
		reasons[i].Code = aws.String("None")

		switch {
		case ti.Put != nil:
			if aws.ToString(ti.Put.ConditionExpression) == "" {
				continue
			}

			if !strings.Contains(aws.ToString(ti.Put.ConditionExpression), "attribute_not_exists") {
				return nil, fmt.Errorf("unsupported condition expression %q", aws.ToString(ti.Put.ConditionExpression))
			}

			_, exists := m.get(getStringValue(ti.Put.Item[PartitionKey]), getStringValue(ti.Put.Item[SortKey]))
			if exists {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				cancelled = true
			}
		case ti.Update != nil:
			if m.failUpdate != nil && m.failUpdate(ti.Update) {
				reasons[i].Code = aws.String(m.failUpdateCode)
				cancelled = true
			}
		default:
			return nil, errors.New("unsupported transaction item")
		}
	}

	if cancelled {
		return nil, &dynamodbtypes.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range params.TransactItems {
		if ti.Put != nil {
			m.put(ti.Put.Item)
			continue
		}

		if err := m.applyAdd(ti.Update); err != nil {
			return nil, err
		}
	}

	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (m *memoryAPI) applyAdd(update *dynamodbtypes.Update) error {
	fields := strings.Fields(aws.ToString(update.UpdateExpression))
	if len(fields) != 3 || fields[0] != "ADD" {
		return fmt.Errorf("unsupported update expression %q", aws.ToString(update.UpdateExpression))
	}

	name := update.ExpressionAttributeNames[fields[1]]

	delta, err := getNumberValue(update.ExpressionAttributeValues[fields[2]])
	if err != nil {
		return err
	}

	pk := getStringValue(update.Key[PartitionKey])
	sk := getStringValue(update.Key[SortKey])

	item, ok := m.get(pk, sk)
	if !ok {
		item = maps.Clone(update.Key)
	}

	current, err := getNumberValue(item[name])
	if err != nil {
		return err
	}

	item[name] = &dynamodbtypes.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	m.put(item)

	return nil
}

func (m *memoryAPI) BatchGetItem(_ context.Context, params *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	responses := make(map[string][]map[string]dynamodbtypes.AttributeValue)

	for table, keys := range params.RequestItems {
		responses[table] = []map[string]dynamodbtypes.AttributeValue{}

		for _, key := range keys.Keys {
			if item, ok := m.get(getStringValue(key[PartitionKey]), getStringValue(key[SortKey])); ok {
				responses[table] = append(responses[table], maps.Clone(item))
			}
		}
	}

	return &dynamodb.BatchGetItemOutput{Responses: responses}, nil
}

func (m *memoryAPI) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := getStringValue(params.ExpressionAttributeValues[":pk"])
	prefix := getStringValue(params.ExpressionAttributeValues[":prefix"])

	filterAttr, filterValue := "", ""

	if params.FilterExpression != nil {
		fields := strings.Fields(aws.ToString(params.FilterExpression))
		if len(fields) != 3 || fields[1] != "=" {
			return nil, fmt.Errorf("unsupported filter expression %q", aws.ToString(params.FilterExpression))
		}

		filterAttr = params.ExpressionAttributeNames[fields[0]]
		filterValue = getStringValue(params.ExpressionAttributeValues[fields[2]])
	}

	sortKeys := slices.Sorted(maps.Keys(m.partitions[pk]))

	start := ""
	if params.ExclusiveStartKey != nil {
		start = getStringValue(params.ExclusiveStartKey[SortKey])
	}

	output := &dynamodb.QueryOutput{}
	evaluated := 0

	for _, sk := range sortKeys {
		if !strings.HasPrefix(sk, prefix) || (start != "" && sk <= start) {
			continue
		}

		if m.pageSize > 0 && evaluated == m.pageSize {
			output.LastEvaluatedKey = map[string]dynamodbtypes.AttributeValue{
				PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: pk},
				SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: start},
			}

			break
		}

		evaluated++
		start = sk

		item := m.partitions[pk][sk]
		if filterAttr != "" && getStringValue(item[filterAttr]) != filterValue {
			continue
		}

		output.Items = append(output.Items, maps.Clone(item))
	}

	return output, nil
}

func (m *memoryAPI) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	output := &dynamodb.ScanOutput{}

	for _, partition := range m.partitions {
		for _, item := range partition {
			output.Items = append(output.Items, maps.Clone(item))
		}
	}

	return output, nil
}

func (m *memoryAPI) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, requests := range params.RequestItems {
		for _, request := range requests {
			if request.DeleteRequest == nil {
				return nil, errors.New("only delete requests are supported")
			}

			pk := getStringValue(request.DeleteRequest.Key[PartitionKey])
			sk := getStringValue(request.DeleteRequest.Key[SortKey])

			delete(m.partitions[pk], sk)
		}
	}

	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (m *memoryAPI) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{
		Table: &dynamodbtypes.TableDescription{
			TableName:   params.TableName,
			TableStatus: dynamodbtypes.TableStatusActive,
			KeySchema: []dynamodbtypes.KeySchemaElement{
				{AttributeName: aws.String(PartitionKey), KeyType: dynamodbtypes.KeyTypeHash},
				{AttributeName: aws.String(SortKey), KeyType: dynamodbtypes.KeyTypeRange},
			},
		},
	}, nil
}
