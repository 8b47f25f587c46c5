package resultstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Schema of the DynamoDB table.
const (
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
)

// dynamoDBAPI is the part of the DynamoDB client the store uses.
type dynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (
		*dynamodb.PutItemOutput, error)
}

// DynamoDBStore writes one item per run, partitioned by service name and sorted by start time.
type DynamoDBStore struct {
	client dynamoDBAPI
	table  string
}

// NewDynamoDBStore loads AWS configuration from the environment and shared config files.
func NewDynamoDBStore(ctx context.Context, table string) (*DynamoDBStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &DynamoDBStore{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

func dynamoDBItem(rec RunRecord) (map[string]types.AttributeValue, error) {
	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return nil, err
	}
	number := func(n int64) types.AttributeValue {
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
	}
	return map[string]types.AttributeValue{
		tablePartitionKey: &types.AttributeValueMemberS{Value: keyPrefix + ":" + rec.ServiceName},
		tableSortKey: &types.AttributeValueMemberS{
			Value: fmt.Sprintf("%013d:%s", rec.StartedAt.UnixMilli(), rec.RunID)},
		"runId":      &types.AttributeValueMemberS{Value: rec.RunID.String()},
		"startedAt":  number(rec.StartedAt.UnixMilli()),
		"finishedAt": number(rec.FinishedAt.UnixMilli()),
		"passed":     number(int64(rec.Passed)),
		"failed":     number(int64(rec.Failed)),
		"skipped":    number(int64(rec.Skipped)),
		"failures":   &types.AttributeValueMemberS{Value: string(failures)},
	}, nil
}

func (d *DynamoDBStore) SaveRun(ctx context.Context, rec RunRecord) error {
	item, err := dynamoDBItem(rec)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb save of run %s failed: %w", rec.RunID, err)
	}
	return nil
}

func (d *DynamoDBStore) Close() error {
	return nil
}
