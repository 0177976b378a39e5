package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const backendDynamoDB = "dynamodb"

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore serves the fixed queries from DynamoDB tables and indexes.
type DynamoStore struct {
	client DynamoAPI
	tables Tables
	opts   options
}

// NewDynamoStore returns a store reading through client.
func NewDynamoStore(client DynamoAPI, tables Tables, opts ...Option) *DynamoStore {
	return &DynamoStore{client: client, tables: tables, opts: newOptions(opts)}
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain. A non-empty endpoint overrides the service endpoint (local testing).
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Query runs q as a single Scan or Query call.
func (s *DynamoStore) Query(ctx context.Context, q Query) ([]Item, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	switch q.Kind {
	case KindContributions:
		return instrumented(ctx, s.opts.tracer, backendDynamoDB, s.tables.Contributions, q, s.contributions)
	case KindScores:
		return instrumented(ctx, s.opts.tracer, backendDynamoDB, s.tables.Scores, q, func(ctx context.Context) ([]Item, error) {
			return s.scores(ctx, q.Role, q.Limit)
		})
	default:
		return instrumented(ctx, s.opts.tracer, backendDynamoDB, s.tables.Popularity, q, s.popularity)
	}
}

func (s *DynamoStore) contributions(ctx context.Context) ([]Item, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(s.tables.Contributions),
		ProjectionExpression:     aws.String("#p"),
		ExpressionAttributeNames: map[string]string{"#p": "productId"},
	})
	if err != nil {
		return nil, err
	}
	return decodeItems(out.Items)
}

func (s *DynamoStore) scores(ctx context.Context, role string, limit int) ([]Item, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Scores),
		IndexName:              aws.String(s.tables.ScoresIndex),
		ProjectionExpression:   aws.String("#i, #s"),
		KeyConditionExpression: aws.String("#r = :r"),
		ExpressionAttributeNames: map[string]string{
			"#i": "userId",
			"#r": "role",
			"#s": "score",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberS{Value: role},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(clampInt32(limit)),
	})
	if err != nil {
		return nil, err
	}
	return decodeItems(out.Items)
}

func (s *DynamoStore) popularity(ctx context.Context) ([]Item, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Popularity),
		IndexName:              aws.String(s.tables.PopularityIndex),
		ProjectionExpression:   aws.String("#pn, #pc"),
		KeyConditionExpression: aws.String("#ty = :ty"),
		ExpressionAttributeNames: map[string]string{
			"#ty": "type",
			"#pc": "purchaseCount",
			"#pn": "productName",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			// every product shares this partition so the index reads as one ranking
			":ty": &types.AttributeValueMemberS{Value: productType},
		},
		Limit:            aws.Int32(PopularityLimit),
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return decodeItems(out.Items)
}

func decodeItems(raw []map[string]types.AttributeValue) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	if len(raw) == 0 {
		return items, nil
	}
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

func clampInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
