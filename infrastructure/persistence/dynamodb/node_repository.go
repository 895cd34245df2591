// Package dynamodb implements the NodeReader port on a DynamoDB single
// table:
//
//	node     PK=NODE#<id>    SK=METADATA             GSI1PK=WS#<workspace> GSI1SK=SLUG#<slug>
//	edge     PK=NODE#<from>  SK=EDGE#<seq>#<target>
//	echo     PK=NODE#<from>  SK=ECHO#<target>
//	visited  PK=USER#<id>    SK=VISITED#<node>
package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	pkgerrors "wayfinder-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// NodeRepository implements the NodeReader port using DynamoDB.
type NodeRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewNodeRepository creates a DynamoDB-backed node repository.
func NewNodeRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *NodeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// nodeItem is the DynamoDB item structure for a node.
type nodeItem struct {
	PK              string    `dynamodbav:"PK"`
	SK              string    `dynamodbav:"SK"`
	GSI1PK          string    `dynamodbav:"GSI1PK"`
	GSI1SK          string    `dynamodbav:"GSI1SK"`
	EntityType      string    `dynamodbav:"EntityType"`
	NodeID          string    `dynamodbav:"NodeID"`
	Slug            string    `dynamodbav:"Slug"`
	WorkspaceID     string    `dynamodbav:"WorkspaceID"`
	Title           string    `dynamodbav:"Title"`
	Source          string    `dynamodbav:"Source,omitempty"`
	Tags            []string  `dynamodbav:"Tags,omitempty"`
	Visible         bool      `dynamodbav:"Visible"`
	Public          bool      `dynamodbav:"Public"`
	Recommendable   bool      `dynamodbav:"Recommendable"`
	PremiumOnly     bool      `dynamodbav:"PremiumOnly"`
	RequiredNFT     string    `dynamodbav:"RequiredNFT,omitempty"`
	PopularityScore float64   `dynamodbav:"PopularityScore"`
	Embedding       []float32 `dynamodbav:"Embedding,omitempty"`
	CreatedAt       string    `dynamodbav:"CreatedAt"`
	UpdatedAt       string    `dynamodbav:"UpdatedAt"`
}

// edgeItem is the DynamoDB item structure for a manual edge.
type edgeItem struct {
	PK        string  `dynamodbav:"PK"`
	SK        string  `dynamodbav:"SK"`
	TargetID  string  `dynamodbav:"TargetID"`
	Weight    float64 `dynamodbav:"Weight"`
	CreatedAt string  `dynamodbav:"CreatedAt"`
}

// echoItem is the DynamoDB item structure for a collaborative trail edge.
type echoItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	TargetID string `dynamodbav:"TargetID"`
	Count    int    `dynamodbav:"Count"`
}

// GetByID retrieves a node by identifier.
func (r *NodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "NODE#" + id.String()},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return r.unmarshalNode(result.Item)
}

// GetBySlug retrieves a node by slug within a workspace.
func (r *NodeRepository) GetBySlug(ctx context.Context, scope, slug string) (*entities.Node, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("WS#" + scope)).
		And(expression.Key("GSI1SK").Equal(expression.Value("SLUG#" + slug)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build slug query").WithCause(err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query node by slug", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return r.unmarshalNode(result.Items[0])
}

// ManualTransitions returns the outgoing editor-authored edges of a node
// in authoring order, with targets resolved.
func (r *NodeRepository) ManualTransitions(ctx context.Context, scope string, from valueobjects.NodeID) ([]*entities.Transition, error) {
	items, err := r.queryPrefix(ctx, "NODE#"+from.String(), "EDGE#")
	if err != nil {
		return nil, err
	}

	transitions := make([]*entities.Transition, 0, len(items))
	for _, item := range items {
		var edge edgeItem
		if err := attributevalue.UnmarshalMap(item, &edge); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal edge", err)
		}
		targetID, err := valueobjects.NewNodeIDFromString(edge.TargetID)
		if err != nil {
			r.logger.Warn("skipping edge with malformed target",
				zap.String("from", from.String()),
				zap.String("target", edge.TargetID),
			)
			continue
		}
		target, err := r.GetByID(ctx, targetID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue // dangling edge, target was deleted
			}
			return nil, err
		}
		if target.WorkspaceID != scope {
			continue
		}
		createdAt, _ := time.Parse(time.RFC3339Nano, edge.CreatedAt)
		transitions = append(transitions, &entities.Transition{
			SourceID:  from,
			Target:    target,
			Weight:    edge.Weight,
			CreatedAt: createdAt,
		})
	}
	return transitions, nil
}

// EchoTransitions returns nodes reached via recorded trails, most traveled
// first, capped at limit.
func (r *NodeRepository) EchoTransitions(ctx context.Context, scope string, from valueobjects.NodeID, limit int) ([]*entities.Node, error) {
	items, err := r.queryPrefix(ctx, "NODE#"+from.String(), "ECHO#")
	if err != nil {
		return nil, err
	}

	echoes := make([]echoItem, 0, len(items))
	for _, item := range items {
		var echo echoItem
		if err := attributevalue.UnmarshalMap(item, &echo); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal echo edge", err)
		}
		echoes = append(echoes, echo)
	}
	sort.SliceStable(echoes, func(i, j int) bool { return echoes[i].Count > echoes[j].Count })

	nodes := make([]*entities.Node, 0, len(echoes))
	for _, echo := range echoes {
		if limit > 0 && len(nodes) == limit {
			break
		}
		targetID, err := valueobjects.NewNodeIDFromString(echo.TargetID)
		if err != nil {
			continue
		}
		node, err := r.GetByID(ctx, targetID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if node.WorkspaceID != scope {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Recommendable returns all navigable nodes in the workspace, ordered by
// identifier for deterministic scans.
func (r *NodeRepository) Recommendable(ctx context.Context, scope string) ([]*entities.Node, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("WS#" + scope)).
		And(expression.Key("GSI1SK").BeginsWith("SLUG#"))
	filter := expression.Name("Visible").Equal(expression.Value(true)).
		And(expression.Name("Public").Equal(expression.Value(true))).
		And(expression.Name("Recommendable").Equal(expression.Value(true)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build recommendable query").WithCause(err)
	}

	var nodes []*entities.Node
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.indexName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query recommendable nodes", err)
		}
		for _, item := range result.Items {
			node, err := r.unmarshalNode(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID.String() < nodes[j].ID.String() })
	return nodes, nil
}

// VisitedByUser returns the node identifiers on the user's echo trail.
func (r *NodeRepository) VisitedByUser(ctx context.Context, userID string) (map[string]struct{}, error) {
	items, err := r.queryPrefix(ctx, "USER#"+userID, "VISITED#")
	if err != nil {
		return nil, err
	}
	visited := make(map[string]struct{}, len(items))
	for _, item := range items {
		var sk string
		if err := attributevalue.Unmarshal(item["SK"], &sk); err != nil {
			continue
		}
		if len(sk) > len("VISITED#") {
			visited[sk[len("VISITED#"):]] = struct{}{}
		}
	}
	return visited, nil
}

// SaveEmbedding persists a computed embedding on the node item.
func (r *NodeRepository) SaveEmbedding(ctx context.Context, id valueobjects.NodeID, vector []float32) error {
	embedding, err := attributevalue.Marshal(vector)
	if err != nil {
		return pkgerrors.NewInternalError("marshal embedding").WithCause(err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "NODE#" + id.String()},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression: aws.String("SET Embedding = :embedding, UpdatedAt = :updatedAt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":embedding": embedding,
			":updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save embedding", err)
	}
	return nil
}

// queryPrefix queries all items under pk whose sort key begins with prefix.
func (r *NodeRepository) queryPrefix(ctx context.Context, pk, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk)).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build prefix query").WithCause(err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError(fmt.Sprintf("query %s", prefix), err)
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return items, nil
}

func (r *NodeRepository) unmarshalNode(item map[string]types.AttributeValue) (*entities.Node, error) {
	var record nodeItem
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal node", err)
	}
	id, err := valueobjects.NewNodeIDFromString(record.NodeID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("parse node id", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, record.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, record.UpdatedAt)
	return &entities.Node{
		ID:              id,
		Slug:            record.Slug,
		WorkspaceID:     record.WorkspaceID,
		Title:           record.Title,
		Source:          record.Source,
		Tags:            record.Tags,
		Visible:         record.Visible,
		Public:          record.Public,
		Recommendable:   record.Recommendable,
		PremiumOnly:     record.PremiumOnly,
		RequiredNFT:     record.RequiredNFT,
		PopularityScore: record.PopularityScore,
		Embedding:       record.Embedding,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}
