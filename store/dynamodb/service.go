// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
)

// Dynamo DB attribute keys
const (
	typeAttributeKey = "type"
	uuidAttributeKey = "uuid"
	bodyAttributeKey = "body"
)

var noDataResponse = errors.New("no data from query")

// client captures the methods of interest from the dynamoDB API. This
// should help mock API calls as well.
type client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// executor wraps the raw dynamodb calls so instrumentation and error mapping
// stay orthogonal to query logic.
type executor struct {
	// c is the dynamodb client
	c client

	// tableName is the name of the dynamodb table
	tableName string
}

func (d *executor) Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	out, err := d.c.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			typeAttributeKey: &types.AttributeValueMemberS{Value: model.WireName(resourceType)},
			uuidAttributeKey: &types.AttributeValueMemberS{Value: uuid},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, noDataResponse
	}
	obj, err := unmarshalBody(out.Item)
	if err != nil {
		return nil, err
	}
	return store.Restrict(obj, fields), nil
}

func (d *executor) List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error) {
	result := []model.Object{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.c.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(d.tableName),
			KeyConditionExpression:    aws.String("#rt = :rt"),
			ExpressionAttributeNames:  map[string]string{"#rt": typeAttributeKey},
			ExpressionAttributeValues: map[string]types.AttributeValue{":rt": &types.AttributeValueMemberS{Value: model.WireName(resourceType)}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			obj, err := unmarshalBody(item)
			if err != nil {
				return nil, err
			}
			result = append(result, store.Restrict(obj, fields))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func unmarshalBody(item map[string]types.AttributeValue) (model.Object, error) {
	body, ok := item[bodyAttributeKey]
	if !ok {
		return nil, noDataResponse
	}
	obj := model.Object{}
	err := attributevalue.Unmarshal(body, &obj)
	return obj, err
}
