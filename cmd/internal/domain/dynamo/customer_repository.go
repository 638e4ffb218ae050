package dynamo

import (
	"context"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type customerRecord struct {
	CustomerID string `dynamodbav:"customerId"`
	Name       string `dynamodbav:"name"`
	City       string `dynamodbav:"city"`
	CreatedAt  string `dynamodbav:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt"`
}

type CustomerRepository struct {
	store *Store
}

func (c *CustomerRepository) FindByID(id string) (*entity.Customer, error) {
	out, err := c.store.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(c.store.customersTable),
		Key: map[string]types.AttributeValue{
			"customerId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec customerRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (c *CustomerRepository) Save(customer *entity.Customer) error {
	item, err := attributevalue.MarshalMap(customerRecord{
		CustomerID: customer.ID,
		Name:       customer.Name,
		City:       customer.City,
		CreatedAt:  utils.FormatEpoch(customer.CreatedAt),
		UpdatedAt:  utils.FormatEpoch(customer.UpdatedAt),
	})
	if err != nil {
		return err
	}

	_, err = c.store.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(c.store.customersTable),
		Item:      item,
	})
	return err
}

func (r customerRecord) toEntity() (*entity.Customer, error) {
	createdAt, err := utils.FromEpoch(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := utils.FromEpoch(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity.Customer{
		ID:        r.CustomerID,
		Name:      r.Name,
		City:      r.City,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
