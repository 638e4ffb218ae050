package dynamo

import (
	"context"
	"sort"
	"strings"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type tradespersonRecord struct {
	TradesPersonID string  `dynamodbav:"tradesPersonId"`
	Name           string  `dynamodbav:"name"`
	Trade          string  `dynamodbav:"trade"`
	City           string  `dynamodbav:"city"`
	Rating         float64 `dynamodbav:"rating"`
	HourlyRate     float64 `dynamodbav:"hourlyRate"`
	ContactNumber  string  `dynamodbav:"contactNumber"`
	Active         bool    `dynamodbav:"active"`
	CreatedAt      string  `dynamodbav:"createdAt"`
	UpdatedAt      string  `dynamodbav:"updatedAt"`
}

type TradespersonRepository struct {
	store *Store
}

func (t *TradespersonRepository) FindByID(id string) (*entity.Tradesperson, error) {
	out, err := t.store.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(t.store.tradespersonTable),
		Key: map[string]types.AttributeValue{
			"tradesPersonId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec tradespersonRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return rec.toEntity()
}

// FindByTrade queries the TradeIndex GSI (trade as hash key, city as
// range key, both stored lowercased). The GSI orders by city, so the
// rating ordering happens here.
func (t *TradespersonRepository) FindByTrade(trade, city string, minRating float64) ([]*entity.Tradesperson, error) {
	minRatingAttr, err := attributevalue.Marshal(minRating)
	if err != nil {
		return nil, err
	}

	out, err := t.store.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:              aws.String(t.store.tradespersonTable),
		IndexName:              aws.String("TradeIndex"),
		KeyConditionExpression: aws.String("trade = :trade AND city = :city"),
		FilterExpression:       aws.String("active = :active AND rating >= :minRating"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":trade":     &types.AttributeValueMemberS{Value: strings.ToLower(trade)},
			":city":      &types.AttributeValueMemberS{Value: strings.ToLower(city)},
			":active":    &types.AttributeValueMemberBOOL{Value: true},
			":minRating": minRatingAttr,
		},
	})
	if err != nil {
		return nil, err
	}

	tps := make([]*entity.Tradesperson, 0, len(out.Items))
	for _, item := range out.Items {
		var rec tradespersonRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		tp, err := rec.toEntity()
		if err != nil {
			return nil, err
		}
		tps = append(tps, tp)
	}

	sort.Slice(tps, func(i, j int) bool {
		if tps[i].Rating != tps[j].Rating {
			return tps[i].Rating > tps[j].Rating
		}
		return tps[i].ID < tps[j].ID
	})
	return tps, nil
}

func (t *TradespersonRepository) Save(tp *entity.Tradesperson) error {
	item, err := attributevalue.MarshalMap(tradespersonRecord{
		TradesPersonID: tp.ID,
		Name:           tp.Name,
		Trade:          tp.Trade,
		City:           tp.City,
		Rating:         tp.Rating,
		HourlyRate:     tp.HourlyRate,
		ContactNumber:  tp.ContactNumber,
		Active:         tp.Active,
		CreatedAt:      utils.FormatEpoch(tp.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(tp.UpdatedAt),
	})
	if err != nil {
		return err
	}

	_, err = t.store.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(t.store.tradespersonTable),
		Item:      item,
	})
	return err
}

func (r tradespersonRecord) toEntity() (*entity.Tradesperson, error) {
	createdAt, err := utils.FromEpoch(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := utils.FromEpoch(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity.Tradesperson{
		ID:            r.TradesPersonID,
		Name:          r.Name,
		Trade:         r.Trade,
		City:          r.City,
		Rating:        r.Rating,
		HourlyRate:    r.HourlyRate,
		ContactNumber: r.ContactNumber,
		Active:        r.Active,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}
