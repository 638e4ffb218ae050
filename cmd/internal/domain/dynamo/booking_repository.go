package dynamo

import (
	"context"
	"tradebook/cmd/internal/domain"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type bookingRecord struct {
	BookingID      string  `dynamodbav:"bookingId"`
	CustomerID     string  `dynamodbav:"customerId"`
	TradesPersonID string  `dynamodbav:"tradesPersonId"`
	Slot           string  `dynamodbav:"slot"`
	SlotEnd        string  `dynamodbav:"slotEnd"`
	Status         string  `dynamodbav:"status"`
	Description    *string `dynamodbav:"description,omitempty"`
	CreatedAt      string  `dynamodbav:"createdAt"`
	UpdatedAt      string  `dynamodbav:"updatedAt"`
}

// slotGuard is the reservation item: its key encodes tradesperson and
// slot start, so a conditional put on key absence is the atomic
// reserve. Guards carry no status or customerId attribute and are
// therefore invisible to the booking queries.
type slotGuard struct {
	BookingID string `dynamodbav:"bookingId"`
	GuardFor  string `dynamodbav:"guardFor"`
}

type BookingRepository struct {
	store *Store
}

func (b *BookingRepository) FindByID(id string) (*entity.Booking, error) {
	out, err := b.store.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(b.store.bookingsTable),
		Key: map[string]types.AttributeValue{
			"bookingId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec bookingRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (b *BookingRepository) FindAllConfirmed() ([]*entity.Booking, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(b.store.bookingsTable),
		FilterExpression: aws.String("#status = :confirmed"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: entity.BookingStatusConfirmed},
		},
	}

	var bookings []*entity.Booking
	paginator := dynamodb.NewScanPaginator(b.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			var rec bookingRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, err
			}
			booking, err := rec.toEntity()
			if err != nil {
				return nil, err
			}
			bookings = append(bookings, booking)
		}
	}
	return bookings, nil
}

// FindLatestByCustomer reads the CustomerIdIndex GSI backwards; the
// index range key is the slot, so the first item is the booking with
// the latest slot start.
func (b *BookingRepository) FindLatestByCustomer(customerID string) (*entity.Booking, error) {
	out, err := b.store.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:              aws.String(b.store.bookingsTable),
		IndexName:              aws.String("CustomerIdIndex"),
		KeyConditionExpression: aws.String("customerId = :customerId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":customerId": &types.AttributeValueMemberS{Value: customerID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var rec bookingRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, err
	}
	return rec.toEntity()
}

// CreateIfFree writes the booking and its slot guard in one
// transaction; the conditional put on the guard key is the atomic
// reserve. Either both items land or neither does.
func (b *BookingRepository) CreateIfFree(booking *entity.Booking) error {
	rec := toRecord(booking)

	bookingItem, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	guardItem, err := attributevalue.MarshalMap(slotGuard{
		BookingID: slotGuardID(rec.TradesPersonID, rec.Slot),
		GuardFor:  rec.BookingID,
	})
	if err != nil {
		return err
	}

	_, err = b.store.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(b.store.bookingsTable),
				Item:                guardItem,
				ConditionExpression: aws.String("attribute_not_exists(bookingId)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(b.store.bookingsTable),
				Item:                bookingItem,
				ConditionExpression: aws.String("attribute_not_exists(bookingId)"),
			}},
		},
	})
	if conditionalCheckFailed(err) {
		return domain.ErrSlotTaken
	}
	return err
}

// UpdateSlotIfFree moves the booking: release the old guard, reserve
// the new one and rewrite the slot attributes in one transaction. On
// conflict nothing changes.
func (b *BookingRepository) UpdateSlotIfFree(booking *entity.Booking, newStart, newEnd int64) error {
	oldSlot := utils.FormatEpoch(booking.SlotStart)
	newSlot := utils.FormatEpoch(newStart)
	now := utils.NowUTC()

	update := &types.Update{
		TableName: aws.String(b.store.bookingsTable),
		Key: map[string]types.AttributeValue{
			"bookingId": &types.AttributeValueMemberS{Value: booking.ID},
		},
		UpdateExpression: aws.String("SET slot = :slot, slotEnd = :slotEnd, updatedAt = :updatedAt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slot":      &types.AttributeValueMemberS{Value: newSlot},
			":slotEnd":   &types.AttributeValueMemberS{Value: utils.FormatEpoch(newEnd)},
			":updatedAt": &types.AttributeValueMemberS{Value: utils.FormatEpoch(now)},
		},
		ConditionExpression: aws.String("attribute_exists(bookingId)"),
	}

	var err error
	if newSlot == oldSlot {
		// Same start: the guard already belongs to this booking and a
		// transaction may not touch one item twice.
		_, err = b.store.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{{Update: update}},
		})
	} else {
		guardItem, merr := attributevalue.MarshalMap(slotGuard{
			BookingID: slotGuardID(booking.TradespersonID, newSlot),
			GuardFor:  booking.ID,
		})
		if merr != nil {
			return merr
		}

		_, err = b.store.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{Delete: &types.Delete{
					TableName: aws.String(b.store.bookingsTable),
					Key: map[string]types.AttributeValue{
						"bookingId": &types.AttributeValueMemberS{Value: slotGuardID(booking.TradespersonID, oldSlot)},
					},
				}},
				{Put: &types.Put{
					TableName:           aws.String(b.store.bookingsTable),
					Item:                guardItem,
					ConditionExpression: aws.String("attribute_not_exists(bookingId)"),
				}},
				{Update: update},
			},
		})
	}

	if conditionalCheckFailed(err) {
		return domain.ErrSlotTaken
	}
	if err != nil {
		return err
	}

	booking.SlotStart = newStart
	booking.SlotEnd = newEnd
	booking.UpdatedAt = now
	return nil
}

// Cancel flips the booking to CANCELLED and releases its slot guard in
// one transaction.
func (b *BookingRepository) Cancel(booking *entity.Booking) error {
	now := utils.NowUTC()

	_, err := b.store.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName: aws.String(b.store.bookingsTable),
				Key: map[string]types.AttributeValue{
					"bookingId": &types.AttributeValueMemberS{Value: booking.ID},
				},
				UpdateExpression: aws.String("SET #status = :cancelled, updatedAt = :updatedAt"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":cancelled": &types.AttributeValueMemberS{Value: entity.BookingStatusCancelled},
					":updatedAt": &types.AttributeValueMemberS{Value: utils.FormatEpoch(now)},
				},
				ConditionExpression: aws.String("attribute_exists(bookingId)"),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(b.store.bookingsTable),
				Key: map[string]types.AttributeValue{
					"bookingId": &types.AttributeValueMemberS{Value: slotGuardID(booking.TradespersonID, utils.FormatEpoch(booking.SlotStart))},
				},
			}},
		},
	})
	if err != nil {
		return err
	}

	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = now
	return nil
}

func toRecord(booking *entity.Booking) bookingRecord {
	return bookingRecord{
		BookingID:      booking.ID,
		CustomerID:     booking.CustomerID,
		TradesPersonID: booking.TradespersonID,
		Slot:           utils.FormatEpoch(booking.SlotStart),
		SlotEnd:        utils.FormatEpoch(booking.SlotEnd),
		Status:         booking.Status,
		Description:    booking.Description,
		CreatedAt:      utils.FormatEpoch(booking.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(booking.UpdatedAt),
	}
}

func (r bookingRecord) toEntity() (*entity.Booking, error) {
	start, err := utils.FromEpoch(r.Slot)
	if err != nil {
		return nil, err
	}
	end, err := utils.FromEpoch(r.SlotEnd)
	if err != nil {
		return nil, err
	}
	createdAt, err := utils.FromEpoch(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := utils.FromEpoch(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity.Booking{
		ID:             r.BookingID,
		CustomerID:     r.CustomerID,
		TradespersonID: r.TradesPersonID,
		SlotStart:      start,
		SlotEnd:        end,
		Status:         r.Status,
		Description:    r.Description,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}
