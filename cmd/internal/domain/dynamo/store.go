// Package dynamo backs the repositories with the DynamoDB tables used
// by the call-center deployment: Customers, TradesPersons (TradeIndex
// GSI) and Bookings (CustomerIdIndex and TradesPersonIdIndex GSIs,
// both ordered by slot). Slot reservations are enforced with
// conditional writes, so the no-double-booking invariant holds even
// when several engine processes share the tables.
package dynamo

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type Store struct {
	client            *dynamodb.Client
	customersTable    string
	tradespersonTable string
	bookingsTable     string
}

func New(ctx context.Context) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	s := &Store{
		client:            dynamodb.NewFromConfig(cfg),
		customersTable:    os.Getenv("CUSTOMERS_TABLE"),
		tradespersonTable: os.Getenv("TRADESPERSON_TABLE"),
		bookingsTable:     os.Getenv("BOOKINGS_TABLE"),
	}
	if s.customersTable == "" || s.tradespersonTable == "" || s.bookingsTable == "" {
		return nil, errors.New("CUSTOMERS_TABLE, TRADESPERSON_TABLE and BOOKINGS_TABLE must be set")
	}
	return s, nil
}

func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{store: s}
}

func (s *Store) Tradespeople() *TradespersonRepository {
	return &TradespersonRepository{store: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// slotGuardID is the key of the reservation item written next to each
// confirmed booking. Slots are hour-exact with a fixed duration, so
// one guard per slot start is exactly the overlap predicate.
func slotGuardID(tradespersonID, slotISO string) string {
	return "slot#" + tradespersonID + "#" + slotISO
}

// conditionalCheckFailed reports whether the transaction was cancelled
// because a condition expression did not hold, as opposed to a
// transient service failure.
func conditionalCheckFailed(err error) bool {
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}

	var condFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condFailed)
}
