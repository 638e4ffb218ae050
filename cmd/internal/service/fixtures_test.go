package service

import (
	"testing"
	"time"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/domain/sqlite/repository"
	"tradebook/cmd/internal/schedule"
	"tradebook/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServices wires the directory and booking services over a
// fresh in-memory sqlite database.
func newTestServices(t *testing.T) (*DefaultDirectoryService, *DefaultBookingService) {
	t.Helper()

	db, err := gorm.Open(sqlitedriver.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	// A single connection keeps the :memory: database alive and shared.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&entity.Customer{}, &entity.Tradesperson{}, &entity.Booking{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	validate := validator.New()
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
	_ = validate.RegisterValidation("rating", validators.IsRating)

	customerRepo := repository.NewCustomerRepository(db)
	tpRepo := repository.NewTradespersonRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	directory := NewDirectoryService(tpRepo, customerRepo, validate)
	bookings := NewBookingService(bookingRepo, customerRepo, tpRepo, schedule.NewIndex(), schedule.NewLocker(), validate)
	return directory, bookings
}

// futureSlot returns an hour-exact RFC3339 slot n hours from now.
func futureSlot(n int) string {
	return time.Now().UTC().Truncate(time.Hour).Add(time.Duration(n) * time.Hour).Format(time.RFC3339)
}

func registerPlumber(t *testing.T, directory *DefaultDirectoryService, name string, rating float64) *TradespersonResponse {
	t.Helper()
	tp, apierr := directory.RegisterTradesperson(&RegisterTradespersonRequest{
		Name:          name,
		Trade:         "plumber",
		City:          "London",
		Rating:        rating,
		HourlyRate:    55,
		ContactNumber: "+442071234567",
	})
	if apierr != nil {
		t.Fatalf("failed to register tradesperson %s: %v", name, apierr.Message())
	}
	return tp
}

func registerTestCustomer(t *testing.T, directory *DefaultDirectoryService, id, name string) *CustomerResponse {
	t.Helper()
	customer, apierr := directory.RegisterCustomer(&RegisterCustomerRequest{Name: name, City: "London"}, id)
	if apierr != nil {
		t.Fatalf("failed to register customer %s: %v", name, apierr.Message())
	}
	return customer
}
