package main

import (
	"context"
	"os"
	"tradebook/cmd/internal/domain/dynamo"
	"tradebook/cmd/internal/domain/sqlite"
	"tradebook/cmd/internal/domain/sqlite/repository"
	"tradebook/cmd/internal/metrics"
	"tradebook/cmd/internal/routes"
	"tradebook/cmd/internal/schedule"
	"tradebook/cmd/internal/service"
	"tradebook/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	validate := validator.New()
	registerValidators(validate)

	err := godotenv.Load()
	if err != nil {
		log.Warn("no .env file found, using process environment")
	}

	customerRepo, tpRepo, bookingRepo, err := initStore()
	if err != nil {
		log.Fatal("failed to initialize storage", err)
	}

	index := schedule.NewIndex()
	locks := schedule.NewLocker()

	// Getting services
	directoryService := service.NewDirectoryService(tpRepo, customerRepo, validate)
	bookingService := service.NewBookingService(bookingRepo, customerRepo, tpRepo, index, locks, validate)

	if err := bookingService.LoadSchedule(); err != nil {
		log.Fatal("failed to load schedule index", err)
	}

	// Getting routes
	directoryRoutes := routes.NewDirectoryDefault(directoryService)
	bookingRoutes := routes.NewBookingDefault(bookingService)

	engineMetrics := metrics.New("tradebook", prometheus.DefaultRegisterer)
	dispatcher := routes.NewActionDispatcher(directoryService, bookingService, engineMetrics)

	e := echo.New()
	e.Use(middleware.CORS())

	// Agent action interface
	e.POST("/api/actions", dispatcher.Handle)

	// Tradespeople
	e.GET("/api/tradespersons", directoryRoutes.SearchTradespeople)
	e.POST("/api/tradespersons", directoryRoutes.RegisterTradesperson)
	e.GET("/api/tradespersons/:id", directoryRoutes.GetTradesperson)
	e.PATCH("/api/tradespersons/:id", directoryRoutes.UpdateTradesperson)

	// Customers
	e.POST("/api/customers", directoryRoutes.RegisterCustomer)
	e.GET("/api/customers/:id", directoryRoutes.GetCustomer)
	e.GET("/api/customers/:id/bookings/latest", bookingRoutes.GetLatestBooking)

	// Bookings
	e.GET("/api/availability", bookingRoutes.CheckAvailability)
	e.GET("/api/availability/slots", bookingRoutes.ListFreeSlots)
	e.POST("/api/bookings", bookingRoutes.CreateBooking)
	e.GET("/api/bookings/:id", bookingRoutes.GetBooking)
	e.DELETE("/api/bookings/:id", bookingRoutes.CancelBooking)
	e.PATCH("/api/bookings/:id", bookingRoutes.UpdateBooking)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "6060"
	}

	err = e.Start(":" + port)
	if err != nil {
		e.Logger.Fatal(err)
	}
}

// initStore picks the backing store: gorm over sqlite by default, the
// deployment's DynamoDB tables when STORE_BACKEND=dynamodb.
func initStore() (service.CustomerRepository, service.TradespersonRepository, service.BookingRepository, error) {
	if os.Getenv("STORE_BACKEND") == "dynamodb" {
		store, err := dynamo.New(context.Background())
		if err != nil {
			return nil, nil, nil, err
		}
		return store.Customers(), store.Tradespeople(), store.Bookings(), nil
	}

	db, err := sqlite.Init()
	if err != nil {
		return nil, nil, nil, err
	}
	return repository.NewCustomerRepository(db), repository.NewTradespersonRepository(db), repository.NewBookingRepository(db), nil
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
	_ = validate.RegisterValidation("rating", validators.IsRating)
}
