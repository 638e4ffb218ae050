package service

import (
	"strings"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/utils"
	"tradebook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type TradespersonRepository interface {
	FindByID(id string) (*entity.Tradesperson, error)
	FindByTrade(trade, city string, minRating float64) ([]*entity.Tradesperson, error)
	Save(tp *entity.Tradesperson) error
}

type CustomerRepository interface {
	FindByID(id string) (*entity.Customer, error)
	Save(customer *entity.Customer) error
}

type SearchRequest struct {
	Trade     string  `json:"trade" validate:"required,min=2,max=64"`
	City      string  `json:"city" validate:"required,min=2,max=64"`
	MinRating float64 `json:"minRating" validate:"rating"`
}

type RegisterTradespersonRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=80"`
	Trade         string  `json:"trade" validate:"required,min=2,max=64"`
	City          string  `json:"city" validate:"required,min=2,max=64"`
	Rating        float64 `json:"rating" validate:"rating"`
	HourlyRate    float64 `json:"hourlyRate" validate:"gte=0"`
	ContactNumber string  `json:"contactNumber" validate:"max=32"`
}

type UpdateTradespersonRequest struct {
	Rating *float64 `json:"rating"`
	Active *bool    `json:"active"`
}

type RegisterCustomerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=80"`
	City string `json:"city" validate:"required,min=2,max=64"`
}

type TradespersonResponse struct {
	ID            string  `json:"tradesPersonId"`
	Name          string  `json:"name"`
	Trade         string  `json:"trade"`
	City          string  `json:"city"`
	Rating        float64 `json:"rating"`
	HourlyRate    float64 `json:"hourlyRate"`
	ContactNumber string  `json:"contactNumber"`
	Active        bool    `json:"active"`
}

type CustomerResponse struct {
	ID        string `json:"customerId"`
	Name      string `json:"name"`
	City      string `json:"city"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DefaultDirectoryService struct {
	TradespersonRepo TradespersonRepository
	CustomerRepo     CustomerRepository
	Validate         *validator.Validate
}

func NewDirectoryService(tpRepo TradespersonRepository, customerRepo CustomerRepository, validate *validator.Validate) *DefaultDirectoryService {
	return &DefaultDirectoryService{TradespersonRepo: tpRepo, CustomerRepo: customerRepo, Validate: validate}
}

// SearchTradespeople returns active tradespeople for the trade and
// city, best-rated first. Zero matches is a valid, empty result.
func (d *DefaultDirectoryService) SearchTradespeople(req *SearchRequest) ([]*TradespersonResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := d.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	tps, err := d.TradespersonRepo.FindByTrade(req.Trade, req.City, req.MinRating)
	if err != nil {
		log.Errorf("failed to search tradespeople (%s, %s): %v", req.Trade, req.City, err)
		return nil, apierror.StorageUnavailableError
	}

	resp := make([]*TradespersonResponse, len(tps))
	for i, tp := range tps {
		resp[i] = toTradespersonResponse(tp)
	}
	return resp, nil
}

func (d *DefaultDirectoryService) GetTradesperson(id string) (*TradespersonResponse, apierror.ErrorResponse) {
	tp, apierr := d.fetchActiveTradesperson(id)
	if apierr != nil {
		return nil, apierr
	}
	return toTradespersonResponse(tp), nil
}

func (d *DefaultDirectoryService) RegisterTradesperson(req *RegisterTradespersonRequest) (*TradespersonResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := d.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	now := utils.NowUTC()
	tp := &entity.Tradesperson{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Trade:         strings.ToLower(req.Trade),
		City:          strings.ToLower(req.City),
		Rating:        req.Rating,
		HourlyRate:    req.HourlyRate,
		ContactNumber: req.ContactNumber,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := d.TradespersonRepo.Save(tp); err != nil {
		log.Errorf("failed to save tradesperson %s: %v", tp.ID, err)
		return nil, apierror.StorageUnavailableError
	}
	return toTradespersonResponse(tp), nil
}

// UpdateTradesperson changes rating and/or the active flag; all other
// tradesperson fields are immutable after registration.
func (d *DefaultDirectoryService) UpdateTradesperson(id string, req *UpdateTradespersonRequest) (*TradespersonResponse, apierror.ErrorResponse) {
	tp, err := d.TradespersonRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch tradesperson %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if tp == nil {
		return nil, apierror.NewNotFoundError("Tradesperson")
	}

	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			return nil, apierror.New(400, apierror.CodeInvalidInput, "Rating must be between 0 and 5")
		}
		tp.Rating = *req.Rating
	}
	if req.Active != nil {
		tp.Active = *req.Active
	}
	tp.UpdatedAt = utils.NowUTC()

	if err := d.TradespersonRepo.Save(tp); err != nil {
		log.Errorf("failed to update tradesperson %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	return toTradespersonResponse(tp), nil
}

// RegisterCustomer creates or refreshes the caller's directory entry.
// The voice bridge asserts the caller's phone number, which doubles as
// the customer id; callers without one get a generated id.
func (d *DefaultDirectoryService) RegisterCustomer(req *RegisterCustomerRequest, callerID string) (*CustomerResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := d.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	id := callerID
	if id == "" {
		id = uuid.NewString()
	}

	now := utils.NowUTC()
	customer := &entity.Customer{ID: id, Name: req.Name, City: req.City, CreatedAt: now, UpdatedAt: now}

	existing, err := d.CustomerRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch customer %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if existing != nil {
		// Re-registration updates name and city.
		customer.CreatedAt = existing.CreatedAt
	}

	if err := d.CustomerRepo.Save(customer); err != nil {
		log.Errorf("failed to save customer %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	return toCustomerResponse(customer), nil
}

func (d *DefaultDirectoryService) GetCustomer(id string) (*CustomerResponse, apierror.ErrorResponse) {
	customer, err := d.CustomerRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch customer %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if customer == nil {
		return nil, apierror.NewNotFoundError("Customer")
	}
	return toCustomerResponse(customer), nil
}

func (d *DefaultDirectoryService) fetchActiveTradesperson(id string) (*entity.Tradesperson, apierror.ErrorResponse) {
	tp, err := d.TradespersonRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch tradesperson %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if tp == nil || !tp.Active {
		return nil, apierror.NewNotFoundError("Tradesperson")
	}
	return tp, nil
}

func toTradespersonResponse(tp *entity.Tradesperson) *TradespersonResponse {
	return &TradespersonResponse{
		ID:            tp.ID,
		Name:          tp.Name,
		Trade:         tp.Trade,
		City:          tp.City,
		Rating:        tp.Rating,
		HourlyRate:    tp.HourlyRate,
		ContactNumber: tp.ContactNumber,
		Active:        tp.Active,
	}
}

func toCustomerResponse(customer *entity.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		City:      customer.City,
		CreatedAt: utils.FormatEpoch(customer.CreatedAt),
		UpdatedAt: utils.FormatEpoch(customer.UpdatedAt),
	}
}
