package service

import (
	"errors"
	"tradebook/cmd/internal/domain"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/schedule"
	"tradebook/cmd/internal/utils"
	"tradebook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type BookingRepository interface {
	FindByID(id string) (*entity.Booking, error)
	FindAllConfirmed() ([]*entity.Booking, error)
	FindLatestByCustomer(customerID string) (*entity.Booking, error)
	CreateIfFree(booking *entity.Booking) error
	UpdateSlotIfFree(booking *entity.Booking, newStart, newEnd int64) error
	Cancel(booking *entity.Booking) error
}

type CheckAvailabilityRequest struct {
	TradespersonID string `json:"tradesPersonId" validate:"required"`
	Slot           string `json:"slot" validate:"required,iso8601"`
}

type ListFreeSlotsRequest struct {
	TradespersonID string `json:"tradesPersonId" validate:"required"`
	StartSlot      string `json:"startSlot" validate:"required,iso8601"`
	EndSlot        string `json:"endSlot" validate:"required,iso8601"`
}

type CreateBookingRequest struct {
	CustomerID     string `json:"customerId" validate:"required"`
	TradespersonID string `json:"tradesPersonId" validate:"required"`
	Slot           string `json:"slot" validate:"required,iso8601"`
	Description    string `json:"description" validate:"max=512"`
}

type RescheduleBookingRequest struct {
	NewSlot string `json:"newSlot" validate:"required,iso8601"`
}

type AvailabilityResponse struct {
	Available            bool   `json:"available"`
	ConflictingBookingID string `json:"conflictingBookingId,omitempty"`
}

type FreeSlotsResponse struct {
	AvailableTimeSlots []string `json:"availableTimeSlots"`
}

type BookingResponse struct {
	ID             string `json:"bookingId"`
	CustomerID     string `json:"customerId"`
	TradespersonID string `json:"tradesPersonId"`
	Slot           string `json:"slot"`
	SlotEnd        string `json:"slotEnd"`
	Status         string `json:"status"`
	Description    string `json:"description,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// DefaultBookingService is the booking ledger: every mutation runs the
// check-availability-then-reserve sequence under the tradesperson's
// lock, and the store re-checks the overlap inside its own write
// transaction. The schedule index mirrors the ledger's confirmed slots.
type DefaultBookingService struct {
	BookingRepo      BookingRepository
	CustomerRepo     CustomerRepository
	TradespersonRepo TradespersonRepository
	Index            *schedule.Index
	Locks            *schedule.Locker
	Validate         *validator.Validate
}

func NewBookingService(bookingRepo BookingRepository, customerRepo CustomerRepository, tpRepo TradespersonRepository, index *schedule.Index, locks *schedule.Locker, validate *validator.Validate) *DefaultBookingService {
	return &DefaultBookingService{
		BookingRepo:      bookingRepo,
		CustomerRepo:     customerRepo,
		TradespersonRepo: tpRepo,
		Index:            index,
		Locks:            locks,
		Validate:         validate,
	}
}

// LoadSchedule rebuilds the schedule index from the ledger's confirmed
// bookings. Called once at startup; afterwards the index is maintained
// incrementally.
func (b *DefaultBookingService) LoadSchedule() error {
	bookings, err := b.BookingRepo.FindAllConfirmed()
	if err != nil {
		return err
	}

	byTradesperson := make(map[string][]schedule.Entry)
	for _, booking := range bookings {
		byTradesperson[booking.TradespersonID] = append(byTradesperson[booking.TradespersonID], schedule.Entry{
			Start:     booking.SlotStart,
			End:       booking.SlotEnd,
			BookingID: booking.ID,
		})
	}
	b.Index.Rebuild(byTradesperson)
	return nil
}

func (b *DefaultBookingService) CheckAvailability(req *CheckAvailabilityRequest) (*AvailabilityResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if apierr := b.tradespersonExists(req.TradespersonID); apierr != nil {
		return nil, apierr
	}

	start, err := utils.FromEpoch(req.Slot)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}
	if !utils.IsHourExact(start) {
		return nil, apierror.HourNotExactError
	}

	conflictID, free := b.Index.Conflicting(req.TradespersonID, start, utils.SlotEnd(start))
	return &AvailabilityResponse{Available: free, ConflictingBookingID: conflictID}, nil
}

// ListFreeSlots walks the hourly slots in [startSlot, endSlot) and
// returns the free ones, the shape the voice flow reads out to the
// caller.
func (b *DefaultBookingService) ListFreeSlots(req *ListFreeSlotsRequest) (*FreeSlotsResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if apierr := b.tradespersonExists(req.TradespersonID); apierr != nil {
		return nil, apierr
	}

	start, err := utils.FromEpoch(req.StartSlot)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}
	end, err := utils.FromEpoch(req.EndSlot)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}
	if end <= start {
		return nil, apierror.New(400, apierror.CodeInvalidInput, "endSlot must be after startSlot")
	}

	// Round up to the next exact hour.
	if !utils.IsHourExact(start) {
		start = start - start%utils.SlotDurationMillis + utils.SlotDurationMillis
	}

	free := make([]string, 0)
	for t := start; t+utils.SlotDurationMillis <= end; t += utils.SlotDurationMillis {
		if b.Index.IsFree(req.TradespersonID, t, utils.SlotEnd(t)) {
			free = append(free, utils.FormatEpoch(t))
		}
	}
	return &FreeSlotsResponse{AvailableTimeSlots: free}, nil
}

func (b *DefaultBookingService) CreateBooking(req *CreateBookingRequest) (*BookingResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	customer, err := b.CustomerRepo.FindByID(req.CustomerID)
	if err != nil {
		log.Errorf("failed to fetch customer %s: %v", req.CustomerID, err)
		return nil, apierror.StorageUnavailableError
	}
	if customer == nil {
		return nil, apierror.NewNotFoundError("Customer")
	}

	if apierr := b.tradespersonExists(req.TradespersonID); apierr != nil {
		return nil, apierr
	}

	start, end, apierr := parseFutureSlot(req.Slot)
	if apierr != nil {
		return nil, apierr
	}

	b.Locks.Lock(req.TradespersonID)
	defer b.Locks.Unlock(req.TradespersonID)

	if _, free := b.Index.Conflicting(req.TradespersonID, start, end); !free {
		return nil, apierror.SlotConflictError
	}

	now := utils.NowUTC()
	booking := &entity.Booking{
		ID:             uuid.NewString(),
		CustomerID:     req.CustomerID,
		TradespersonID: req.TradespersonID,
		SlotStart:      start,
		SlotEnd:        end,
		Status:         entity.BookingStatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Description != "" {
		booking.Description = &req.Description
	}

	if err := b.BookingRepo.CreateIfFree(booking); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, apierror.SlotConflictError
		}
		log.Errorf("failed to create booking for tradesperson %s: %v", req.TradespersonID, err)
		return nil, apierror.StorageUnavailableError
	}

	b.Index.Reserve(req.TradespersonID, schedule.Entry{Start: start, End: end, BookingID: booking.ID})
	return toBookingResponse(booking), nil
}

func (b *DefaultBookingService) GetBooking(id string) (*BookingResponse, apierror.ErrorResponse) {
	booking, err := b.BookingRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch booking %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if booking == nil {
		return nil, apierror.NewNotFoundError("Booking")
	}
	return toBookingResponse(booking), nil
}

func (b *DefaultBookingService) GetLatestBooking(customerID string) (*BookingResponse, apierror.ErrorResponse) {
	booking, err := b.BookingRepo.FindLatestByCustomer(customerID)
	if err != nil {
		log.Errorf("failed to fetch latest booking for customer %s: %v", customerID, err)
		return nil, apierror.StorageUnavailableError
	}
	if booking == nil {
		return nil, apierror.NewNotFoundError("Booking")
	}
	return toBookingResponse(booking), nil
}

func (b *DefaultBookingService) CancelBooking(id string) (*BookingResponse, apierror.ErrorResponse) {
	booking, apierr := b.fetchBooking(id)
	if apierr != nil {
		return nil, apierr
	}

	b.Locks.Lock(booking.TradespersonID)
	defer b.Locks.Unlock(booking.TradespersonID)

	// Re-read under the lock: a concurrent cancel may have won.
	booking, apierr = b.fetchBooking(id)
	if apierr != nil {
		return nil, apierr
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, apierror.AlreadyCancelledError
	}

	if err := b.BookingRepo.Cancel(booking); err != nil {
		log.Errorf("failed to cancel booking %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}

	b.Index.Release(booking.TradespersonID, booking.ID)
	return toBookingResponse(booking), nil
}

// RescheduleBooking moves a confirmed booking to a new slot. Release
// of the old slot and reserve of the new one happen as one unit under
// the tradesperson lock; on conflict the booking keeps its slot.
func (b *DefaultBookingService) RescheduleBooking(id string, req *RescheduleBookingRequest) (*BookingResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	booking, apierr := b.fetchBooking(id)
	if apierr != nil {
		return nil, apierr
	}

	start, end, apierr := parseFutureSlot(req.NewSlot)
	if apierr != nil {
		return nil, apierr
	}

	b.Locks.Lock(booking.TradespersonID)
	defer b.Locks.Unlock(booking.TradespersonID)

	booking, apierr = b.fetchBooking(id)
	if apierr != nil {
		return nil, apierr
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, apierror.New(400, apierror.CodeInvalidInput, "Cannot reschedule a cancelled booking")
	}

	// The booking's own slot does not conflict with itself.
	if conflictID, free := b.Index.Conflicting(booking.TradespersonID, start, end); !free && conflictID != booking.ID {
		return nil, apierror.SlotConflictError
	}

	if err := b.BookingRepo.UpdateSlotIfFree(booking, start, end); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, apierror.SlotConflictError
		}
		log.Errorf("failed to reschedule booking %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}

	b.Index.Release(booking.TradespersonID, booking.ID)
	b.Index.Reserve(booking.TradespersonID, schedule.Entry{Start: start, End: end, BookingID: booking.ID})
	return toBookingResponse(booking), nil
}

func (b *DefaultBookingService) tradespersonExists(id string) apierror.ErrorResponse {
	tp, err := b.TradespersonRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch tradesperson %s: %v", id, err)
		return apierror.StorageUnavailableError
	}
	if tp == nil || !tp.Active {
		return apierror.NewNotFoundError("Tradesperson")
	}
	return nil
}

func (b *DefaultBookingService) fetchBooking(id string) (*entity.Booking, apierror.ErrorResponse) {
	booking, err := b.BookingRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch booking %s: %v", id, err)
		return nil, apierror.StorageUnavailableError
	}
	if booking == nil {
		return nil, apierror.NewNotFoundError("Booking")
	}
	return booking, nil
}

func parseFutureSlot(slot string) (start, end int64, apierr apierror.ErrorResponse) {
	begin, err := utils.FromEpoch(slot)
	if err != nil {
		return 0, 0, apierror.MalformedBodyError
	}
	if !utils.IsHourExact(begin) {
		return 0, 0, apierror.HourNotExactError
	}
	if begin <= utils.NowUTC() {
		return 0, 0, apierror.SlotInPastError
	}
	return begin, utils.SlotEnd(begin), nil
}

func toBookingResponse(booking *entity.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:             booking.ID,
		CustomerID:     booking.CustomerID,
		TradespersonID: booking.TradespersonID,
		Slot:           utils.FormatEpoch(booking.SlotStart),
		SlotEnd:        utils.FormatEpoch(booking.SlotEnd),
		Status:         booking.Status,
		CreatedAt:      utils.FormatEpoch(booking.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(booking.UpdatedAt),
	}
	if booking.Description != nil {
		resp.Description = *booking.Description
	}
	return resp
}
