package routes

import (
	"net/http"
	"strings"
	"tradebook/cmd/internal/service"
	"tradebook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type BookingService interface {
	CheckAvailability(req *service.CheckAvailabilityRequest) (*service.AvailabilityResponse, apierror.ErrorResponse)
	ListFreeSlots(req *service.ListFreeSlotsRequest) (*service.FreeSlotsResponse, apierror.ErrorResponse)
	CreateBooking(req *service.CreateBookingRequest) (*service.BookingResponse, apierror.ErrorResponse)
	GetBooking(id string) (*service.BookingResponse, apierror.ErrorResponse)
	GetLatestBooking(customerID string) (*service.BookingResponse, apierror.ErrorResponse)
	CancelBooking(id string) (*service.BookingResponse, apierror.ErrorResponse)
	RescheduleBooking(id string, req *service.RescheduleBookingRequest) (*service.BookingResponse, apierror.ErrorResponse)
}

type DefaultBookingRoute struct {
	BookingService BookingService
}

func NewBookingDefault(bookingService BookingService) *DefaultBookingRoute {
	return &DefaultBookingRoute{BookingService: bookingService}
}

func (b *DefaultBookingRoute) CheckAvailability(c echo.Context) error {
	req := &service.CheckAvailabilityRequest{
		TradespersonID: c.QueryParam("tradesPersonId"),
		Slot:           c.QueryParam("slot"),
	}

	availability, apierr := b.BookingService.CheckAvailability(req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, availability)
}

func (b *DefaultBookingRoute) ListFreeSlots(c echo.Context) error {
	req := &service.ListFreeSlotsRequest{
		TradespersonID: c.QueryParam("tradesPersonId"),
		StartSlot:      c.QueryParam("startSlot"),
		EndSlot:        c.QueryParam("endSlot"),
	}

	slots, apierr := b.BookingService.ListFreeSlots(req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, slots)
}

func (b *DefaultBookingRoute) CreateBooking(c echo.Context) error {
	var req service.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	callerID, err := callerFromCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}
	if req.CustomerID == "" {
		req.CustomerID = callerID
	}

	booking, apierr := b.BookingService.CreateBooking(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, booking)
}

func (b *DefaultBookingRoute) GetBooking(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	booking, apierr := b.BookingService.GetBooking(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) GetLatestBooking(c echo.Context) error {
	customerID := strings.TrimSpace(c.Param("id"))
	if customerID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	booking, apierr := b.BookingService.GetLatestBooking(customerID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) CancelBooking(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	booking, apierr := b.BookingService.CancelBooking(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) UpdateBooking(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req service.RescheduleBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	booking, apierr := b.BookingService.RescheduleBooking(id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}
