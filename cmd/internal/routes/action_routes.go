package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"tradebook/cmd/internal/metrics"
	"tradebook/cmd/internal/service"
	"tradebook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

// ActionRequest is the structured action call forwarded by the agent:
// an action name plus flat string parameters, the same shape the voice
// bridge extracts from the conversation.
type ActionRequest struct {
	Action     string            `json:"action"`
	Parameters map[string]string `json:"parameters"`
}

type ActionResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

type actionFunc func(callerID string, params map[string]string) (any, apierror.ErrorResponse)

// ActionDispatcher maps action names onto the directory and booking
// services and normalizes every outcome into the response envelope.
// It holds no state of its own.
type ActionDispatcher struct {
	table   map[string]actionFunc
	metrics *metrics.Metrics
}

func NewActionDispatcher(directory DirectoryService, bookings BookingService, m *metrics.Metrics) *ActionDispatcher {
	d := &ActionDispatcher{metrics: m}

	d.table = map[string]actionFunc{
		"search": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			req := &service.SearchRequest{Trade: params["trade"], City: params["city"]}
			if raw := params["minRating"]; raw != "" {
				minRating, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, apierror.NewSimple(400, "minRating is not a number")
				}
				req.MinRating = minRating
			}

			tps, apierr := directory.SearchTradespeople(req)
			if apierr != nil {
				return nil, apierr
			}
			return echo.Map{"tradesPersons": tps, "count": len(tps)}, nil
		},

		"check-availability": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			return bookings.CheckAvailability(&service.CheckAvailabilityRequest{
				TradespersonID: params["tradesPersonId"],
				Slot:           params["slot"],
			})
		},

		"list-free-slots": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			return bookings.ListFreeSlots(&service.ListFreeSlotsRequest{
				TradespersonID: params["tradesPersonId"],
				StartSlot:      params["startSlot"],
				EndSlot:        params["endSlot"],
			})
		},

		"create-booking": func(callerID string, params map[string]string) (any, apierror.ErrorResponse) {
			customerID := params["customerId"]
			if customerID == "" {
				customerID = callerID
			}
			return bookings.CreateBooking(&service.CreateBookingRequest{
				CustomerID:     customerID,
				TradespersonID: params["tradesPersonId"],
				Slot:           params["slot"],
				Description:    params["description"],
			})
		},

		"get-booking": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			if params["bookingId"] == "" {
				return nil, apierror.NewMissingParamError("bookingId")
			}
			return bookings.GetBooking(params["bookingId"])
		},

		"get-latest-booking": func(callerID string, params map[string]string) (any, apierror.ErrorResponse) {
			customerID := params["customerId"]
			if customerID == "" {
				customerID = callerID
			}
			if customerID == "" {
				return nil, apierror.NewMissingParamError("customerId")
			}
			return bookings.GetLatestBooking(customerID)
		},

		"register-customer": func(callerID string, params map[string]string) (any, apierror.ErrorResponse) {
			return directory.RegisterCustomer(&service.RegisterCustomerRequest{
				Name: params["name"],
				City: params["city"],
			}, callerID)
		},

		"get-customer-details": func(callerID string, params map[string]string) (any, apierror.ErrorResponse) {
			customerID := params["customerId"]
			if customerID == "" {
				customerID = callerID
			}
			if customerID == "" {
				return nil, apierror.NewMissingParamError("customerId")
			}
			return directory.GetCustomer(customerID)
		},

		"cancel-booking": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			if params["bookingId"] == "" {
				return nil, apierror.NewMissingParamError("bookingId")
			}
			return bookings.CancelBooking(params["bookingId"])
		},

		// update-booking always needs an explicit bookingId; it never
		// guesses the caller's latest booking.
		"update-booking": func(_ string, params map[string]string) (any, apierror.ErrorResponse) {
			if params["bookingId"] == "" {
				return nil, apierror.NewMissingParamError("bookingId")
			}
			return bookings.RescheduleBooking(params["bookingId"], &service.RescheduleBookingRequest{
				NewSlot: params["newSlot"],
			})
		},

		// Helps the agent resolve relative dates ("tomorrow at ten").
		"get-current-datetime": func(_ string, _ map[string]string) (any, apierror.ErrorResponse) {
			now := time.Now().UTC()
			return echo.Map{
				"currentDateTime":  now.Format(time.RFC3339),
				"currentTimestamp": now.Unix(),
				"formattedDate":    now.Format("Monday, January 2, 2006, 3:04 PM MST"),
			}, nil
		},
	}

	return d
}

func (d *ActionDispatcher) Handle(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failureEnvelope(apierror.MalformedBodyError))
	}

	callerID, err := callerFromCtx(c)
	if err != nil {
		return c.JSON(401, failureEnvelope(apierror.InvalidAuthTokenError))
	}

	fn, ok := d.table[req.Action]
	if !ok {
		apierr := apierror.NewSimple(400, fmt.Sprintf("Unsupported action: %s", req.Action))
		return c.JSON(apierr.Code(), failureEnvelope(apierr))
	}

	started := time.Now()
	data, apierr := fn(callerID, req.Parameters)
	d.observe(req.Action, apierr, time.Since(started))

	if apierr != nil {
		return c.JSON(apierr.Code(), failureEnvelope(apierr))
	}
	return c.JSON(http.StatusOK, &ActionResponse{Success: true, Data: data})
}

func (d *ActionDispatcher) observe(action string, apierr apierror.ErrorResponse, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}

	d.metrics.ActionsTotal.WithLabelValues(action).Inc()
	d.metrics.ActionDuration.Observe(elapsed.Seconds())
	if apierr != nil {
		d.metrics.ActionErrors.WithLabelValues(action, apierr.ErrorCode()).Inc()
		if apierr.ErrorCode() == apierror.CodeSlotConflict {
			d.metrics.SlotConflicts.Inc()
		}
	}
}

func failureEnvelope(apierr apierror.ErrorResponse) *ActionResponse {
	return &ActionResponse{
		Success:   false,
		ErrorCode: apierr.ErrorCode(),
		Message:   apierr.Message(),
	}
}
