package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"tradebook/cmd/internal/service"
	"tradebook/cmd/internal/utils"
	"tradebook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type DirectoryService interface {
	SearchTradespeople(req *service.SearchRequest) ([]*service.TradespersonResponse, apierror.ErrorResponse)
	GetTradesperson(id string) (*service.TradespersonResponse, apierror.ErrorResponse)
	RegisterTradesperson(req *service.RegisterTradespersonRequest) (*service.TradespersonResponse, apierror.ErrorResponse)
	UpdateTradesperson(id string, req *service.UpdateTradespersonRequest) (*service.TradespersonResponse, apierror.ErrorResponse)
	RegisterCustomer(req *service.RegisterCustomerRequest, callerID string) (*service.CustomerResponse, apierror.ErrorResponse)
	GetCustomer(id string) (*service.CustomerResponse, apierror.ErrorResponse)
}

type DefaultDirectoryRoute struct {
	DirectoryService DirectoryService
}

func NewDirectoryDefault(directoryService DirectoryService) *DefaultDirectoryRoute {
	return &DefaultDirectoryRoute{DirectoryService: directoryService}
}

func (d *DefaultDirectoryRoute) SearchTradespeople(c echo.Context) error {
	req := &service.SearchRequest{
		Trade: c.QueryParam("trade"),
		City:  c.QueryParam("city"),
	}

	if raw := c.QueryParam("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errResp := apierror.NewSimple(400, "minRating is not a number")
			return c.JSON(errResp.Code(), errResp)
		}
		req.MinRating = minRating
	}

	tps, apierr := d.DirectoryService.SearchTradespeople(req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"tradesPersons": tps, "count": len(tps)}
	return c.JSON(http.StatusOK, &resp)
}

func (d *DefaultDirectoryRoute) GetTradesperson(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	tp, apierr := d.DirectoryService.GetTradesperson(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tp)
}

func (d *DefaultDirectoryRoute) RegisterTradesperson(c echo.Context) error {
	var req service.RegisterTradespersonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	tp, apierr := d.DirectoryService.RegisterTradesperson(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, tp)
}

func (d *DefaultDirectoryRoute) UpdateTradesperson(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req service.UpdateTradespersonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	tp, apierr := d.DirectoryService.UpdateTradesperson(id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tp)
}

func (d *DefaultDirectoryRoute) RegisterCustomer(c echo.Context) error {
	var req service.RegisterCustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	callerID, err := callerFromCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	customer, apierr := d.DirectoryService.RegisterCustomer(&req, callerID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (d *DefaultDirectoryRoute) GetCustomer(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	customer, apierr := d.DirectoryService.GetCustomer(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, customer)
}

// callerFromCtx resolves the caller identity from the bridge token.
// An absent token means an anonymous caller, not a rejected one.
func callerFromCtx(c echo.Context) (string, error) {
	data, err := utils.ParseTokenDataCtx(c)
	if errors.Is(err, utils.ErrNoToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return data.PhoneNumber, nil
}
