package handler

import (
	"errors"
	"net/http"

	"apikey-store/internal/client"
	"apikey-store/internal/dto"
	"apikey-store/internal/service"

	"github.com/labstack/echo/v4"
)

type PaypalHandler struct {
	paypalService service.PaypalService
}

func NewPaypalHandler(paypalService service.PaypalService) *PaypalHandler {
	return &PaypalHandler{
		paypalService: paypalService,
	}
}

// CreateOrder relays PayPal's response, status code included.
func (h *PaypalHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PaypalOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload").SetInternal(err)
	}

	resp, err := h.paypalService.CreateOrder(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaypalNotConfigured):
			return paypalNotConfigured()
		case errors.Is(err, service.ErrInvalidAmount):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount. Amount must be a positive number.")
		case errors.Is(err, service.ErrMissingCurrency):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid currency. Currency is required.")
		case errors.Is(err, service.ErrMissingIntent):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid intent. Intent is required.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create order.").SetInternal(err)
	}

	return relay(c, resp)
}

func (h *PaypalHandler) CaptureOrder(c echo.Context) error {
	ctx := c.Request().Context()

	resp, err := h.paypalService.CaptureOrder(ctx, c.Param("orderID"))
	if err != nil {
		if errors.Is(err, service.ErrPaypalNotConfigured) {
			return paypalNotConfigured()
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to capture order.").SetInternal(err)
	}

	return relay(c, resp)
}

func (h *PaypalHandler) Setup(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := h.paypalService.ClientToken(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to initialize PayPal").SetInternal(err)
	}

	return c.JSON(http.StatusOK, &dto.PaypalSetupResponse{
		ClientToken: token,
	})
}

func relay(c echo.Context, resp *client.PaypalResponse) error {
	return c.JSONBlob(resp.StatusCode, resp.Body)
}

func paypalNotConfigured() error {
	return echo.NewHTTPError(http.StatusServiceUnavailable,
		"PayPal not configured. Please add PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET.")
}
