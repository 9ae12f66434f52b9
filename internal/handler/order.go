package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"apikey-store/internal/dto"
	"apikey-store/internal/service"

	"github.com/labstack/echo/v4"
)

const maxOrderBody = 1 << 20

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder accepts a single order or an array of cart lines. For an array
// one order is placed per line and the first one is returned.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxOrderBody))
	if err != nil {
		return invalidOrder(err)
	}
	body = bytes.TrimSpace(body)

	if bytes.HasPrefix(body, []byte("[")) {
		var reqs []*dto.CreateOrderRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return invalidOrder(err)
		}
		if len(reqs) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid order data")
		}
		for _, req := range reqs {
			if err := c.Validate(req); err != nil {
				return invalidOrder(err)
			}
		}

		orders, err := h.orderService.CreateOrders(ctx, reqs)
		if err != nil {
			return orderError(err)
		}
		return c.JSON(http.StatusCreated, orders[0])
	}

	var req dto.CreateOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return invalidOrder(err)
	}
	if err := c.Validate(&req); err != nil {
		return invalidOrder(err)
	}

	order, err := h.orderService.CreateOrder(ctx, &req)
	if err != nil {
		return orderError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch order").SetInternal(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status update").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status update").SetInternal(err)
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, c.Param("id"), req.Status, req.APIKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status update").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update order").SetInternal(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrdersByEmail(c echo.Context) error {
	ctx := c.Request().Context()

	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email parameter is required")
	}

	orders, err := h.orderService.GetOrdersByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch orders").SetInternal(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderSummary(c echo.Context) error {
	ctx := c.Request().Context()

	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email parameter is required")
	}

	summary, err := h.orderService.SummarizeOrdersByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch orders").SetInternal(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func invalidOrder(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid order data").SetInternal(err)
}

func orderError(err error) error {
	if errors.Is(err, service.ErrInvalidOrder) {
		return invalidOrder(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create order").SetInternal(err)
}
