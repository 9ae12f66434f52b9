package handler

import (
	"errors"
	"net/http"

	"apikey-store/internal/dto"
	"apikey-store/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user data").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user data").SetInternal(err)
	}

	user, err := h.userService.CreateUser(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, "Username already exists")
		case errors.Is(err, service.ErrInvalidAccount):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user data")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user").SetInternal(err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.GetUser(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user").SetInternal(err)
	}

	return c.JSON(http.StatusOK, user)
}
