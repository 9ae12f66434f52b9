package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"apikey-store/internal/dto"
	"apikey-store/internal/handler"
	appmw "apikey-store/internal/middleware"
	"apikey-store/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Orders   service.OrderService
	Products service.ProductService
	Users    service.UserService
	Paypal   service.PaypalService
}

type Options struct {
	AdminToken string
	Logger     *slog.Logger
}

type Server struct {
	echo           *echo.Echo
	log            *slog.Logger
	adminToken     string
	orderHandler   *handler.OrderHandler
	productHandler *handler.ProductHandler
	userHandler    *handler.UserHandler
	paypalHandler  *handler.PaypalHandler
}

func NewServer(services Services, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(log)))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		log:            log,
		adminToken:     opts.AdminToken,
		orderHandler:   handler.NewOrderHandler(services.Orders),
		productHandler: handler.NewProductHandler(services.Products),
		userHandler:    handler.NewUserHandler(services.Users),
		paypalHandler:  handler.NewPaypalHandler(services.Paypal),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/products", s.productHandler.GetProducts)
	api.GET("/products/:id", s.productHandler.GetProduct)

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("/email", s.orderHandler.GetOrdersByEmail)
	orders.GET("/summary", s.orderHandler.GetOrderSummary)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PATCH("/:id/status", s.orderHandler.UpdateOrderStatus, appmw.AdminToken(s.adminToken))

	// -------- paypal --------
	paypal := api.Group("/paypal")
	paypal.POST("/order", s.paypalHandler.CreateOrder)
	paypal.POST("/order/:orderID/capture", s.paypalHandler.CaptureOrder)
	paypal.GET("/setup", s.paypalHandler.Setup)

	// -------- users --------
	api.POST("/users", s.userHandler.CreateUser)
	api.GET("/users/:id", s.userHandler.GetUser)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// errorHandler renders every error as {"error": message}. Errors that are not
// *echo.HTTPError become a generic 500.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", code,
				"err", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, &dto.ErrorResponse{Error: msg})
		}
		if writeErr != nil {
			log.Warn("write error response", "err", writeErr)
		}
	}
}

func requestLoggerConfig(log *slog.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				attrs = append(attrs, slog.String("request_id", v.RequestID))
			}

			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}
}
