package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"apikey-store/internal/apikey"
	"apikey-store/internal/dto"
	"apikey-store/internal/model"
	"apikey-store/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order data")
	ErrInvalidStatus = errors.New("invalid payment status")
)

type OrderService interface {
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error)
	CreateOrders(ctx context.Context, reqs []*dto.CreateOrderRequest) ([]*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.PaymentStatus, apiKey string) (*model.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]*model.Order, error)
	SummarizeOrdersByEmail(ctx context.Context, email string) (*dto.OrderSummary, error)
}

const DefaultMaxQuantity = 100

type OrderOptions struct {
	DeferKeyIssuance bool
	DefaultCurrency  string
	// MaxQuantity caps the keys minted for one order. Zero means
	// DefaultMaxQuantity.
	MaxQuantity int
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	keyGen      apikey.Generator
	opts        OrderOptions
	log         *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	keyGen apikey.Generator,
	opts OrderOptions,
	log *slog.Logger,
) OrderService {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantity
	}
	if log == nil {
		log = slog.Default()
	}
	return &orderServiceImpl{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		keyGen:      keyGen,
		opts:        opts,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error) {
	if err := s.checkOrderRequest(req); err != nil {
		return nil, err
	}

	order := s.newOrder(req)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	s.log.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"product_id", order.ProductID,
		"payment_method", order.PaymentMethod,
		"payment_status", order.PaymentStatus,
		"quantity", order.Quantity,
		"keys_issued", order.Credentials.Len(),
	)
	return order, nil
}

// CreateOrders places one order per cart line. Every line is checked before
// the first order is written.
func (s *orderServiceImpl) CreateOrders(ctx context.Context, reqs []*dto.CreateOrderRequest) ([]*model.Order, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty cart", ErrInvalidOrder)
	}
	for i, req := range reqs {
		if err := s.checkOrderRequest(req); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	orders := make([]*model.Order, 0, len(reqs))
	for _, req := range reqs {
		order, err := s.CreateOrder(ctx, req)
		if err != nil {
			return orders, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *orderServiceImpl) newOrder(req *dto.CreateOrderRequest) *model.Order {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	currency := req.Currency
	if currency == "" {
		currency = s.opts.DefaultCurrency
	}

	var link *string
	if req.TransactionLink != nil && *req.TransactionLink != "" {
		l := *req.TransactionLink
		link = &l
	}

	status := req.PaymentMethod.InitialStatus()

	order := &model.Order{
		ID:              s.newID(),
		ProductID:       req.ProductID,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   status,
		TransactionLink: link,
		Amount:          req.Amount,
		Currency:        currency,
		Quantity:        quantity,
		CreatedAt:       s.now(),
	}

	if !s.opts.DeferKeyIssuance || status == model.PaymentCompleted {
		order.Credentials = s.issue(quantity)
	}
	return order
}

func (s *orderServiceImpl) issue(quantity int) model.Credentials {
	keys := make([]string, quantity)
	for i := range keys {
		keys[i] = s.keyGen.Generate()
	}
	return model.IssuedCredentials(keys)
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus replaces the payment status. The stored keys are replaced
// only by a non-empty apiKey; an order completed without any keys gets its
// quantity minted at this point.
func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, id string, status model.PaymentStatus, apiKey string) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	issued := 0
	order, err := s.orderRepo.Update(ctx, id, func(o *model.Order) error {
		o.PaymentStatus = status
		switch {
		case apiKey != "":
			o.Credentials = model.DecodeCredentials(apiKey)
		case status == model.PaymentCompleted && o.Credentials.IsZero():
			quantity := o.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			o.Credentials = s.issue(quantity)
			issued = quantity
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.log.InfoContext(ctx, "order status updated",
		"order_id", order.ID,
		"payment_status", order.PaymentStatus,
		"keys_replaced", apiKey != "",
		"keys_issued", issued,
	)
	return order, nil
}

func (s *orderServiceImpl) GetOrdersByEmail(ctx context.Context, email string) ([]*model.Order, error) {
	orders, err := s.orderRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find orders by email: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) SummarizeOrdersByEmail(ctx context.Context, email string) (*dto.OrderSummary, error) {
	orders, err := s.GetOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	summary := SummarizeOrders(orders, products)
	summary.Email = email
	return summary, nil
}

func (s *orderServiceImpl) checkOrderRequest(req *dto.CreateOrderRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: missing order", ErrInvalidOrder)
	case strings.TrimSpace(req.ProductID) == "":
		return fmt.Errorf("%w: product id is required", ErrInvalidOrder)
	case strings.TrimSpace(req.CustomerEmail) == "":
		return fmt.Errorf("%w: customer email is required", ErrInvalidOrder)
	case strings.TrimSpace(req.CustomerName) == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	case !req.PaymentMethod.Valid():
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, req.PaymentMethod)
	case req.Amount < 0:
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidOrder)
	case req.Quantity > s.opts.MaxQuantity:
		return fmt.Errorf("%w: quantity %d exceeds %d", ErrInvalidOrder, req.Quantity, s.opts.MaxQuantity)
	}
	return nil
}
