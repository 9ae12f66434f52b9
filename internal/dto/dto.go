package dto

import (
	"encoding/json"

	"apikey-store/internal/model"
)

// CreateOrderRequest is one checkout line. Quantity defaults to 1 when absent
// or not positive, Currency to the configured default.
type CreateOrderRequest struct {
	ProductID       string              `json:"productId" validate:"required"`
	CustomerEmail   string              `json:"customerEmail" validate:"required,email"`
	CustomerName    string              `json:"customerName" validate:"required,min=2"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod" validate:"required,payment_method"`
	TransactionLink *string             `json:"transactionLink"`
	Amount          int64               `json:"amount" validate:"gte=0"`
	Currency        string              `json:"currency" validate:"omitempty,len=3"`
	Quantity        int                 `json:"quantity"`
}

type UpdateOrderStatusRequest struct {
	Status model.PaymentStatus `json:"status" validate:"required,payment_status"`
	APIKey string              `json:"apiKey"`
}

type OrderKeys struct {
	Order *model.Order `json:"order"`
	Keys  []string     `json:"keys"`
}

type ProductGroup struct {
	ProductID   string      `json:"productId"`
	ProductName string      `json:"productName"`
	Orders      []OrderKeys `json:"orders"`
	TotalKeys   int         `json:"totalKeys"`
	TotalAmount int64       `json:"totalAmount"`
}

type OrderSummary struct {
	Email       string          `json:"email"`
	OrderCount  int             `json:"orderCount"`
	Groups      []*ProductGroup `json:"groups"`
	TotalKeys   int             `json:"totalKeys"`
	TotalAmount int64           `json:"totalAmount"`
	Currency    string          `json:"currency"`
}

// PaypalOrderRequest accepts the amount as a JSON number or a numeric string.
type PaypalOrderRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
	Intent   string          `json:"intent"`
}

type PaypalSetupResponse struct {
	ClientToken string `json:"clientToken"`
}

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=128"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
