package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"apikey-store/internal/client"
	"apikey-store/internal/dto"
	"apikey-store/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrPaypalNotConfigured = errors.New("paypal not configured")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrMissingCurrency     = errors.New("currency is required")
	ErrMissingIntent       = errors.New("intent is required")
)

type PaypalService interface {
	CreateOrder(ctx context.Context, req *dto.PaypalOrderRequest) (*client.PaypalResponse, error)
	CaptureOrder(ctx context.Context, orderID string) (*client.PaypalResponse, error)
	ClientToken(ctx context.Context) (string, error)
}

type paypalServiceImpl struct {
	paypalClient client.PaypalClient
	log          *slog.Logger
}

// NewPaypalService accepts a nil client when PayPal is not configured; every
// call then fails with ErrPaypalNotConfigured.
func NewPaypalService(paypalClient client.PaypalClient, log *slog.Logger) PaypalService {
	if log == nil {
		log = slog.Default()
	}
	return &paypalServiceImpl{
		paypalClient: paypalClient,
		log:          log,
	}
}

func (s *paypalServiceImpl) CreateOrder(ctx context.Context, req *dto.PaypalOrderRequest) (*client.PaypalResponse, error) {
	if s.paypalClient == nil {
		return nil, ErrPaypalNotConfigured
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, ErrMissingCurrency
	}
	if strings.TrimSpace(req.Intent) == "" {
		return nil, ErrMissingIntent
	}

	resp, err := s.paypalClient.CreateOrder(ctx, &client.PaypalCreateOrderRequest{
		Intent: req.Intent,
		PurchaseUnits: []client.PaypalPurchaseUnit{
			{
				Amount: client.PaypalAmount{
					CurrencyCode: req.Currency,
					Value:        amount.String(),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}
	s.logResponse(ctx, "paypal order created", resp)
	return resp, nil
}

func (s *paypalServiceImpl) CaptureOrder(ctx context.Context, orderID string) (*client.PaypalResponse, error) {
	if s.paypalClient == nil {
		return nil, ErrPaypalNotConfigured
	}

	resp, err := s.paypalClient.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}
	s.logResponse(ctx, "paypal order captured", resp)
	return resp, nil
}

func (s *paypalServiceImpl) ClientToken(ctx context.Context) (string, error) {
	if s.paypalClient == nil {
		return "", ErrPaypalNotConfigured
	}

	token, err := s.paypalClient.GenerateClientToken(ctx)
	if err != nil {
		return "", fmt.Errorf("generate client token: %w", err)
	}
	return token, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		text = strings.TrimSpace(text)
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func (s *paypalServiceImpl) logResponse(ctx context.Context, msg string, resp *client.PaypalResponse) {
	var order model.PaypalOrder
	if err := json.Unmarshal(resp.Body, &order); err != nil {
		s.log.WarnContext(ctx, "decode paypal order", "status_code", resp.StatusCode, "err", err)
		return
	}

	level := slog.LevelInfo
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	s.log.Log(ctx, level, msg,
		"status_code", resp.StatusCode,
		"paypal_order_id", order.ID,
		"paypal_status", order.Status,
		"approve_url", order.ApproveURL(),
	)
}
