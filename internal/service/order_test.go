package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"apikey-store/internal/apikey"
	"apikey-store/internal/dto"
	"apikey-store/internal/model"
	"apikey-store/internal/repository"
	"apikey-store/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqGenerator struct{ n int }

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("sk_test_%d", g.n)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrderService(t *testing.T, keyGen apikey.Generator, opts service.OrderOptions) (service.OrderService, *repository.Store) {
	t.Helper()

	store := repository.NewMemoryStore()
	require.NoError(t, store.Products.Seed(context.Background(), []*model.Product{
		{ID: "google", Name: "Google Gemini Pro", Price: 9900, Features: []string{}},
		{ID: "openai", Name: "OpenAI GPT-4", Price: 19900, Features: []string{}},
	}))
	return service.NewOrderService(store.Orders, store.Products, keyGen, opts, discard()), store
}

func orderRequest(method model.PaymentMethod, quantity int) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		ProductID:     "google",
		CustomerEmail: "ada@example.com",
		CustomerName:  "Ada Lovelace",
		PaymentMethod: method,
		Amount:        9900,
		Quantity:      quantity,
	}
}

func TestCreateOrderSolanaQuantityThree(t *testing.T) {
	svc, _ := newOrderService(t, apikey.NewGenerator(), service.OrderOptions{})

	order, err := svc.CreateOrder(context.Background(), orderRequest(model.PaymentSolana, 3))
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, 3, order.Quantity)
	assert.Nil(t, order.TransactionLink)
	assert.NotEmpty(t, order.ID)

	encoded, ok := order.Credentials.Encode()
	require.True(t, ok)

	var keys []string
	require.NoError(t, json.Unmarshal([]byte(encoded), &keys))
	require.Len(t, keys, 3)
	seen := map[string]bool{}
	for _, k := range keys {
		assert.True(t, apikey.Valid(k), k)
		seen[k] = true
	}
	assert.Len(t, seen, 3)
}

func TestCreateOrderQuantities(t *testing.T) {
	for _, quantity := range []int{-2, 0, 1, 2, 5} {
		t.Run(fmt.Sprint(quantity), func(t *testing.T) {
			svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})

			order, err := svc.CreateOrder(context.Background(), orderRequest(model.PaymentBitcoin, quantity))
			require.NoError(t, err)

			want := max(quantity, 1)
			assert.Equal(t, want, order.Quantity)
			assert.Equal(t, want, order.Credentials.Len())

			encoded, ok := order.Credentials.Encode()
			require.True(t, ok)
			if want == 1 {
				assert.Equal(t, "sk_test_1", encoded)
				assert.Equal(t, model.CredentialsSingle, order.Credentials.Kind())
			} else {
				assert.Equal(t, model.CredentialsMultiple, order.Credentials.Kind())
			}
			assert.Equal(t, order.Credentials.Keys(), model.DecodeCredentials(encoded).Keys())
		})
	}
}

func TestCreateOrderInitialStatus(t *testing.T) {
	for _, method := range model.PaymentMethods {
		t.Run(string(method), func(t *testing.T) {
			svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})

			order, err := svc.CreateOrder(context.Background(), orderRequest(method, 1))
			require.NoError(t, err)

			if method == model.PaymentPaypal {
				assert.Equal(t, model.PaymentCompleted, order.PaymentStatus)
			} else {
				assert.Equal(t, model.PaymentPending, order.PaymentStatus)
			}
		})
	}
}

func TestCreateOrderOptionalFields(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{DefaultCurrency: "EUR"})

	req := orderRequest(model.PaymentEthereum, 1)
	empty := ""
	req.TransactionLink = &empty
	order, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "EUR", order.Currency)
	assert.Nil(t, order.TransactionLink)

	link := "https://etherscan.io/tx/0xabc"
	req.TransactionLink = &link
	req.Currency = "GBP"
	order, err = svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "GBP", order.Currency)
	require.NotNil(t, order.TransactionLink)
	assert.Equal(t, link, *order.TransactionLink)
}

func TestCreateOrderInvalid(t *testing.T) {
	svc, store := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	for name, mutate := range map[string]func(*dto.CreateOrderRequest){
		"no product":     func(r *dto.CreateOrderRequest) { r.ProductID = "" },
		"no email":       func(r *dto.CreateOrderRequest) { r.CustomerEmail = " " },
		"no name":        func(r *dto.CreateOrderRequest) { r.CustomerName = "" },
		"bad method":     func(r *dto.CreateOrderRequest) { r.PaymentMethod = "cash" },
		"negative total": func(r *dto.CreateOrderRequest) { r.Amount = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			req := orderRequest(model.PaymentSolana, 1)
			mutate(req)
			_, err := svc.CreateOrder(ctx, req)
			assert.ErrorIs(t, err, service.ErrInvalidOrder)
		})
	}

	_, err := svc.CreateOrder(ctx, nil)
	assert.ErrorIs(t, err, service.ErrInvalidOrder)

	orders, err := store.Orders.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderQuantityLimit(t *testing.T) {
	ctx := context.Background()

	svc, store := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	for _, quantity := range []int{service.DefaultMaxQuantity + 1, 1 << 40} {
		_, err := svc.CreateOrder(ctx, orderRequest(model.PaymentSolana, quantity))
		assert.ErrorIs(t, err, service.ErrInvalidOrder)
	}

	_, err := svc.CreateOrders(ctx, []*dto.CreateOrderRequest{
		orderRequest(model.PaymentSolana, 1),
		orderRequest(model.PaymentSolana, 1 << 40),
	})
	assert.ErrorIs(t, err, service.ErrInvalidOrder)

	stored, err := store.Orders.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored)

	order, err := svc.CreateOrder(ctx, orderRequest(model.PaymentSolana, service.DefaultMaxQuantity))
	require.NoError(t, err)
	assert.Equal(t, service.DefaultMaxQuantity, order.Credentials.Len())

	capped, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{MaxQuantity: 2})
	_, err = capped.CreateOrder(ctx, orderRequest(model.PaymentSolana, 3))
	assert.ErrorIs(t, err, service.ErrInvalidOrder)
	_, err = capped.CreateOrder(ctx, orderRequest(model.PaymentSolana, 2))
	assert.NoError(t, err)
}

func TestCreateOrders(t *testing.T) {
	svc, store := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	second := orderRequest(model.PaymentSolana, 2)
	second.ProductID = "openai"
	orders, err := svc.CreateOrders(ctx, []*dto.CreateOrderRequest{orderRequest(model.PaymentSolana, 1), second})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "google", orders[0].ProductID)
	assert.Equal(t, "openai", orders[1].ProductID)

	bad := orderRequest(model.PaymentSolana, 1)
	bad.CustomerName = ""
	_, err = svc.CreateOrders(ctx, []*dto.CreateOrderRequest{orderRequest(model.PaymentSolana, 1), bad})
	assert.ErrorIs(t, err, service.ErrInvalidOrder)

	_, err = svc.CreateOrders(ctx, nil)
	assert.ErrorIs(t, err, service.ErrInvalidOrder)

	stored, err := store.Orders.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestGetOrder(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, orderRequest(model.PaymentSolana, 2))
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Credentials.Keys(), got.Credentials.Keys())

	_, err = svc.GetOrder(ctx, "never-issued")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, orderRequest(model.PaymentSolana, 2))
	require.NoError(t, err)
	keys := created.Credentials.Keys()

	updated, err := svc.UpdateOrderStatus(ctx, created.ID, model.PaymentCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, updated.PaymentStatus)
	assert.Equal(t, keys, updated.Credentials.Keys())

	updated, err = svc.UpdateOrderStatus(ctx, created.ID, model.PaymentFailed, "sk_live_manual")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, updated.PaymentStatus)
	assert.Equal(t, []string{"sk_live_manual"}, updated.Credentials.Keys())

	updated, err = svc.UpdateOrderStatus(ctx, created.ID, model.PaymentCompleted, `["a","b","c"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, updated.Credentials.Keys())

	got, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, got.PaymentStatus)
	assert.Equal(t, []string{"a", "b", "c"}, got.Credentials.Keys())

	_, err = svc.UpdateOrderStatus(ctx, created.ID, "refunded", "")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	_, err = svc.UpdateOrderStatus(ctx, "missing", model.PaymentCompleted, "sk_live_x")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestUpdateOrderStatusKeepsKeyText(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, orderRequest(model.PaymentSolana, 1))
	require.NoError(t, err)

	for _, apiKey := range []string{`["k1", 7]`, `[ "a&b", "<c>" ]`} {
		updated, err := svc.UpdateOrderStatus(ctx, created.ID, model.PaymentCompleted, apiKey)
		require.NoError(t, err)
		encoded, ok := updated.Credentials.Encode()
		require.True(t, ok)
		assert.Equal(t, apiKey, encoded)

		got, err := svc.GetOrder(ctx, created.ID)
		require.NoError(t, err)
		encoded, ok = got.Credentials.Encode()
		require.True(t, ok)
		assert.Equal(t, apiKey, encoded)
	}
}

func TestDeferredKeyIssuance(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{DeferKeyIssuance: true})
	ctx := context.Background()

	pending, err := svc.CreateOrder(ctx, orderRequest(model.PaymentBankTransfer, 3))
	require.NoError(t, err)
	assert.True(t, pending.Credentials.IsZero())

	paid, err := svc.CreateOrder(ctx, orderRequest(model.PaymentPaypal, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, paid.Credentials.Len())

	failed, err := svc.UpdateOrderStatus(ctx, pending.ID, model.PaymentFailed, "")
	require.NoError(t, err)
	assert.True(t, failed.Credentials.IsZero())

	completed, err := svc.UpdateOrderStatus(ctx, pending.ID, model.PaymentCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, 3, completed.Credentials.Len())

	again, err := svc.UpdateOrderStatus(ctx, pending.ID, model.PaymentCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, completed.Credentials.Keys(), again.Credentials.Keys())
}

func TestGetOrdersByEmail(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		req := orderRequest(model.PaymentSolana, 1)
		req.CustomerEmail = email
		_, err := svc.CreateOrder(ctx, req)
		require.NoError(t, err)
	}

	orders, err := svc.GetOrdersByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "a@example.com", o.CustomerEmail)
	}

	orders, err = svc.GetOrdersByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSummarizeOrdersByEmail(t *testing.T) {
	svc, _ := newOrderService(t, &seqGenerator{}, service.OrderOptions{})
	ctx := context.Background()

	first := orderRequest(model.PaymentSolana, 1)
	first.Amount = 9900
	second := orderRequest(model.PaymentSolana, 3)
	second.Amount = 29700
	for _, req := range []*dto.CreateOrderRequest{first, second} {
		_, err := svc.CreateOrder(ctx, req)
		require.NoError(t, err)
	}

	summary, err := svc.SummarizeOrdersByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", summary.Email)
	assert.Equal(t, 2, summary.OrderCount)
	require.Len(t, summary.Groups, 1)

	group := summary.Groups[0]
	assert.Equal(t, "Google Gemini Pro", group.ProductName)
	assert.Equal(t, 4, group.TotalKeys)
	assert.Equal(t, int64(39600), group.TotalAmount)
	assert.Len(t, group.Orders, 2)
	assert.Equal(t, 4, summary.TotalKeys)
	assert.Equal(t, int64(39600), summary.TotalAmount)

	empty, err := svc.SummarizeOrdersByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Zero(t, empty.OrderCount)
	assert.Empty(t, empty.Groups)
}
