package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"apikey-store/internal/client"
	"apikey-store/internal/model"
	"apikey-store/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]*repository.Store {
	t.Helper()

	db, err := client.OpenDB("sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)

	gormStore := repository.NewGormStore(db)
	t.Cleanup(func() { _ = gormStore.Close() })

	return map[string]*repository.Store{
		"memory": repository.NewMemoryStore(),
		"gorm":   gormStore,
	}
}

func newOrder(id, email string, created time.Time) *model.Order {
	link := "https://explorer.example/tx/" + id
	return &model.Order{
		ID:              id,
		ProductID:       "google",
		CustomerEmail:   email,
		CustomerName:    "Ada",
		PaymentMethod:   model.PaymentSolana,
		PaymentStatus:   model.PaymentPending,
		TransactionLink: &link,
		Amount:          9900,
		Currency:        "USD",
		Quantity:        2,
		Credentials:     model.IssuedCredentials([]string{"sk_live_a", "sk_live_b"}),
		CreatedAt:       created,
	}
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			orders := store.Orders

			first := newOrder("o-1", "a@example.com", base)
			require.NoError(t, orders.Create(ctx, first))
			require.NoError(t, orders.Create(ctx, newOrder("o-2", "b@example.com", base.Add(time.Second))))
			require.NoError(t, orders.Create(ctx, newOrder("o-3", "a@example.com", base.Add(2*time.Second))))

			got, err := orders.FindByID(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, first.CustomerEmail, got.CustomerEmail)
			assert.Equal(t, []string{"sk_live_a", "sk_live_b"}, got.Credentials.Keys())
			assert.Equal(t, model.CredentialsMultiple, got.Credentials.Kind())
			require.NotNil(t, got.TransactionLink)
			assert.Equal(t, *first.TransactionLink, *got.TransactionLink)
			assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

			_, err = orders.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, repository.ErrNotFound)

			byEmail, err := orders.FindByEmail(ctx, "a@example.com")
			require.NoError(t, err)
			require.Len(t, byEmail, 2)
			assert.Equal(t, "o-1", byEmail[0].ID)
			assert.Equal(t, "o-3", byEmail[1].ID)

			none, err := orders.FindByEmail(ctx, "nobody@example.com")
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none)

			updated, err := orders.Update(ctx, "o-1", func(o *model.Order) error {
				o.PaymentStatus = model.PaymentCompleted
				o.Credentials = model.SingleCredential("sk_live_z")
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, model.PaymentCompleted, updated.PaymentStatus)

			reloaded, err := orders.FindByID(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, model.PaymentCompleted, reloaded.PaymentStatus)
			assert.Equal(t, []string{"sk_live_z"}, reloaded.Credentials.Keys())
			assert.Equal(t, model.CredentialsSingle, reloaded.Credentials.Kind())

			boom := errors.New("boom")
			_, err = orders.Update(ctx, "o-2", func(o *model.Order) error {
				o.PaymentStatus = model.PaymentFailed
				return boom
			})
			assert.ErrorIs(t, err, boom)
			untouched, err := orders.FindByID(ctx, "o-2")
			require.NoError(t, err)
			assert.Equal(t, model.PaymentPending, untouched.PaymentStatus)

			_, err = orders.Update(ctx, "missing", func(o *model.Order) error { return nil })
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestOrderRepositoryNullCredentials(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			order := newOrder("o-null", "n@example.com", time.Now().UTC())
			order.Credentials = model.Credentials{}
			order.TransactionLink = nil
			require.NoError(t, store.Orders.Create(ctx, order))

			got, err := store.Orders.FindByID(ctx, "o-null")
			require.NoError(t, err)
			assert.True(t, got.Credentials.IsZero())
			assert.Nil(t, got.TransactionLink)
		})
	}
}

func TestMemoryOrderRepositoryCopies(t *testing.T) {
	ctx := context.Background()
	orders := repository.NewMemoryOrderRepository()

	order := newOrder("o-1", "a@example.com", time.Now())
	require.NoError(t, orders.Create(ctx, order))

	order.PaymentStatus = model.PaymentFailed
	*order.TransactionLink = "changed"

	got, err := orders.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.NotEqual(t, "changed", *got.TransactionLink)

	assert.ErrorIs(t, orders.Create(ctx, got), repository.ErrDuplicate)
}

func TestMemoryOrderRepositoryConcurrent(t *testing.T) {
	const (
		workers   = 8
		perWorker = 25
	)
	ctx := context.Background()
	orders := repository.NewMemoryStore().Orders
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	shared := newOrder("shared", "shared@example.com", base)
	shared.Quantity = 0
	require.NoError(t, orders.Create(ctx, shared))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		email := fmt.Sprintf("worker-%d@example.com", w)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("%s-%d", email, i)
				if !assert.NoError(t, orders.Create(ctx, newOrder(id, email, base.Add(time.Duration(i)*time.Second)))) {
					return
				}
				_, err := orders.Update(ctx, id, func(o *model.Order) error {
					o.PaymentStatus = model.PaymentCompleted
					return nil
				})
				assert.NoError(t, err)
				_, err = orders.Update(ctx, "shared", func(o *model.Order) error {
					o.Quantity++
					return nil
				})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				found, err := orders.FindByEmail(ctx, email)
				assert.NoError(t, err)
				assert.LessOrEqual(t, len(found), perWorker)
			}
		}()
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		found, err := orders.FindByEmail(ctx, fmt.Sprintf("worker-%d@example.com", w))
		require.NoError(t, err)
		require.Len(t, found, perWorker)
		for i, order := range found {
			assert.Equal(t, model.PaymentCompleted, order.PaymentStatus, order.ID)
			assert.Equal(t, base.Add(time.Duration(i)*time.Second), order.CreatedAt)
		}
	}

	got, err := orders.FindByID(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, got.Quantity)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	products := []*model.Product{
		{ID: "b", Name: "B plan", Price: 200, Features: []string{"one", "two"}},
		{ID: "a", Name: "A plan", Price: 100, Features: []string{}},
	}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Products.Seed(ctx, products))
			require.NoError(t, store.Products.Seed(ctx, products))

			all, err := store.Products.FindAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "b", all[0].ID)
			assert.Equal(t, "a", all[1].ID)
			assert.Equal(t, []string{"one", "two"}, all[0].Features)

			got, err := store.Products.FindByID(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "A plan", got.Name)

			_, err = store.Products.FindByID(ctx, "zzz")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			email := "ada@example.com"
			user := &model.User{ID: "u-1", Username: "ada", PasswordHash: "hash", Email: &email}
			require.NoError(t, store.Users.Create(ctx, user))

			err := store.Users.Create(ctx, &model.User{ID: "u-2", Username: "ada", PasswordHash: "x"})
			assert.ErrorIs(t, err, repository.ErrDuplicate)

			got, err := store.Users.FindByID(ctx, "u-1")
			require.NoError(t, err)
			assert.Equal(t, "ada", got.Username)
			require.NotNil(t, got.Email)
			assert.Equal(t, email, *got.Email)

			got, err = store.Users.FindByUsername(ctx, "ada")
			require.NoError(t, err)
			assert.Equal(t, "u-1", got.ID)

			_, err = store.Users.FindByUsername(ctx, "bob")
			assert.ErrorIs(t, err, repository.ErrNotFound)
			_, err = store.Users.FindByID(ctx, "u-9")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}
