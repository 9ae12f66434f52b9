package repository

import (
	"context"
	"errors"

	"apikey-store/internal/model"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByEmail(ctx context.Context, email string) ([]*model.Order, error)
	// Update loads the order, applies fn and stores the result as one step.
	// Nothing is written when fn returns an error.
	Update(ctx context.Context, id string, fn func(order *model.Order) error) (*model.Order, error)
}

type ProductRepository interface {
	Seed(ctx context.Context, products []*model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context) ([]*model.Product, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// Store owns every record collection of the process. Close releases the
// backing connection pool, if any.
type Store struct {
	Orders   OrderRepository
	Products ProductRepository
	Users    UserRepository

	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Orders:   NewOrderRepository(db),
		Products: NewProductRepository(db),
		Users:    NewUserRepository(db),
		close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
