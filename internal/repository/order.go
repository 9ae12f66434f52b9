package repository

import (
	"context"

	"apikey-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return translateError(r.db.WithContext(ctx).Create(order).Error)
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translateError(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByEmail(ctx context.Context, email string) ([]*model.Order, error) {
	orders := []*model.Order{}
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", email).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) Update(ctx context.Context, id string, fn func(order *model.Order) error) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&order).Error
		if err != nil {
			return err
		}

		if err := fn(&order); err != nil {
			return err
		}

		return tx.Model(&model.Order{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"payment_status": order.PaymentStatus,
				"api_key":        order.Credentials,
			}).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &order, nil
}
