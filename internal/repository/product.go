package repository

import (
	"context"

	"apikey-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// Seed inserts the catalog, leaving products that already exist untouched.
func (r *productRepoImpl) Seed(ctx context.Context, products []*model.Product) error {
	if len(products) == 0 {
		return nil
	}

	rows := make([]*model.Product, len(products))
	for i, p := range products {
		rows[i] = p.Clone()
		rows[i].Position = i
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, translateError(err)
	}

	return &product, nil
}

func (r *productRepoImpl) FindAll(ctx context.Context) ([]*model.Product, error) {
	products := []*model.Product{}
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}
