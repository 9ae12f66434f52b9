package repository

import (
	"context"
	"sync"

	"apikey-store/internal/model"
)

// NewMemoryStore returns a process-lifetime store backed by maps. Records are
// copied on the way in and out so callers never share state with the store.
func NewMemoryStore() *Store {
	return &Store{
		Orders:   NewMemoryOrderRepository(),
		Products: NewMemoryProductRepository(),
		Users:    NewMemoryUserRepository(),
	}
}

type memoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*model.Order
	seq    []string
}

func NewMemoryOrderRepository() OrderRepository {
	return &memoryOrderRepo{
		orders: make(map[string]*model.Order),
	}
}

func (r *memoryOrderRepo) Create(ctx context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return ErrDuplicate
	}
	r.orders[order.ID] = order.Clone()
	r.seq = append(r.seq, order.ID)
	return nil
}

func (r *memoryOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

func (r *memoryOrderRepo) FindByEmail(ctx context.Context, email string) ([]*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := []*model.Order{}
	for _, id := range r.seq {
		if order := r.orders[id]; order.CustomerEmail == email {
			orders = append(orders, order.Clone())
		}
	}
	return orders, nil
}

func (r *memoryOrderRepo) Update(ctx context.Context, id string, fn func(order *model.Order) error) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	order := current.Clone()
	if err := fn(order); err != nil {
		return nil, err
	}

	r.orders[id] = order
	return order.Clone(), nil
}

type memoryProductRepo struct {
	mu       sync.RWMutex
	products map[string]*model.Product
	seq      []string
}

func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepo{
		products: make(map[string]*model.Product),
	}
}

func (r *memoryProductRepo) Seed(ctx context.Context, products []*model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		if _, ok := r.products[p.ID]; ok {
			continue
		}
		r.products[p.ID] = p.Clone()
		r.seq = append(r.seq, p.ID)
	}
	return nil
}

func (r *memoryProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return product.Clone(), nil
}

func (r *memoryProductRepo) FindAll(ctx context.Context) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*model.Product, 0, len(r.seq))
	for _, id := range r.seq {
		products = append(products, r.products[id].Clone())
	}
	return products, nil
}

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepo{
		users: make(map[string]*model.User),
	}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrDuplicate
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return ErrDuplicate
		}
	}
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

func (r *memoryUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}
