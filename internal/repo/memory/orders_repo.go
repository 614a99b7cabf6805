package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/chairgo/internal/domain/order"
)

type OrdersRepo struct {
	mu    sync.RWMutex
	items map[string]order.Order
}

func NewOrdersRepo() *OrdersRepo {
	return &OrdersRepo{items: make(map[string]order.Order)}
}

// Put stores o keyed by its normalized order number. Used by tests and dev fixtures.
func (r *OrdersRepo) Put(o order.Order) error {
	o.OrderNumber = order.NormalizeNumber(o.OrderNumber)
	if err := o.Derive(); err != nil {
		return err
	}
	if o.Items == nil {
		o.Items = []order.Item{}
	}

	r.mu.Lock()
	r.items[o.OrderNumber] = o
	r.mu.Unlock()
	return nil
}

func (r *OrdersRepo) GetByNumber(_ context.Context, number string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[number]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}
