package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/chairgo/internal/domain/order"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrdersRepo reads orders written by the order service.
type OrdersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{pool: pool, prom: prom}
}

func (r *OrdersRepo) GetByNumber(ctx context.Context, number string) (order.Order, error) {
	var o order.Order

	err := r.prom.ObserveDB("orders.get_by_number", func() error {
		var status, payment string
		err := r.pool.QueryRow(ctx,
			`SELECT order_number, customer_name, status, payment_status,
				total_amount::float8, currency, shipping_address, created_at
			FROM orders WHERE order_number = $1`, number,
		).Scan(&o.OrderNumber, &o.CustomerName, &status, &payment,
			&o.TotalAmount, &o.Currency, &o.ShippingAddress, &o.CreatedAt)
		if err != nil {
			return err
		}
		o.Status = order.Status(status)
		o.PaymentStatus = order.PaymentStatus(payment)
		return nil
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}

	if err := o.Derive(); err != nil {
		return order.Order{}, err
	}

	items := []order.Item{}
	err = r.prom.ObserveDB("orders.items", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT product_name, quantity, subtotal::float8
			FROM order_items WHERE order_number = $1 ORDER BY id`, number)
		if err != nil {
			return err
		}

		items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
			var it order.Item
			err := row.Scan(&it.ProductName, &it.Quantity, &it.Subtotal)
			return it, err
		})
		return err
	})
	if err != nil {
		return order.Order{}, err
	}

	o.Items = items
	return o, nil
}
