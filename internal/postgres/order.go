package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudshop/checkout-service/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// ErrOrderNotFound is returned by GetByID when no order matches.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order row, assigning the generated ID and creation
// timestamp on o.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	id := uuid.New().String()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO orders (id, total_price, shipping, destination, uid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, id, o.Total, o.Shipping, o.Destination, o.UserID).Scan(&o.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	o.ID = id
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, total_price, shipping, destination, uid, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Total, &o.Shipping, &o.Destination, &o.UserID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}
