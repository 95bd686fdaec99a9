package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore_webapp/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const orderSchema = `
CREATE TABLE IF NOT EXISTS orders (
    order_number   TEXT PRIMARY KEY,
    cart_id        UUID        NOT NULL,
    customer_name  TEXT        NOT NULL,
    customer_email TEXT        NOT NULL,
    customer_phone TEXT        NOT NULL,
    address_line1  TEXT        NOT NULL,
    address_line2  TEXT        NOT NULL DEFAULT '',
    city           TEXT        NOT NULL,
    state          TEXT        NOT NULL,
    zip_code       TEXT        NOT NULL,
    country        TEXT        NOT NULL,
    status         TEXT        NOT NULL,
    comments       TEXT        NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_cart_id_idx ON orders (cart_id);
CREATE TABLE IF NOT EXISTS order_items (
    order_number TEXT    NOT NULL REFERENCES orders(order_number) ON DELETE CASCADE,
    code         TEXT    NOT NULL,
    name         TEXT    NOT NULL,
    price        NUMERIC NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (order_number, code)
);`

type postgresOrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := inTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
            INSERT INTO orders (order_number, cart_id, customer_name, customer_email, customer_phone,
                address_line1, address_line2, city, state, zip_code, country, status, comments, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
            RETURNING created_at`,
			order.OrderNumber, order.CartID,
			order.Customer.Name, order.Customer.Email, order.Customer.Phone,
			order.DeliveryAddress.AddressLine1, order.DeliveryAddress.AddressLine2, order.DeliveryAddress.City,
			order.DeliveryAddress.State, order.DeliveryAddress.ZipCode, order.DeliveryAddress.Country,
			order.Status, order.Comments, order.CreatedAt,
		).Scan(&order.CreatedAt)
		if err != nil {
			r.log.Errorf("Failed to insert order %s for cart %s: %v", order.OrderNumber, order.CartID, err)
			return fmt.Errorf("could not create order entry: %w", mapOrderPqError(err))
		}

		stmt, err := tx.PrepareContext(ctx, `
            INSERT INTO order_items (order_number, code, name, price, quantity)
            VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			r.log.Errorf("Failed to prepare order item statement: %v", err)
			return fmt.Errorf("could not prepare item statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range order.Items {
			if _, err := stmt.ExecContext(ctx, order.OrderNumber, item.Code, item.Name, item.Price.String(), item.Quantity); err != nil {
				r.log.Errorf("Failed to insert order item (code: %s, quantity: %d) for order %s: %v", item.Code, item.Quantity, order.OrderNumber, err)
				return fmt.Errorf("could not create order item (code: %s): %w", item.Code, mapOrderPqError(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Infof("Order %s created successfully with %d items.", order.OrderNumber, len(order.Items))
	return order, nil
}

func (r *postgresOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order := &domain.Order{OrderNumber: orderNumber}
	err := r.db.QueryRowContext(ctx, `
        SELECT cart_id, customer_name, customer_email, customer_phone,
            address_line1, address_line2, city, state, zip_code, country, status, comments, created_at
        FROM orders
        WHERE order_number = $1`, orderNumber).Scan(
		&order.CartID,
		&order.Customer.Name, &order.Customer.Email, &order.Customer.Phone,
		&order.DeliveryAddress.AddressLine1, &order.DeliveryAddress.AddressLine2, &order.DeliveryAddress.City,
		&order.DeliveryAddress.State, &order.DeliveryAddress.ZipCode, &order.DeliveryAddress.Country,
		&order.Status, &order.Comments, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with number %s not found", orderNumber)
			return nil, fmt.Errorf("order with number %s: %w", orderNumber, domain.ErrOrderNotFound)
		}
		r.log.Errorf("Failed to get order by number %s: %v", orderNumber, err)
		return nil, fmt.Errorf("could not retrieve order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT code, name, price, quantity
        FROM order_items
        WHERE order_number = $1
        ORDER BY code`, orderNumber)
	if err != nil {
		r.log.Errorf("Failed to query order items for order %s: %v", orderNumber, err)
		return nil, fmt.Errorf("could not retrieve order items: %w", err)
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.Code, &item.Name, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("error scanning order item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", price, item.Code, err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		r.log.Errorf("Error during order items iteration for order %s: %v", orderNumber, err)
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	r.log.Debugf("Order %s retrieved with %d items", orderNumber, len(order.Items))
	return order, nil
}

func (r *postgresOrderRepository) ListByCart(ctx context.Context, cartID string) ([]domain.OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT order_number, status
        FROM orders
        WHERE cart_id = $1
        ORDER BY created_at DESC`, cartID)
	if err != nil {
		r.log.Errorf("Failed to list orders for cart %s: %v", cartID, err)
		return nil, fmt.Errorf("could not retrieve orders: %w", mapOrderPqError(err))
	}
	defer rows.Close()

	summaries := []domain.OrderSummary{}
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(&s.OrderNumber, &s.Status); err != nil {
			return nil, fmt.Errorf("error scanning order data: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return summaries, nil
}

func mapOrderPqError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "unique_violation", "check_violation", "invalid_text_representation", "not_null_violation":
		return fmt.Errorf("%w: %s", domain.ErrInvalidOrder, pqErr.Message)
	default:
		return err
	}
}
