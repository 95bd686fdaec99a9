package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const cartSchema = `
CREATE TABLE IF NOT EXISTS carts (
    id         UUID PRIMARY KEY,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS cart_items (
    cart_id  UUID    NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    code     TEXT    NOT NULL,
    name     TEXT    NOT NULL,
    price    NUMERIC NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (cart_id, code)
);`

type postgresCartRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCartRepository(db *sql.DB, logger *logrus.Logger) domain.CartRepository {
	return &postgresCartRepository{
		db:  db,
		log: logger,
	}
}

// Migrate creates the cart and order tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, cartSchema); err != nil {
		return fmt.Errorf("could not create cart schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, orderSchema); err != nil {
		return fmt.Errorf("could not create order schema: %w", err)
	}
	return nil
}

func (r *postgresCartRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart := &domain.Cart{ID: cartID, Items: []domain.CartItem{}}

	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM carts WHERE id = $1`, cartID).Scan(&cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		r.log.Errorf("Repository: Failed to load cart %s: %v", cartID, err)
		return nil, fmt.Errorf("could not load cart: %w", mapPqError(err))
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT code, name, price, quantity
        FROM cart_items
        WHERE cart_id = $1
        ORDER BY code`, cartID)
	if err != nil {
		r.log.Errorf("Repository: Failed to load items of cart %s: %v", cartID, err)
		return nil, fmt.Errorf("could not load cart items: %w", mapPqError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  domain.CartItem
			price string
		)
		if err := rows.Scan(&item.Code, &item.Name, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("could not scan cart item: %w", err)
		}
		item.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", price, item.Code, err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read cart items: %w", err)
	}
	return cart, nil
}

func (r *postgresCartRepository) AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	err := inTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		if err := touchCart(ctx, tx, cartID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO cart_items (cart_id, code, name, price, quantity)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (cart_id, code) DO UPDATE
            SET quantity = cart_items.quantity + EXCLUDED.quantity,
                name = EXCLUDED.name,
                price = EXCLUDED.price`,
			cartID, item.Code, item.Name, item.Price.String(), item.Quantity)
		if err != nil {
			r.log.Errorf("Repository: Failed to add %s to cart %s: %v", item.Code, cartID, err)
			return fmt.Errorf("could not add cart item: %w", mapPqError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Infof("Repository: Added %s to cart %s", item.Code, cartID)
	return r.Get(ctx, cartID)
}

func (r *postgresCartRepository) SetQuantity(ctx context.Context, cartID, code string, quantity int) (*domain.Cart, error) {
	err := inTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND code = $2`,
			cartID, code, quantity)
		if err != nil {
			return fmt.Errorf("could not update cart item: %w", mapPqError(err))
		}
		if err := expectOneRow(res, cartID, code); err != nil {
			return err
		}
		return touchCart(ctx, tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, cartID)
}

func (r *postgresCartRepository) RemoveItem(ctx context.Context, cartID, code string) (*domain.Cart, error) {
	err := inTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND code = $2`, cartID, code)
		if err != nil {
			return fmt.Errorf("could not delete cart item: %w", mapPqError(err))
		}
		if err := expectOneRow(res, cartID, code); err != nil {
			return err
		}
		return touchCart(ctx, tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, cartID)
}

func (r *postgresCartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		r.log.Errorf("Repository: Failed to clear cart %s: %v", cartID, err)
		return fmt.Errorf("could not clear cart: %w", mapPqError(err))
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, db *sql.DB, log *logrus.Logger, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warnf("Rolling back transaction due to error: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			log.Errorf("Failed to commit transaction: %v", cErr)
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

func touchCart(ctx context.Context, tx *sql.Tx, cartID string) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO carts (id, updated_at) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		cartID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("could not upsert cart: %w", mapPqError(err))
	}
	return nil
}

func expectOneRow(res sql.Result, cartID, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s in cart %s: %w", code, cartID, domain.ErrCartItemNotFound)
	}
	return nil
}

// mapPqError turns constraint violations into domain errors.
func mapPqError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "check_violation", "invalid_text_representation", "not_null_violation":
		return fmt.Errorf("%w: %s", domain.ErrInvalidCartItem, pqErr.Message)
	default:
		return err
	}
}
