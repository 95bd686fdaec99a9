package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidCartItem  = errors.New("invalid cart item")
)

type CartItem struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// CartRepository stores carts by id. Get returns an empty cart for an unknown id.
type CartRepository interface {
	Get(ctx context.Context, cartID string) (*Cart, error)
	AddItem(ctx context.Context, cartID string, item CartItem) (*Cart, error)
	SetQuantity(ctx context.Context, cartID, code string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartID, code string) (*Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type CartUseCase interface {
	GetCart(ctx context.Context, cartID string) (*Cart, error)
	AddProduct(ctx context.Context, cartID string, item CartItem) (*Cart, error)
	UpdateQuantity(ctx context.Context, cartID, code string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartID, code string) (*Cart, error)
	ClearCart(ctx context.Context, cartID string) error
}
