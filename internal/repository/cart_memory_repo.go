package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
)

type memoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	now   func() time.Time
	log   *logrus.Logger
}

func NewMemoryCartRepository(logger *logrus.Logger) domain.CartRepository {
	return &memoryCartRepository{
		carts: make(map[string]*domain.Cart),
		now:   func() time.Time { return time.Now().UTC() },
		log:   logger,
	}
}

func (r *memoryCartRepository) Get(_ context.Context, cartID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return &domain.Cart{ID: cartID, Items: []domain.CartItem{}}, nil
	}
	return copyCart(cart), nil
}

func (r *memoryCartRepository) AddItem(_ context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.cartLocked(cartID)
	for i := range cart.Items {
		if cart.Items[i].Code == item.Code {
			cart.Items[i].Quantity += item.Quantity
			cart.Items[i].Name = item.Name
			cart.Items[i].Price = item.Price
			cart.UpdatedAt = r.now()
			r.log.Debugf("Repository: Incremented %s in cart %s to %d", item.Code, cartID, cart.Items[i].Quantity)
			return copyCart(cart), nil
		}
	}
	cart.Items = append(cart.Items, item)
	cart.UpdatedAt = r.now()
	r.log.Debugf("Repository: Added %s to cart %s", item.Code, cartID)
	return copyCart(cart), nil
}

func (r *memoryCartRepository) SetQuantity(_ context.Context, cartID, code string, quantity int) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("item %s in cart %s: %w", code, cartID, domain.ErrCartItemNotFound)
	}
	for i := range cart.Items {
		if cart.Items[i].Code == code {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = r.now()
			return copyCart(cart), nil
		}
	}
	return nil, fmt.Errorf("item %s in cart %s: %w", code, cartID, domain.ErrCartItemNotFound)
}

func (r *memoryCartRepository) RemoveItem(_ context.Context, cartID, code string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("item %s in cart %s: %w", code, cartID, domain.ErrCartItemNotFound)
	}
	for i := range cart.Items {
		if cart.Items[i].Code == code {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = r.now()
			return copyCart(cart), nil
		}
	}
	return nil, fmt.Errorf("item %s in cart %s: %w", code, cartID, domain.ErrCartItemNotFound)
}

func (r *memoryCartRepository) Clear(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, cartID)
	return nil
}

func (r *memoryCartRepository) cartLocked(cartID string) *domain.Cart {
	cart, ok := r.carts[cartID]
	if !ok {
		cart = &domain.Cart{ID: cartID, Items: []domain.CartItem{}}
		r.carts[cartID] = cart
	}
	return cart
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}
