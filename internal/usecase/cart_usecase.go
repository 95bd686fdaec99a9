package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.CartUseCase = (*cartUseCase)(nil)

// ProductLookup resolves a product code against the catalog.
type ProductLookup interface {
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
}

type cartUseCase struct {
	cartRepo domain.CartRepository
	catalog  ProductLookup
	log      *logrus.Logger
}

// NewCartUseCase builds the cart service. catalog may be nil, in which case
// products are stored with the name and price the caller sent.
func NewCartUseCase(repo domain.CartRepository, catalog ProductLookup, logger *logrus.Logger) domain.CartUseCase {
	return &cartUseCase{
		cartRepo: repo,
		catalog:  catalog,
		log:      logger,
	}
}

func (uc *cartUseCase) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	return uc.cartRepo.Get(ctx, cartID)
}

func (uc *cartUseCase) AddProduct(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	item.Code = strings.TrimSpace(item.Code)
	if item.Code == "" {
		return nil, fmt.Errorf("%w: product code cannot be empty", domain.ErrInvalidCartItem)
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidCartItem)
	}
	if item.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidCartItem)
	}

	if uc.catalog != nil {
		uc.log.Infof("Use Case: Checking catalog for product %s", item.Code)
		product, err := uc.catalog.GetProductByCode(ctx, item.Code)
		if err != nil {
			uc.log.Warnf("Use Case: Catalog check failed for product %s: %v", item.Code, err)
			return nil, fmt.Errorf("catalog check failed for product %s: %w", item.Code, err)
		}
		item.Name = product.Name
		item.Price = product.Price
		uc.log.Infof("Use Case: Updated item price for product %s to %s from catalog", item.Code, item.Price.StringFixed(2))
	}

	cart, err := uc.cartRepo.AddItem(ctx, cartID, item)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to add product %s to cart %s: %v", item.Code, cartID, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Cart %s holds %d item(s), total %s", cartID, cart.ItemCount(), cart.TotalAmount().StringFixed(2))
	return cart, nil
}

// UpdateQuantity sets the quantity of a line. A quantity below one removes it.
func (uc *cartUseCase) UpdateQuantity(ctx context.Context, cartID, code string, quantity int) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	if quantity < 1 {
		uc.log.Infof("Use Case: Quantity %d for %s in cart %s, removing the item", quantity, code, cartID)
		return uc.cartRepo.RemoveItem(ctx, cartID, code)
	}
	return uc.cartRepo.SetQuantity(ctx, cartID, code, quantity)
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, cartID, code string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	return uc.cartRepo.RemoveItem(ctx, cartID, code)
}

func (uc *cartUseCase) ClearCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return errors.New("invalid cart ID")
	}
	uc.log.Infof("Use Case: Clearing cart %s", cartID)
	return uc.cartRepo.Clear(ctx, cartID)
}
