package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ domain.OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	orderRepo domain.OrderRepository
	cartRepo  domain.CartRepository
	catalog   ProductLookup
	now       func() time.Time
	log       *logrus.Logger
}

// NewOrderUseCase builds the checkout service. catalog may be nil, in which
// case the cart prices are taken as they are.
func NewOrderUseCase(orders domain.OrderRepository, carts domain.CartRepository, catalog ProductLookup, logger *logrus.Logger) domain.OrderUseCase {
	return &orderUseCase{
		orderRepo: orders,
		cartRepo:  carts,
		catalog:   catalog,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger,
	}
}

// PlaceOrder turns the cart into an order with status NEW and empties the cart.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, cartID string, req domain.CheckoutRequest) (*domain.Order, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	if err := validateCheckout(&req); err != nil {
		uc.log.Warnf("Use Case: Rejected checkout for cart %s: %v", cartID, err)
		return nil, err
	}

	cart, err := uc.cartRepo.Get(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("could not load cart %s: %w", cartID, err)
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidOrder)
	}
	uc.log.Infof("Use Case: Validated checkout for cart %s with %d line(s)", cartID, len(cart.Items))

	order := &domain.Order{
		OrderNumber:     uuid.NewString(),
		CartID:          cartID,
		Customer:        req.Customer,
		DeliveryAddress: req.DeliveryAddress,
		Status:          domain.StatusNew,
		Comments:        req.Comments,
		CreatedAt:       uc.now(),
		Items:           make([]domain.OrderItem, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		line := domain.OrderItem{Code: item.Code, Name: item.Name, Price: item.Price, Quantity: item.Quantity}
		if uc.catalog != nil {
			uc.log.Infof("Use Case: Checking catalog price for product %s (quantity: %d)", item.Code, item.Quantity)
			product, err := uc.catalog.GetProductByCode(ctx, item.Code)
			if err != nil {
				uc.log.Warnf("Use Case: Catalog check failed for product %s: %v", item.Code, err)
				return nil, fmt.Errorf("catalog check failed for product %s: %w", item.Code, err)
			}
			if !product.Price.Equal(item.Price) {
				uc.log.Infof("Use Case: Price of %s changed from %s to %s since it was added", item.Code, item.Price.StringFixed(2), product.Price.StringFixed(2))
			}
			line.Name = product.Name
			line.Price = product.Price
		}
		order.Items = append(order.Items, line)
	}

	uc.log.Infof("Use Case: Attempting to save order %s for cart %s", order.OrderNumber, cartID)
	created, err := uc.orderRepo.Create(ctx, order)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create order for cart %s: %v", cartID, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if err := uc.cartRepo.Clear(ctx, cartID); err != nil {
		uc.log.Errorf("Use Case: Order %s saved but cart %s could not be cleared: %v", created.OrderNumber, cartID, err)
	}
	uc.log.Infof("Use Case: Order %s created for cart %s, total %s", created.OrderNumber, cartID, created.TotalAmount().StringFixed(2))
	return created, nil
}

// GetOrder returns the order only to the cart that placed it.
func (uc *orderUseCase) GetOrder(ctx context.Context, cartID, orderNumber string) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, fmt.Errorf("%w: order number is required", domain.ErrInvalidOrder)
	}
	order, err := uc.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get order %s: %v", orderNumber, err)
		return nil, err
	}
	if order.CartID != cartID {
		uc.log.Warnf("Use Case: Cart %s attempted to access order %s of another cart", cartID, orderNumber)
		return nil, fmt.Errorf("order with number %s: %w", orderNumber, domain.ErrOrderNotFound)
	}
	return order, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, cartID string) ([]domain.OrderSummary, error) {
	if cartID == "" {
		return nil, errors.New("invalid cart ID")
	}
	orders, err := uc.orderRepo.ListByCart(ctx, cartID)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list orders for cart %s: %v", cartID, err)
		return nil, fmt.Errorf("could not retrieve orders for cart %s: %w", cartID, err)
	}
	uc.log.Infof("Use Case: Retrieved %d orders for cart %s", len(orders), cartID)
	return orders, nil
}

// validateCheckout trims the request in place and checks the customer and
// delivery address. Countries are normalized to upper case.
func validateCheckout(req *domain.CheckoutRequest) error {
	c := &req.Customer
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: customer name is required", domain.ErrInvalidOrder)
	case c.Phone == "":
		return fmt.Errorf("%w: customer phone is required", domain.ErrInvalidOrder)
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return fmt.Errorf("%w: customer email %q is not valid", domain.ErrInvalidOrder, c.Email)
	}

	a := &req.DeliveryAddress
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.AddressLine1 == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return fmt.Errorf("%w: delivery address is incomplete", domain.ErrInvalidOrder)
	}
	for _, country := range domain.DeliveryCountries {
		if a.Country == country {
			return nil
		}
	}
	return fmt.Errorf("%w: orders cannot be delivered to %q", domain.ErrInvalidOrder, a.Country)
}
