package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
)

type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	log    *logrus.Logger
}

func NewMemoryOrderRepository(logger *logrus.Logger) domain.OrderRepository {
	return &memoryOrderRepository{
		orders: make(map[string]*domain.Order),
		log:    logger,
	}
}

func (r *memoryOrderRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderNumber]; ok {
		return nil, fmt.Errorf("%w: order %s already exists", domain.ErrInvalidOrder, order.OrderNumber)
	}
	r.orders[order.OrderNumber] = copyOrder(order)
	r.log.Debugf("Repository: Stored order %s with %d items", order.OrderNumber, len(order.Items))
	return copyOrder(order), nil
}

func (r *memoryOrderRepository) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderNumber]
	if !ok {
		return nil, fmt.Errorf("order with number %s: %w", orderNumber, domain.ErrOrderNotFound)
	}
	return copyOrder(order), nil
}

// ListByCart returns the cart's orders, newest first.
func (r *memoryOrderRepository) ListByCart(_ context.Context, cartID string) ([]domain.OrderSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []*domain.Order
	for _, order := range r.orders {
		if order.CartID == cartID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	summaries := make([]domain.OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, domain.OrderSummary{OrderNumber: order.OrderNumber, Status: order.Status})
	}
	return summaries, nil
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem{}, o.Items...)
	return &out
}
