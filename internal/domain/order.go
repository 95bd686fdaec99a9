package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
)

type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusInProcess OrderStatus = "IN_PROCESS"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusError     OrderStatus = "ERROR"
)

// DeliveryCountries lists where orders can be shipped.
var DeliveryCountries = []string{"INDIA", "USA", "GERMANY", "UK"}

type OrderItem struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
}

// Order is a checked out cart. CartID identifies the shopper that placed it.
type Order struct {
	OrderNumber     string      `json:"orderNumber"`
	CartID          string      `json:"cartId"`
	Items           []OrderItem `json:"items"`
	Customer        Customer    `json:"customer"`
	DeliveryAddress Address     `json:"deliveryAddress"`
	Status          OrderStatus `json:"status"`
	Comments        string      `json:"comments,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

func (o Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type OrderSummary struct {
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
}

// CheckoutRequest is what the shopper fills in to turn the cart into an order.
type CheckoutRequest struct {
	Customer        Customer `json:"customer"`
	DeliveryAddress Address  `json:"deliveryAddress"`
	Comments        string   `json:"comments"`
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListByCart(ctx context.Context, cartID string) ([]OrderSummary, error)
}

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, cartID string, req CheckoutRequest) (*Order, error)
	GetOrder(ctx context.Context, cartID, orderNumber string) (*Order, error)
	ListOrders(ctx context.Context, cartID string) ([]OrderSummary, error)
}
