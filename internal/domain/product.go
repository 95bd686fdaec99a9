package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

func init() {
	// Prices travel as JSON numbers between the catalog and the browser.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// PagedResult is one page of the catalog as the catalog service serves it.
type PagedResult struct {
	Data          []Product `json:"data"`
	TotalElements int64     `json:"totalElements"`
	PageNumber    int       `json:"pageNumber"`
	TotalPages    int       `json:"totalPages"`
	IsFirst       bool      `json:"isFirst"`
	IsLast        bool      `json:"isLast"`
	HasNext       bool      `json:"hasNext"`
	HasPrevious   bool      `json:"hasPrevious"`
}

type ProductCatalog interface {
	GetProducts(ctx context.Context, page int) (*PagedResult, error)
	GetProductByCode(ctx context.Context, code string) (*Product, error)
}
