package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.ProductCatalog = (*CatalogClient)(nil)

// CatalogClient talks to the catalog service REST API.
type CatalogClient struct {
	baseURL string
	http    *JSONClient
	log     *logrus.Logger
}

func NewCatalogClient(baseURL string, jsonClient *JSONClient, logger *logrus.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    jsonClient,
		log:     logger,
	}
}

func (c *CatalogClient) GetProducts(ctx context.Context, page int) (*domain.PagedResult, error) {
	endpoint := c.baseURL + "/api/products?page=" + strconv.Itoa(page)
	c.log.Infof("CatalogClient: Fetching products for page: %d", page)

	var result domain.PagedResult
	if err := c.http.GetJSON(ctx, endpoint, &result); err != nil {
		c.log.Errorf("CatalogClient: GetProducts for page %d failed: %v", page, err)
		return nil, fmt.Errorf("failed to fetch products page %d: %w", page, err)
	}
	if result.Data == nil {
		result.Data = []domain.Product{}
	}
	return &result, nil
}

func (c *CatalogClient) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	endpoint := c.baseURL + "/api/products/" + url.PathEscape(code)
	c.log.Infof("CatalogClient: Fetching product for code: %s", code)

	var product domain.Product
	if err := c.http.GetJSON(ctx, endpoint, &product); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			c.log.Warnf("CatalogClient: Product with code %s not found", code)
			return nil, fmt.Errorf("product %s: %w", code, domain.ErrProductNotFound)
		}
		c.log.Errorf("CatalogClient: GetProductByCode %s failed: %v", code, err)
		return nil, fmt.Errorf("failed to fetch product %s: %w", code, err)
	}
	return &product, nil
}
