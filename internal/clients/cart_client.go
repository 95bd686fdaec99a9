package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
)

// CartIDHeader carries the cart id for callers that do not keep cookies.
const CartIDHeader = "X-Cart-ID"

type cartResponse struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    domain.Cart `json:"Data"`
}

// CartClient adds products to the webapp's cart API. The cart id handed out
// by the first response is reused for every later call.
type CartClient struct {
	baseURL string
	http    *JSONClient
	log     *logrus.Logger

	mu     sync.Mutex
	cartID string
}

func NewCartClient(baseURL string, jsonClient *JSONClient, logger *logrus.Logger) *CartClient {
	return &CartClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    jsonClient,
		log:     logger,
	}
}

// AddToCart posts the product exactly as it was received from the product listing.
func (c *CartClient) AddToCart(ctx context.Context, product json.RawMessage) error {
	header := http.Header{}
	if id := c.CartID(); id != "" {
		header.Set(CartIDHeader, id)
	}

	var resp cartResponse
	if err := c.http.SendJSON(ctx, http.MethodPost, c.baseURL+"/api/cart/items", header, product, &resp); err != nil {
		c.log.Errorf("CartClient: Failed to add product to cart: %v", err)
		return fmt.Errorf("failed to add product to cart: %w", err)
	}

	if resp.Data.ID == "" {
		c.log.Warnf("CartClient: Response carried no cart id, keeping %q", c.CartID())
	} else {
		c.mu.Lock()
		c.cartID = resp.Data.ID
		c.mu.Unlock()
	}
	c.log.Infof("CartClient: Cart %s now holds %d item(s)", c.CartID(), resp.Data.ItemCount())
	return nil
}

func (c *CartClient) CartID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartID
}
