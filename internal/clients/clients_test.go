package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newJSONClient(t *testing.T, origin string, timeout time.Duration) *JSONClient {
	t.Helper()
	c, err := NewJSONClient(origin, timeout, quietLogger())
	require.NoError(t, err)
	return c
}

func TestJSONClientClassifiesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = io.WriteString(w, `{"name":"ok"}`)
		case "/broken":
			_, _ = io.WriteString(w, `{"name":`)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = io.WriteString(w, `{}`)
		default:
			http.Error(w, "no such thing", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newJSONClient(t, "", 0)
	ctx := context.Background()

	var v struct{ Name string }
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok", &v))
	assert.Equal(t, "ok", v.Name)

	err := c.GetJSON(ctx, srv.URL+"/missing", &v)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Contains(t, httpErr.Body, "no such thing")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	err = c.GetJSON(ctx, srv.URL+"/broken", &v)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Zero(t, StatusOf(err))

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = c.GetJSON(timeoutCtx, srv.URL+"/slow", &v)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJSONClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	err := newJSONClient(t, "", time.Second).GetJSON(context.Background(), target+"/api/products?page=1", &struct{}{})
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestJSONClientResolvesRelativeURLs(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	require.NoError(t, newJSONClient(t, srv.URL, 0).GetJSON(context.Background(), "/api/products?page=3", &struct{}{}))
	assert.Equal(t, "/api/products?page=3", gotURI)

	err := newJSONClient(t, "", 0).GetJSON(context.Background(), "/api/products?page=3", &struct{}{})
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestNewJSONClientRejectsRelativeOrigin(t *testing.T) {
	_, err := NewJSONClient("localhost/app", 0, quietLogger())
	assert.Error(t, err)
}

func TestCatalogClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/api/products":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			_, _ = io.WriteString(w, `{"data":[{"code":"P100","name":"The Hunger Games","price":34.0}],"totalElements":11,"pageNumber":2,"totalPages":2,"isFirst":false,"isLast":true,"hasNext":false,"hasPrevious":true}`)
		case "/catalog/api/products/P100":
			_, _ = io.WriteString(w, `{"code":"P100","name":"The Hunger Games","price":34.0}`)
		case "/catalog/api/products/empty":
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	catalog := NewCatalogClient(srv.URL+"/catalog/", newJSONClient(t, "", time.Second), quietLogger())
	ctx := context.Background()

	result, err := catalog.GetProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "P100", result.Data[0].Code)
	assert.True(t, decimal.NewFromInt(34).Equal(result.Data[0].Price))
	assert.True(t, result.IsLast)
	assert.True(t, result.HasPrevious)

	product, err := catalog.GetProductByCode(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "The Hunger Games", product.Name)

	_, err = catalog.GetProductByCode(ctx, "P999")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalogClientNormalizesMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null,"totalElements":0}`)
	}))
	defer srv.Close()

	result, err := NewCatalogClient(srv.URL, newJSONClient(t, "", 0), quietLogger()).GetProducts(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestCartClientReusesCartID(t *testing.T) {
	cartID := uuid.NewString()
	var (
		mu      sync.Mutex
		headers []string
		bodies  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/items", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		headers = append(headers, r.Header.Get(CartIDHeader))
		bodies = append(bodies, string(body))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Status":  "Success",
			"Message": "Product added to cart",
			"Data":    map[string]any{"id": cartID, "items": []any{}},
		})
	}))
	defer srv.Close()

	cart := NewCartClient(srv.URL, newJSONClient(t, "", 0), quietLogger())
	product := json.RawMessage(`{"code":"P100","name":"The Hunger Games","price":34.0}`)

	require.NoError(t, cart.AddToCart(context.Background(), product))
	require.NoError(t, cart.AddToCart(context.Background(), product))

	assert.Equal(t, cartID, cart.CartID())
	assert.Equal(t, []string{"", cartID}, headers)
	for _, body := range bodies {
		assert.JSONEq(t, string(product), body)
	}
}

func TestCartClientKeepsCartIDWhenResponseOmitsIt(t *testing.T) {
	cartID := uuid.NewString()
	var (
		mu      sync.Mutex
		headers []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get(CartIDHeader))
		call := len(headers)
		mu.Unlock()

		data := map[string]any{"id": cartID, "items": []any{}}
		if call == 2 {
			data = map[string]any{"items": []any{}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Success", "Data": data})
	}))
	defer srv.Close()

	cart := NewCartClient(srv.URL, newJSONClient(t, "", 0), quietLogger())
	product := json.RawMessage(`{"code":"P100","name":"The Hunger Games","price":34.0}`)

	for i := 0; i < 3; i++ {
		require.NoError(t, cart.AddToCart(context.Background(), product))
		assert.Equal(t, cartID, cart.CartID(), "call %d", i+1)
	}
	assert.Equal(t, []string{"", cartID, cartID}, headers)
}

func TestCartClientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"Status":"Fail","Message":"Invalid request body"}`)
	}))
	defer srv.Close()

	cart := NewCartClient(srv.URL, newJSONClient(t, "", 0), quietLogger())
	err := cart.AddToCart(context.Background(), json.RawMessage(`{"name":"no code"}`))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, cart.CartID())
}
