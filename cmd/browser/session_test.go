package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bookstore_webapp/internal/clients"
	"bookstore_webapp/internal/loader"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type bookstore struct {
	mu    sync.Mutex
	added []string
}

func (s *bookstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/products":
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":[{"code":"P%s00","name":"Book %s","price":10.5}],"pageNumber":%s,"totalPages":3,"totalElements":3}`, page, page, page)
	case "/api/cart/items":
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.added = append(s.added, string(body))
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"Status":"Success","Message":"Product added to cart","Data":{"id":"0b6d3f3e-8f2a-4a53-9a55-7d9e0a3c1e11","items":[]}}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestSession(t *testing.T, srv *httptest.Server, out io.Writer) (*session, *loader.Loader) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jsonClient, err := clients.NewJSONClient(srv.URL, time.Second, logger)
	require.NoError(t, err)
	endpoint, err := loader.NewEndpoint("", "/api/products")
	require.NoError(t, err)

	console := newConsole(out)
	l := loader.New(jsonClient, clients.NewCartClient("", jsonClient, logger), loader.Options{
		Endpoint: endpoint,
		OnError: func(pageNo int, err error) {
			console.printf("! could not load page %d: %v\n", pageNo, err)
		},
	}, logger)
	t.Cleanup(l.Close)
	return newSession(l, console), l
}

func TestSessionPagesAndAddsToCart(t *testing.T) {
	store := &bookstore{}
	srv := httptest.NewServer(store)
	defer srv.Close()

	out := &syncBuffer{}
	s, l := newTestSession(t, srv, out)

	unsubscribe := l.Subscribe(s.render)
	defer unsubscribe()

	require.NoError(t, l.Initialize(1))
	l.Wait()
	// Each command waits for the previous load so output order is fixed.
	for _, cmd := range []string{"n", "g 3", "a 1", "a 5", "p", "x"} {
		if _, err := s.exec(context.Background(), cmd); err != nil {
			s.out.printf("! %v\n", err)
		}
		l.Wait()
	}

	text := out.String()
	assert.Contains(t, text, "Page 1 of 3 (3 products)")
	assert.Contains(t, text, "Page 2 of 3")
	assert.Contains(t, text, "Page 3 of 3")
	assert.Contains(t, text, "1. P300   Book 3  10.5")
	assert.Contains(t, text, "added P300 Book 3 to the cart")
	assert.Contains(t, text, "! no product 5 on this page")
	assert.Contains(t, text, `! unknown command "x"`)
	assert.Equal(t, 2, l.PageNo())

	require.Len(t, store.added, 1)
	var added map[string]any
	require.NoError(t, json.Unmarshal([]byte(store.added[0]), &added))
	assert.Equal(t, "P300", added["code"])
	assert.EqualValues(t, 10.5, added["price"])
}

func TestSessionQuitAndPreviousOnFirstPage(t *testing.T) {
	srv := httptest.NewServer(&bookstore{})
	defer srv.Close()

	out := &syncBuffer{}
	s, _ := newTestSession(t, srv, out)

	require.NoError(t, s.run(context.Background(), 1, strings.NewReader("p\nq\nn\n")))
	assert.Contains(t, out.String(), "! already on the first page")
}

func TestSessionReportsLoadFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := &syncBuffer{}
	s, _ := newTestSession(t, srv, out)

	require.NoError(t, s.run(context.Background(), 4, strings.NewReader("")))
	assert.Contains(t, out.String(), "! could not load page 4")
}
