package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type seenRequest struct {
	path   string
	query  string
	cookie string
	auth   string
	reqID  string
}

func backend(t *testing.T, seen chan<- seenRequest) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- seenRequest{
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			cookie: r.Header.Get("Cookie"),
			auth:   r.Header.Get("Authorization"),
			reqID:  r.Header.Get("X-Request-ID"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"code":"P100"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// serve runs the router on a real listener. httputil.ReverseProxy calls
// CloseNotify, which gin only supports on a real connection.
func serve(t *testing.T, router *gin.Engine) *httptest.Server {
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, req *http.Request) (int, string) {
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestProxyJoinsTargetPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	seen := make(chan seenRequest, 1)
	srv := backend(t, seen)

	p, err := NewReverseProxy(srv.URL+"/catalog", "", quietLogger())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/api/products/:code", ProxyHandler(p, quietLogger()))
	front := serve(t, router)

	req, err := http.NewRequest(http.MethodGet, front.URL+"/api/products/P100?x=1", nil)
	require.NoError(t, err)
	req.Header.Set("Cookie", "cart_id=abc")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Request-ID", "req-1")
	status, body := do(t, front, req)

	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"code":"P100"}`, body)

	got := <-seen
	assert.Equal(t, "/catalog/api/products/P100", got.path)
	assert.Equal(t, "x=1", got.query)
	assert.Empty(t, got.cookie)
	assert.Empty(t, got.auth)
	assert.Equal(t, "req-1", got.reqID)
	assert.Empty(t, seen, "backend must be called exactly once")
}

func TestProxyStripsPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	seen := make(chan seenRequest, 1)
	srv := backend(t, seen)

	p, err := NewReverseProxy(srv.URL, "/catalog-api", quietLogger())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/catalog-api/*path", ProxyHandler(p, quietLogger()))
	front := serve(t, router)

	req, err := http.NewRequest(http.MethodGet, front.URL+"/catalog-api/api/products", nil)
	require.NoError(t, err)
	status, _ := do(t, front, req)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/api/products", (<-seen).path)
}

func TestProxyBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	p, err := NewReverseProxy(target, "", quietLogger())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/api/products/:code", ProxyHandler(p, quietLogger()))
	front := serve(t, router)

	req, err := http.NewRequest(http.MethodGet, front.URL+"/api/products/P100", nil)
	require.NoError(t, err)
	status, _ := do(t, front, req)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestNewReverseProxyRejectsRelativeTarget(t *testing.T) {
	_, err := NewReverseProxy("/catalog", "", quietLogger())
	assert.Error(t, err)
}
