package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewReverseProxy forwards requests to target. prefixToStrip is removed from
// the incoming path before the target's base path is joined in front of it.
func NewReverseProxy(target, prefixToStrip string, log *logrus.Logger) (*httputil.ReverseProxy, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		log.Errorf("Failed to parse target URL '%s': %v", target, err)
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host required", target)
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		if prefixToStrip != "" && strings.HasPrefix(req.URL.Path, prefixToStrip) {
			req.URL.Path = stripPrefix(req.URL.Path, prefixToStrip)
			if req.URL.RawPath != "" {
				req.URL.RawPath = stripPrefix(req.URL.RawPath, prefixToStrip)
			}
			log.Debugf("Proxy Director: Stripped prefix '%s'. New path: %s", prefixToStrip, req.URL.Path)
		}

		originalDirector(req)

		req.Host = targetURL.Host
		req.Header.Del("Authorization")
		req.Header.Del("Cookie")

		log.Debugf("Proxy Director: Final request URL being sent: %s", req.URL.String())
	}

	proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, err error) {
		log.Errorf("Reverse proxy error to target '%s' for path '%s': %v", target, req.URL.Path, err)
		http.Error(rw, "Bad Gateway", http.StatusBadGateway)
	}

	log.Infof("Reverse proxy created for target: %s (will strip prefix: '%s')", target, prefixToStrip)
	return proxy, nil
}

func stripPrefix(path, prefix string) string {
	newPath := strings.TrimPrefix(path, prefix)
	if newPath == "" {
		return "/"
	}
	if !strings.HasPrefix(newPath, "/") {
		return "/" + newPath
	}
	return newPath
}

func ProxyHandler(p *httputil.ReverseProxy, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Debugf("ProxyHandler: Forwarding request for path '%s'", c.Request.URL.Path)
		p.ServeHTTP(c.Writer, c.Request)
	}
}
