package loader

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const DefaultPath = "/api/products"

// Endpoint locates the product listing. An empty BaseURL targets the same
// origin as the host; otherwise it is an absolute origin such as
// http://localhost:8989.
type Endpoint struct {
	BaseURL string
	Path    string
}

func NewEndpoint(baseURL, path string) (Endpoint, error) {
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid products base URL %q: %w", baseURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return Endpoint{}, fmt.Errorf("products base URL %q must be absolute or empty", baseURL)
		}
	}
	return Endpoint{BaseURL: baseURL, Path: path}, nil
}

// PageURL is {baseUrl}{path}?page={pageNo}.
func (e Endpoint) PageURL(pageNo int) string {
	path := e.Path
	if path == "" {
		path = DefaultPath
	}
	return e.BaseURL + path + "?page=" + strconv.Itoa(pageNo)
}
