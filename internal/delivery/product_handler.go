package delivery

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultCatalogTimeout = 5 * time.Second

type ProductHandler struct {
	catalog domain.ProductCatalog
	pages   *Pages
	detail  gin.HandlerFunc
	timeout time.Duration
	log     *logrus.Logger
}

// NewProductHandler wires the product pages and API. detail serves
// /api/products/:code and may be nil. timeout bounds every catalog call;
// zero means five seconds.
func NewProductHandler(catalog domain.ProductCatalog, pages *Pages, detail gin.HandlerFunc, timeout time.Duration, logger *logrus.Logger) *ProductHandler {
	if timeout <= 0 {
		timeout = defaultCatalogTimeout
	}
	return &ProductHandler{
		catalog: catalog,
		pages:   pages,
		detail:  detail,
		timeout: timeout,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/products")
	})
	router.GET("/products", h.ShowProductsPage)

	api := router.Group("/api/products")
	{
		api.GET("", h.ListProducts)
		if h.detail != nil {
			api.GET("/:code", h.detail)
		}
	}
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 0 {
		return 0, false
	}
	return page, true
}

func (h *ProductHandler) ShowProductsPage(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "ShowProductsPage")
	pageNo, ok := parsePage(c)
	if !ok {
		handlerLogger.Warnf("Invalid page parameter: %s, using 1", c.Query("page"))
		pageNo = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.catalog.GetProducts(ctx, pageNo)
	errMsg := ""
	if err != nil {
		handlerLogger.Errorf("Failed to load products for page %d: %v", pageNo, err)
		result = nil
		errMsg = "Products are unavailable right now. Please try again later."
	}

	body, err := h.pages.RenderProducts(pageNo, result, errMsg)
	if err != nil {
		handlerLogger.Errorf("Failed to render products page: %v", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "ListProducts")
	pageNo, ok := parsePage(c)
	if !ok {
		handlerLogger.Warnf("Invalid page parameter: %s", c.Query("page"))
		ErrorResponse(c, http.StatusBadRequest, "Invalid page parameter")
		return
	}
	handlerLogger.Infof("Fetching products for page: %d", pageNo)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.catalog.GetProducts(ctx, pageNo)
	if err != nil {
		status := mapErrorToStatus(err)
		handlerLogger.Errorf("Failed to fetch products for page %d (status %d): %v", pageNo, status, err)
		ErrorResponse(c, status, http.StatusText(status))
		return
	}
	c.JSON(http.StatusOK, result)
}
