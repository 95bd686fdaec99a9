package delivery

import (
	"net/http"

	"bookstore_webapp/internal/clients"
	"bookstore_webapp/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	cartCookie       = "cart_id"
	cartCookieMaxAge = 30 * 24 * 60 * 60
)

type CartHandler struct {
	useCase domain.CartUseCase
	pages   *Pages
	log     *logrus.Logger
}

func NewCartHandler(uc domain.CartUseCase, pages *Pages, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		useCase: uc,
		pages:   pages,
		log:     logger,
	}
}

func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/cart", h.ShowCartPage)
	router.POST("/cart/items", h.AddFromForm)

	cart := router.Group("/api/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:code", h.UpdateQuantity)
		cart.DELETE("/items/:code", h.RemoveItem)
	}
}

// resolveCartID returns the caller's cart id from the X-Cart-ID header or
// the cart cookie, minting a new one when neither holds a valid id.
func resolveCartID(c *gin.Context, log *logrus.Logger) string {
	id := c.GetHeader(clients.CartIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id, _ = c.Cookie(cartCookie)
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		log.Debugf("Handler: Issued new cart id %s", id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cartCookie, id, cartCookieMaxAge, "/", "", false, true)
	c.Header(clients.CartIDHeader, id)
	return id
}

type cartPayload struct {
	domain.Cart
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func toPayload(cart *domain.Cart) cartPayload {
	return cartPayload{Cart: *cart, ItemCount: cart.ItemCount(), TotalAmount: cart.TotalAmount()}
}

type addItemRequest struct {
	Code     string          `json:"code" binding:"required"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"gte=0"`
}

type addFormRequest struct {
	Code string `form:"code" binding:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cartID := resolveCartID(c, h.log)
	cart, err := h.useCase.GetCart(c.Request.Context(), cartID)
	if err != nil {
		fail(c, h.log, "GetCart", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", toPayload(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "AddItem")
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlerLogger.Warnf("Failed to bind request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cartID := resolveCartID(c, h.log)
	cart, err := h.useCase.AddProduct(c.Request.Context(), cartID, domain.CartItem{
		Code:     req.Code,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		fail(c, h.log, "AddItem", err)
		return
	}
	handlerLogger.Infof("Product %s added to cart %s", req.Code, cartID)
	SuccessResponse(c, http.StatusOK, "Product added to cart", toPayload(cart))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithField("handler", "UpdateQuantity").Warnf("Failed to bind request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.useCase.UpdateQuantity(c.Request.Context(), resolveCartID(c, h.log), c.Param("code"), *req.Quantity)
	if err != nil {
		fail(c, h.log, "UpdateQuantity", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart updated", toPayload(cart))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.useCase.RemoveItem(c.Request.Context(), resolveCartID(c, h.log), c.Param("code"))
	if err != nil {
		fail(c, h.log, "RemoveItem", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Item removed from cart", toPayload(cart))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.useCase.ClearCart(c.Request.Context(), resolveCartID(c, h.log)); err != nil {
		fail(c, h.log, "ClearCart", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) ShowCartPage(c *gin.Context) {
	cart, err := h.useCase.GetCart(c.Request.Context(), resolveCartID(c, h.log))
	if err != nil {
		h.log.WithField("handler", "ShowCartPage").Errorf("Failed to load cart: %v", err)
		c.String(mapErrorToStatus(err), "Your cart could not be loaded.")
		return
	}
	body, err := h.pages.RenderCart(cart)
	if err != nil {
		h.log.WithField("handler", "ShowCartPage").Errorf("Failed to render cart page: %v", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// AddFromForm backs the "Add to Cart" buttons of the products page.
func (h *CartHandler) AddFromForm(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "AddFromForm")
	var req addFormRequest
	if err := c.ShouldBind(&req); err != nil {
		handlerLogger.Warnf("Failed to bind form: %v", err)
		c.String(http.StatusBadRequest, "Missing product code")
		return
	}

	_, err := h.useCase.AddProduct(c.Request.Context(), resolveCartID(c, h.log), domain.CartItem{Code: req.Code})
	if err != nil {
		status := mapErrorToStatus(err)
		handlerLogger.Warnf("Failed to add product %s from form (status %d): %v", req.Code, status, err)
		c.String(status, "The product could not be added to your cart.")
		return
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

// fail logs err and writes the error envelope. Internal errors are not
// echoed to the client.
func fail(c *gin.Context, log *logrus.Logger, handler string, err error) {
	status := mapErrorToStatus(err)
	entry := log.WithField("handler", handler)
	if status >= http.StatusInternalServerError {
		entry.Errorf("Request failed with status %d: %v", status, err)
	} else {
		entry.Warnf("Request failed with status %d: %v", status, err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	ErrorResponse(c, status, message)
}
