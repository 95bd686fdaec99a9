package delivery

import (
	"net/http"
	"net/url"

	"bookstore_webapp/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	useCase domain.OrderUseCase
	pages   *Pages
	log     *logrus.Logger
}

func NewOrderHandler(uc domain.OrderUseCase, pages *Pages, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		useCase: uc,
		pages:   pages,
		log:     logger,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/orders", h.ShowOrdersPage)
	router.POST("/orders", h.PlaceOrderFromForm)
	router.GET("/orders/:orderNumber", h.ShowOrderPage)

	orders := router.Group("/api/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:orderNumber", h.GetOrder)
	}
}

type orderConfirmation struct {
	OrderNumber string `json:"orderNumber"`
}

type orderPayload struct {
	domain.Order
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func toOrderPayload(order *domain.Order) orderPayload {
	return orderPayload{Order: *order, TotalAmount: order.TotalAmount()}
}

// checkoutForm is the flat form posted by the cart page.
type checkoutForm struct {
	Name         string `form:"name"`
	Email        string `form:"email"`
	Phone        string `form:"phone"`
	AddressLine1 string `form:"addressLine1"`
	AddressLine2 string `form:"addressLine2"`
	City         string `form:"city"`
	State        string `form:"state"`
	ZipCode      string `form:"zipCode"`
	Country      string `form:"country"`
	Comments     string `form:"comments"`
}

func (f checkoutForm) request() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Customer: domain.Customer{Name: f.Name, Email: f.Email, Phone: f.Phone},
		DeliveryAddress: domain.Address{
			AddressLine1: f.AddressLine1,
			AddressLine2: f.AddressLine2,
			City:         f.City,
			State:        f.State,
			ZipCode:      f.ZipCode,
			Country:      f.Country,
		},
		Comments: f.Comments,
	}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "PlaceOrder")
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlerLogger.Warnf("Failed to bind JSON for create order: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cartID := resolveCartID(c, h.log)
	order, err := h.useCase.PlaceOrder(c.Request.Context(), cartID, req)
	if err != nil {
		fail(c, h.log, "PlaceOrder", err)
		return
	}
	handlerLogger.Infof("Order %s created successfully for cart %s", order.OrderNumber, cartID)
	SuccessResponse(c, http.StatusCreated, "Order created successfully", orderConfirmation{OrderNumber: order.OrderNumber})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.useCase.ListOrders(c.Request.Context(), resolveCartID(c, h.log))
	if err != nil {
		fail(c, h.log, "ListOrders", err)
		return
	}
	if len(orders) == 0 {
		SuccessResponse(c, http.StatusOK, "No orders found for this cart", []domain.OrderSummary{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.useCase.GetOrder(c.Request.Context(), resolveCartID(c, h.log), c.Param("orderNumber"))
	if err != nil {
		fail(c, h.log, "GetOrder", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", toOrderPayload(order))
}

// PlaceOrderFromForm backs the checkout form of the cart page.
func (h *OrderHandler) PlaceOrderFromForm(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "PlaceOrderFromForm")
	var form checkoutForm
	if err := c.ShouldBind(&form); err != nil {
		handlerLogger.Warnf("Failed to bind form: %v", err)
		c.String(http.StatusBadRequest, "The checkout form could not be read.")
		return
	}

	order, err := h.useCase.PlaceOrder(c.Request.Context(), resolveCartID(c, h.log), form.request())
	if err != nil {
		status := mapErrorToStatus(err)
		handlerLogger.Warnf("Checkout failed (status %d): %v", status, err)
		if status == http.StatusBadRequest {
			c.String(status, "Your order could not be placed: "+err.Error())
			return
		}
		c.String(status, "Your order could not be placed. Please try again later.")
		return
	}
	c.Redirect(http.StatusSeeOther, "/orders/"+url.PathEscape(order.OrderNumber))
}

func (h *OrderHandler) ShowOrdersPage(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "ShowOrdersPage")
	orders, err := h.useCase.ListOrders(c.Request.Context(), resolveCartID(c, h.log))
	if err != nil {
		handlerLogger.Errorf("Failed to list orders: %v", err)
		c.String(mapErrorToStatus(err), "Your orders could not be loaded.")
		return
	}
	body, err := h.pages.RenderOrders(orders)
	if err != nil {
		handlerLogger.Errorf("Failed to render orders page: %v", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *OrderHandler) ShowOrderPage(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "ShowOrderPage")
	order, err := h.useCase.GetOrder(c.Request.Context(), resolveCartID(c, h.log), c.Param("orderNumber"))
	if err != nil {
		status := mapErrorToStatus(err)
		handlerLogger.Warnf("Failed to load order %s (status %d): %v", c.Param("orderNumber"), status, err)
		c.String(status, "The order could not be found.")
		return
	}
	body, err := h.pages.RenderOrder(order)
	if err != nil {
		handlerLogger.Errorf("Failed to render order page: %v", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
