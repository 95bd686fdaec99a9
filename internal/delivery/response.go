package delivery

import (
	"context"
	"errors"
	"net/http"

	"bookstore_webapp/internal/clients"
	"bookstore_webapp/internal/domain"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

func mapErrorToStatus(err error) int {
	var (
		netErr    *clients.NetworkError
		httpErr   *clients.HTTPError
		decodeErr *clients.DecodeError
	)

	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCartItemNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCartItem), errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &httpErr), errors.As(err, &decodeErr):
		return http.StatusBadGateway
	case errors.As(err, &netErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
