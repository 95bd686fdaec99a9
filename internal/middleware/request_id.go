package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID echoes a valid incoming X-Request-ID or assigns a new one. It
// must run before RequestLogger so the id shows up in the access log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Set("requestID", reqID)
		c.Next()
	}
}
