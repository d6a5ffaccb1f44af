package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"applyflow/utils"
)

// MaxRequestSize limits the request body size. Requests carry either
// login credentials or a job URL, so anything large is noise.
func MaxRequestSize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// RequireJSON rejects body-carrying requests whose Content-Type is not
// application/json. GET, DELETE and OPTIONS pass through untouched.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodDelete, http.MethodOptions:
			c.Next()
			return
		}

		if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			utils.BadRequestError(c, "Content-Type must be application/json", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
